package excel

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"savdash/domain/dataset"
)

// WriteWorkbook saves ds as a workbook readable by DataReader: a data sheet,
// a Variables sheet and a ValueLabels sheet.
func WriteWorkbook(path string, ds *dataset.Dataset, config ReaderConfig) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", config.DataSheet); err != nil {
		return eris.Wrap(err, "excel: rename data sheet")
	}

	header := make([]any, len(ds.Variables))
	for i, v := range ds.Variables {
		header[i] = string(v.Code)
	}
	rows := make([][]any, ds.RowCount)
	for r := 0; r < ds.RowCount; r++ {
		row := make([]any, len(ds.Variables))
		for c, v := range ds.Variables {
			if col, ok := ds.Column(v.Code); ok && r < len(col) {
				row[c] = col[r]
			}
		}
		rows[r] = row
	}
	if err := writeSheet(f, config.DataSheet, header, rows); err != nil {
		return err
	}

	varRows := make([][]any, 0, len(ds.Variables))
	var labelRows [][]any
	for _, v := range ds.Variables {
		missing := make([]string, 0, len(v.Missing.UserMissing))
		for _, m := range v.Missing.UserMissing {
			if k, ok := dataset.ValueKey(m); ok {
				missing = append(missing, k)
			}
		}
		varRows = append(varRows, []any{string(v.Code), v.Label, string(v.Type), string(v.Measure), strings.Join(missing, config.MissingSeparator)})
		for _, vl := range v.ValueLabels {
			labelRows = append(labelRows, []any{string(v.Code), vl.Value, vl.Label})
		}
	}

	if _, err := f.NewSheet(config.VariablesSheet); err != nil {
		return eris.Wrap(err, "excel: create variables sheet")
	}
	if err := writeSheet(f, config.VariablesSheet, []any{"code", "label", "type", "measure", "missing_values"}, varRows); err != nil {
		return err
	}
	if _, err := f.NewSheet(config.ValueLabelsSheet); err != nil {
		return eris.Wrap(err, "excel: create value labels sheet")
	}
	if err := writeSheet(f, config.ValueLabelsSheet, []any{"code", "value", "label"}, labelRows); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return eris.Wrapf(err, "excel: save %s", path)
	}
	return nil
}

// writeSheet streams a header and rows into sheet
func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return eris.Wrapf(err, "excel: stream writer for %s", sheet)
	}
	if err := sw.SetRow("A1", header); err != nil {
		return eris.Wrapf(err, "excel: header of %s", sheet)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return eris.Wrap(err, "excel: cell name")
		}
		if err := sw.SetRow(cell, row); err != nil {
			return eris.Wrapf(err, "excel: row %d of %s", i+2, sheet)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("excel: flush %s: %w", sheet, err)
	}
	return nil
}
