package export

import (
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"savdash/domain/dataset"
	"savdash/domain/stats"
)

const (
	summarySheet     = "Summary"
	frequenciesSheet = "Frequencies"
)

// FrequencyTable pairs a variable with its computed statistics
type FrequencyTable struct {
	Variable   dataset.Variable
	Statistics *stats.VariableStatistics
}

// WriteFrequencies writes a workbook with a per-variable summary sheet and
// stacked frequency tables, one block per variable.
func WriteFrequencies(w io.Writer, datasetName string, tables []FrequencyTable) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return eris.Wrap(err, "export: rename summary sheet")
	}
	if _, err := f.NewSheet(frequenciesSheet); err != nil {
		return eris.Wrap(err, "export: create frequencies sheet")
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return eris.Wrap(err, "export: create style")
	}

	summary := [][]any{
		{"dataset", datasetName},
		{},
		{"code", "label", "total_n", "valid_n", "missing_n", "missing_percent", "categories"},
	}
	for _, t := range tables {
		s := t.Statistics
		summary = append(summary, []any{string(t.Variable.Code), t.Variable.Label, s.TotalN, s.ValidN, s.MissingN, s.MissingPercentOfTotal, s.CategoryCount})
	}
	if err := setRows(f, summarySheet, 1, summary); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "A3", "G3", bold); err != nil {
		return eris.Wrap(err, "export: style summary header")
	}

	row := 1
	for _, t := range tables {
		title := fmt.Sprintf("%s  %s", t.Variable.Code, t.Variable.Label)
		block := [][]any{
			{title},
			{"value", "label", "count", "percent_of_total", "percent_of_valid"},
		}
		for _, item := range t.Statistics.Frequencies {
			value := item.Value
			if item.IsMissing || item.IsOther {
				value = ""
			}
			block = append(block, []any{value, item.Label, item.Count, item.PercentOfTotal, item.PercentOfValid})
		}
		if err := setRows(f, frequenciesSheet, row, block); err != nil {
			return err
		}
		titleCell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetCellStyle(frequenciesSheet, titleCell, titleCell, bold); err != nil {
			return eris.Wrap(err, "export: style table title")
		}
		row += len(block) + 1
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write workbook")
	}
	return nil
}

func setRows(f *excelize.File, sheet string, start int, rows [][]any) error {
	for i, values := range rows {
		if len(values) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, start+i)
		if err != nil {
			return eris.Wrap(err, "export: cell name")
		}
		v := values
		if err := f.SetSheetRow(sheet, cell, &v); err != nil {
			return eris.Wrapf(err, "export: write %s row %d", sheet, start+i)
		}
	}
	return nil
}
