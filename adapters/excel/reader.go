package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"savdash/domain/core"
	"savdash/domain/dataset"
	"savdash/internal/errors"
	"savdash/internal/statistics"
)

// DataReader handles reading survey exports from Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	config   ReaderConfig
	missing  *statistics.MissingDetector
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string, config ReaderConfig) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{
		filePath: filePath,
		fileType: fileType,
		config:   config,
		missing:  statistics.NewMissingDetector(),
	}
}

// ReadDataset reads the file and builds a ready dataset named name
func (r *DataReader) ReadDataset(name string) (*dataset.Dataset, error) {
	wb, err := r.ReadWorkbook()
	if err != nil {
		return nil, err
	}
	ds, err := r.BuildDataset(wb)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		name = strings.TrimSuffix(filepath.Base(r.filePath), filepath.Ext(r.filePath))
	}
	ds.Name = name
	ds.OriginalFilename = filepath.Base(r.filePath)
	ds.Source = r.fileType
	return ds, nil
}

// ReadWorkbook reads raw sheets from Excel or CSV files
func (r *DataReader) ReadWorkbook() (*Workbook, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.InvalidInput(
			fmt.Sprintf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath),
			core.NewInvalidInputError("path", r.filePath))
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

// readExcelData reads the data sheet and the optional metadata sheets
func (r *DataReader) readExcelData() (*Workbook, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.InvalidInput("failed to open Excel file", fmt.Errorf("%w: %v", core.ErrInvalidInput, err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.InvalidInput("workbook has no sheets", core.NewInvalidInputError("path", r.filePath))
	}
	dataSheet := sheets[0]
	if name, ok := findSheet(sheets, r.config.DataSheet); ok {
		dataSheet = name
	}

	read := func(sheet string) (*SheetData, error) {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		return toSheetData(rows), nil
	}

	data, err := read(dataSheet)
	if err != nil {
		return nil, err
	}
	wb := &Workbook{Data: *data}
	if name, ok := findSheet(sheets, r.config.VariablesSheet); ok && name != dataSheet {
		if wb.Variables, err = read(name); err != nil {
			return nil, err
		}
	}
	if name, ok := findSheet(sheets, r.config.ValueLabelsSheet); ok && name != dataSheet {
		if wb.ValueLabels, err = read(name); err != nil {
			return nil, err
		}
	}

	zap.L().Info("excel workbook read",
		zap.String("path", r.filePath),
		zap.String("data_sheet", dataSheet),
		zap.Int("rows", len(wb.Data.Rows)),
		zap.Int("columns", len(wb.Data.Headers)),
		zap.Bool("has_variables", wb.Variables != nil),
		zap.Bool("has_value_labels", wb.ValueLabels != nil),
		zap.Duration("elapsed", time.Since(startTime)))

	return wb, nil
}

// readCSVData reads a CSV export; metadata sheets are not available
func (r *DataReader) readCSVData() (*Workbook, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.InvalidInput("failed to read CSV file", fmt.Errorf("%w: %v", core.ErrInvalidInput, err))
	}

	zap.L().Info("csv file read", zap.String("path", r.filePath), zap.Int("rows", len(rows)))
	return &Workbook{Data: *toSheetData(rows)}, nil
}

func toSheetData(rows [][]string) *SheetData {
	sd := &SheetData{}
	if len(rows) == 0 {
		return sd
	}
	sd.Headers = make([]string, len(rows[0]))
	for i, h := range rows[0] {
		sd.Headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	for _, row := range rows[1:] {
		out := make([]string, len(row))
		blank := true
		for j, c := range row {
			out[j] = strings.TrimSpace(c)
			if out[j] != "" {
				blank = false
			}
		}
		if !blank {
			sd.Rows = append(sd.Rows, out)
		}
	}
	return sd
}

// variableMeta is one row of the Variables sheet
type variableMeta struct {
	label   string
	vtype   dataset.VariableType
	measure dataset.Measure
	missing []dataset.RawValue
	typed   bool
}

// BuildDataset converts raw sheets into a dataset with inferred metadata
func (r *DataReader) BuildDataset(wb *Workbook) (*dataset.Dataset, error) {
	if len(wb.Data.Headers) == 0 {
		return nil, errors.InvalidInput("data sheet has no header row", core.NewInvalidInputError("data", "missing header"))
	}

	meta := r.parseVariables(wb.Variables)
	labels := r.parseValueLabels(wb.ValueLabels)

	rowCount := len(wb.Data.Rows)
	ds := &dataset.Dataset{
		ID:        core.NewDatasetID(),
		RowCount:  rowCount,
		Columns:   make(map[core.VariableCode][]dataset.RawValue, len(wb.Data.Headers)),
		Status:    dataset.StatusReady,
		CreatedAt: time.Now().UTC(),
	}
	ds.UpdatedAt = ds.CreatedAt

	for col, header := range wb.Data.Headers {
		if header == "" {
			continue
		}
		code := core.VariableCode(header)
		if _, dup := ds.Columns[code]; dup {
			return nil, errors.InvalidInput(
				fmt.Sprintf("duplicate column %q", header),
				core.NewInvalidInputError("header", header))
		}

		column := make([]dataset.RawValue, rowCount)
		for i, row := range wb.Data.Rows {
			if col < len(row) {
				column[i] = ParseCell(row[col])
			}
		}
		ds.Columns[code] = column

		v := dataset.Variable{
			Code:        code,
			ValueLabels: labels[code],
			Missing:     dataset.MissingPolicy{SystemMissing: true},
		}
		if m, ok := meta[code]; ok {
			v.Label = m.label
			v.Type = m.vtype
			v.Measure = m.measure
			v.Missing.UserMissing = m.missing
		}
		r.profile(&v, column)
		ds.Variables = append(ds.Variables, v)
	}

	for code := range meta {
		if _, ok := ds.Columns[code]; !ok {
			zap.L().Warn("variable declared without data column", zap.String("code", string(code)))
		}
	}
	return ds, nil
}

// profile fills cardinality, response counts and inferred type/measure
func (r *DataReader) profile(v *dataset.Variable, column []dataset.RawValue) {
	explicit := r.missing.ExplicitSet(v)
	distinct := make(map[string]bool)
	valid := 0
	allNumeric := true
	allDates := true
	for _, raw := range column {
		if statistics.IsMissing(raw, explicit) {
			continue
		}
		valid++
		key, _ := dataset.ValueKey(raw)
		distinct[key] = true
		if _, ok := raw.(float64); !ok {
			allNumeric = false
		}
		if s, ok := raw.(string); !ok || !looksLikeDate(s) {
			allDates = false
		}
	}
	v.Cardinality = len(distinct)
	v.ResponseCount = valid
	if len(column) > 0 {
		v.ResponseRate = float64(valid) / float64(len(column))
	}

	if v.Type == "" || v.Type == dataset.TypeUnknown {
		switch {
		case valid == 0:
			v.Type = dataset.TypeUnknown
		case allDates:
			v.Type = dataset.TypeDate
		case allNumeric && (len(v.ValueLabels) > 0 || v.Cardinality <= r.config.MaxChoiceCardinality):
			v.Type = dataset.TypeSingleChoice
		case allNumeric:
			v.Type = dataset.TypeNumeric
		case v.Cardinality <= r.config.MaxChoiceCardinality:
			v.Type = dataset.TypeSingleChoice
		default:
			v.Type = dataset.TypeText
		}
	}
	if v.Measure == "" || v.Measure == dataset.MeasureUnknown {
		switch v.Type {
		case dataset.TypeNumeric:
			v.Measure = dataset.MeasureScale
		case dataset.TypeScale:
			v.Measure = dataset.MeasureOrdinal
		case dataset.TypeSingleChoice, dataset.TypeMultiChoice:
			v.Measure = dataset.MeasureNominal
		default:
			v.Measure = dataset.MeasureUnknown
		}
	}
}

func (r *DataReader) parseVariables(sheet *SheetData) map[core.VariableCode]variableMeta {
	out := make(map[core.VariableCode]variableMeta)
	if sheet == nil {
		return out
	}
	for _, row := range sheet.Rows {
		code := sheet.cell(row, "code")
		if code == "" {
			continue
		}
		m := variableMeta{
			label:   sheet.cell(row, "label"),
			vtype:   dataset.ParseVariableType(strings.ToLower(sheet.cell(row, "type"))),
			measure: dataset.ParseMeasure(strings.ToLower(sheet.cell(row, "measure"))),
		}
		for _, part := range strings.Split(sheet.cell(row, "missing_values"), r.config.MissingSeparator) {
			if v := ParseCell(part); v != nil {
				m.missing = append(m.missing, v)
			}
		}
		out[core.VariableCode(code)] = m
	}
	return out
}

func (r *DataReader) parseValueLabels(sheet *SheetData) map[core.VariableCode][]dataset.ValueLabel {
	out := make(map[core.VariableCode][]dataset.ValueLabel)
	if sheet == nil {
		return out
	}
	for _, row := range sheet.Rows {
		code := sheet.cell(row, "code")
		value := ParseCell(sheet.cell(row, "value"))
		if code == "" || value == nil {
			continue
		}
		c := core.VariableCode(code)
		out[c] = append(out[c], dataset.ValueLabel{Value: value, Label: sheet.cell(row, "label")})
	}
	return out
}

// ParseCell converts a trimmed cell into a raw value: nil for blanks, float64
// for numbers, string otherwise.
func ParseCell(s string) dataset.RawValue {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"01/02/2006",
	"02.01.2006",
	"01-02-06",
}

func looksLikeDate(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func findSheet(sheets []string, name string) (string, bool) {
	for _, s := range sheets {
		if equalFold(s, name) {
			return s, true
		}
	}
	return "", false
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
