package dataset

import (
	"time"

	"savdash/domain/core"
)

// DatasetStatus represents the processing state of a dataset
type DatasetStatus string

const (
	StatusProcessing DatasetStatus = "processing"
	StatusReady      DatasetStatus = "ready"
	StatusFailed     DatasetStatus = "failed"
)

// Dataset is an ingested survey export: the variable catalog plus the
// row-aligned raw response matrix.
type Dataset struct {
	ID               core.DatasetID `json:"id"`
	Name             string         `json:"name"`
	OriginalFilename string         `json:"original_filename,omitempty"`
	Source           string         `json:"source"` // "xlsx", "csv", "synthetic"

	RowCount  int        `json:"row_count"`
	Variables []Variable `json:"variables"`

	// Columns holds one slice of raw values per variable code, each exactly
	// RowCount long.
	Columns map[core.VariableCode][]RawValue `json:"columns,omitempty"`

	Status       DatasetStatus `json:"status"`
	ErrorMessage string        `json:"error_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary is the list view of a dataset
type Summary struct {
	ID            core.DatasetID `json:"id"`
	Name          string         `json:"name"`
	RowCount      int            `json:"row_count"`
	VariableCount int            `json:"variable_count"`
	Status        DatasetStatus  `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Summarize builds the list view
func (d *Dataset) Summarize() Summary {
	return Summary{
		ID:            d.ID,
		Name:          d.Name,
		RowCount:      d.RowCount,
		VariableCount: len(d.Variables),
		Status:        d.Status,
		CreatedAt:     d.CreatedAt,
	}
}

// Variable returns the catalog entry for code
func (d *Dataset) Variable(code core.VariableCode) (*Variable, bool) {
	for i := range d.Variables {
		if d.Variables[i].Code == code {
			return &d.Variables[i], true
		}
	}
	return nil, false
}

// Column returns the raw values recorded for code
func (d *Dataset) Column(code core.VariableCode) ([]RawValue, bool) {
	col, ok := d.Columns[code]
	return col, ok
}

// Catalog returns a copy of the variable catalog
func (d *Dataset) Catalog() []Variable {
	out := make([]Variable, len(d.Variables))
	copy(out, d.Variables)
	return out
}

// Codes returns every variable code in catalog order
func (d *Dataset) Codes() []core.VariableCode {
	codes := make([]core.VariableCode, len(d.Variables))
	for i, v := range d.Variables {
		codes[i] = v.Code
	}
	return codes
}

// Row materializes one respondent row keyed by variable code
func (d *Dataset) Row(index int) map[core.VariableCode]RawValue {
	row := make(map[core.VariableCode]RawValue, len(d.Variables))
	for _, v := range d.Variables {
		col := d.Columns[v.Code]
		if index < len(col) {
			row[v.Code] = col[index]
		} else {
			row[v.Code] = nil
		}
	}
	return row
}
