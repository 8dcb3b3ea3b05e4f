package stats

import (
	"savdash/domain/core"
	"savdash/domain/dataset"
)

// ManyCategoriesThreshold is the category count above which a variable is
// simplified for display.
const ManyCategoriesThreshold = 12

// MissingLabel is the label of the synthetic missing frequency row
const MissingLabel = "Missing / No answer"

// FrequencyItem is one row of a frequency table
type FrequencyItem struct {
	Value          dataset.RawValue `json:"value"` // nil for the synthetic missing row
	Label          string           `json:"label"`
	Count          int              `json:"count"`
	PercentOfTotal float64          `json:"percent_of_total"`
	PercentOfValid float64          `json:"percent_of_valid"`
	IsMissing      bool             `json:"is_missing,omitempty"`
	IsOther        bool             `json:"is_other,omitempty"`
}

// NumericSummary holds descriptive statistics for numeric variables
type NumericSummary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// VariableStatistics is the derived, internally consistent view of a single
// variable. Never persisted; always recomputed from the variable and its raw
// values.
type VariableStatistics struct {
	Code                  core.VariableCode `json:"code"`
	TotalN                int               `json:"total_n"`
	ValidN                int               `json:"valid_n"`
	MissingN              int               `json:"missing_n"`
	MissingPercentOfTotal float64           `json:"missing_percent_of_total"`
	Frequencies           []FrequencyItem   `json:"frequencies"`
	HasManyCategories     bool              `json:"has_many_categories"`
	CategoryCount         int               `json:"category_count"`
	Numeric               *NumericSummary   `json:"numeric,omitempty"`
}

// MissingEntry returns the synthetic missing row, if present
func (s *VariableStatistics) MissingEntry() (FrequencyItem, bool) {
	if n := len(s.Frequencies); n > 0 && s.Frequencies[n-1].IsMissing {
		return s.Frequencies[n-1], true
	}
	return FrequencyItem{}, false
}

// ValidEntries returns the frequency rows excluding the missing row
func (s *VariableStatistics) ValidEntries() []FrequencyItem {
	if _, ok := s.MissingEntry(); ok {
		return s.Frequencies[:len(s.Frequencies)-1]
	}
	return s.Frequencies
}

// QualityFlag marks a data-quality concern on a variable
type QualityFlag string

const (
	FlagHighMissing    QualityFlag = "high_missing"
	FlagManyCategories QualityFlag = "many_categories"
	FlagConstant       QualityFlag = "constant"
	FlagEmpty          QualityFlag = "empty"
)

// VariableQuality is one row of the dataset quality report
type VariableQuality struct {
	Code           core.VariableCode    `json:"code"`
	Label          string               `json:"label"`
	Type           dataset.VariableType `json:"type"`
	ValidN         int                  `json:"valid_n"`
	MissingN       int                  `json:"missing_n"`
	MissingPercent float64              `json:"missing_percent"`
	CategoryCount  int                  `json:"category_count"`
	ResponseRate   float64              `json:"response_rate"`
	Flags          []QualityFlag        `json:"flags,omitempty"`
}

// QualityReport summarises variable-level quality metrics for a dataset
type QualityReport struct {
	DatasetID      core.DatasetID    `json:"dataset_id"`
	TotalN         int               `json:"total_n"`
	VariableCount  int               `json:"variable_count"`
	MeanMissingPct float64           `json:"mean_missing_percent"`
	Variables      []VariableQuality `json:"variables"`
}
