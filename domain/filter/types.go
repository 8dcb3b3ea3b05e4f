package filter

import (
	"savdash/domain/core"
)

// FilterType is the kind of segmentation rule a filter expresses
type FilterType string

const (
	TypeCategorical  FilterType = "categorical"
	TypeOrdinal      FilterType = "ordinal"
	TypeNumericRange FilterType = "numeric_range"
	TypeMultiSelect  FilterType = "multi_select"
	TypeDateRange    FilterType = "date_range"
)

// Valid reports whether t is a known filter type
func (t FilterType) Valid() bool {
	switch t {
	case TypeCategorical, TypeOrdinal, TypeNumericRange, TypeMultiSelect, TypeDateRange:
		return true
	}
	return false
}

// Control is the recommended input widget for a filter
type Control string

const (
	ControlCheckboxGroup Control = "checkbox_group"
	ControlSelect        Control = "select"
	ControlRangeSlider   Control = "range_slider"
	ControlDatePicker    Control = "date_picker"
)

// Valid reports whether c is a known control
func (c Control) Valid() bool {
	switch c {
	case ControlCheckboxGroup, ControlSelect, ControlRangeSlider, ControlDatePicker:
		return true
	}
	return false
}

// Provenance tags where a filter came from
type Provenance string

const (
	SourceAI     Provenance = "ai"
	SourceManual Provenance = "manual"
)

// UI carries rendering hints for a filter
type UI struct {
	Control Control  `json:"control"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
}

// Option is one selectable value of a filter
type Option struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// SmartFilter is a segmentation rule candidate over one or more variables
type SmartFilter struct {
	ID               core.FilterID       `json:"id"`
	Title            string              `json:"title"`
	Description      string              `json:"description"`
	Rationale        string              `json:"rationale"`
	SourceVars       []core.VariableCode `json:"source_vars"`
	FilterType       FilterType          `json:"filter_type"`
	UI               UI                  `json:"ui"`
	Options          []Option            `json:"options"`
	SuitabilityScore int                 `json:"suitability_score"`
	Source           Provenance          `json:"source,omitempty"`
	IsApplied        bool                `json:"is_applied"`
}

// Uses reports whether the filter is built from code
func (f *SmartFilter) Uses(code core.VariableCode) bool {
	for _, c := range f.SourceVars {
		if c == code {
			return true
		}
	}
	return false
}

// SourceKey is an order-independent key of the filter's source variable set
func (f *SmartFilter) SourceKey() string {
	return SourceKey(f.SourceVars)
}

// Clone returns a deep copy so callers can mutate without aliasing
func (f SmartFilter) Clone() SmartFilter {
	out := f
	out.SourceVars = append([]core.VariableCode(nil), f.SourceVars...)
	out.Options = append([]Option(nil), f.Options...)
	if f.UI.Min != nil {
		v := *f.UI.Min
		out.UI.Min = &v
	}
	if f.UI.Max != nil {
		v := *f.UI.Max
		out.UI.Max = &v
	}
	return out
}
