package filter

import (
	"sort"
	"strings"

	"savdash/domain/core"
	"savdash/domain/dataset"
)

// SelectThreshold is the cardinality above which categorical filters render
// as a select instead of a checkbox group.
const SelectThreshold = 6

// ControlFor chooses the UI control for a filter type and source cardinality
func ControlFor(t FilterType, cardinality int) Control {
	switch t {
	case TypeOrdinal, TypeNumericRange:
		return ControlRangeSlider
	case TypeDateRange:
		return ControlDatePicker
	case TypeMultiSelect:
		return ControlCheckboxGroup
	default:
		if cardinality > SelectThreshold {
			return ControlSelect
		}
		return ControlCheckboxGroup
	}
}

// TypeFor derives the filter type from a variable's declared type and measure
func TypeFor(v *dataset.Variable) FilterType {
	switch v.Type {
	case dataset.TypeDate:
		return TypeDateRange
	case dataset.TypeNumeric:
		return TypeNumericRange
	case dataset.TypeScale:
		return TypeOrdinal
	case dataset.TypeMultiChoice:
		return TypeMultiSelect
	case dataset.TypeSingleChoice:
		if v.Measure == dataset.MeasureOrdinal {
			return TypeOrdinal
		}
		return TypeCategorical
	default:
		return TypeCategorical
	}
}

// OptionsFor materializes selectable options from the variable's value labels.
// Range and date filters carry no options; declared user-missing codes are
// never offered.
func OptionsFor(t FilterType, v *dataset.Variable) []Option {
	if t == TypeNumericRange || t == TypeDateRange {
		return []Option{}
	}
	excluded := make(map[string]bool, len(v.Missing.UserMissing))
	for _, m := range v.Missing.UserMissing {
		if k, ok := dataset.ValueKey(m); ok {
			excluded[k] = true
		}
	}
	options := make([]Option, 0, len(v.ValueLabels))
	for _, vl := range v.ValueLabels {
		key, ok := dataset.ValueKey(vl.Value)
		if !ok || excluded[key] {
			continue
		}
		options = append(options, Option{Key: key, Label: vl.Label})
	}
	return options
}

// RangeFor reports the numeric bounds of a variable's labelled values
func RangeFor(v *dataset.Variable) (min, max *float64) {
	first := true
	var lo, hi float64
	for _, vl := range v.ValueLabels {
		f, ok := dataset.AsFloat(vl.Value)
		if !ok {
			continue
		}
		if first || f < lo {
			lo = f
		}
		if first || f > hi {
			hi = f
		}
		first = false
	}
	if first {
		return nil, nil
	}
	return &lo, &hi
}

// BuildUI assembles the UI hints for a filter over v
func BuildUI(t FilterType, v *dataset.Variable) UI {
	ui := UI{Control: ControlFor(t, v.Cardinality)}
	if ui.Control == ControlRangeSlider {
		ui.Min, ui.Max = RangeFor(v)
	}
	return ui
}

// SourceKey is an order-independent key of a set of variable codes
func SourceKey(codes []core.VariableCode) string {
	sorted := make([]string, len(codes))
	for i, c := range codes {
		sorted[i] = string(c)
	}
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}
