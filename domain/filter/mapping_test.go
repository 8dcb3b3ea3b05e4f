package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"savdash/domain/core"
	"savdash/domain/dataset"
)

func TestControlFor(t *testing.T) {
	tests := []struct {
		name        string
		filterType  FilterType
		cardinality int
		want        Control
	}{
		{"small categorical", TypeCategorical, 5, ControlCheckboxGroup},
		{"boundary categorical", TypeCategorical, 6, ControlCheckboxGroup},
		{"large categorical", TypeCategorical, 7, ControlSelect},
		{"ordinal", TypeOrdinal, 11, ControlRangeSlider},
		{"numeric", TypeNumericRange, 0, ControlRangeSlider},
		{"date", TypeDateRange, 0, ControlDatePicker},
		{"grid", TypeMultiSelect, 20, ControlCheckboxGroup},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ControlFor(tt.filterType, tt.cardinality))
		})
	}
}

func TestTypeFor(t *testing.T) {
	assert.Equal(t, TypeDateRange, TypeFor(&dataset.Variable{Type: dataset.TypeDate}))
	assert.Equal(t, TypeNumericRange, TypeFor(&dataset.Variable{Type: dataset.TypeNumeric}))
	assert.Equal(t, TypeOrdinal, TypeFor(&dataset.Variable{Type: dataset.TypeScale}))
	assert.Equal(t, TypeMultiSelect, TypeFor(&dataset.Variable{Type: dataset.TypeMultiChoice}))
	assert.Equal(t, TypeOrdinal, TypeFor(&dataset.Variable{Type: dataset.TypeSingleChoice, Measure: dataset.MeasureOrdinal}))
	assert.Equal(t, TypeCategorical, TypeFor(&dataset.Variable{Type: dataset.TypeSingleChoice}))
	assert.Equal(t, TypeCategorical, TypeFor(&dataset.Variable{Type: dataset.TypeUnknown}))
}

func TestOptionsForSkipsUserMissing(t *testing.T) {
	v := &dataset.Variable{
		Code: "Q1",
		ValueLabels: []dataset.ValueLabel{
			{Value: 1.0, Label: "Yes"},
			{Value: 2.0, Label: "No"},
			{Value: 99.0, Label: "Refused"},
		},
		Missing: dataset.MissingPolicy{UserMissing: []dataset.RawValue{99}},
	}

	opts := OptionsFor(TypeCategorical, v)
	assert.Equal(t, []Option{{Key: "1", Label: "Yes"}, {Key: "2", Label: "No"}}, opts)
	assert.Empty(t, OptionsFor(TypeNumericRange, v))
}

func TestBuildUIRange(t *testing.T) {
	v := &dataset.Variable{
		Cardinality: 5,
		ValueLabels: []dataset.ValueLabel{{Value: 1.0, Label: "Low"}, {Value: 5.0, Label: "High"}},
	}
	ui := BuildUI(TypeOrdinal, v)
	assert.Equal(t, ControlRangeSlider, ui.Control)
	if assert.NotNil(t, ui.Min) && assert.NotNil(t, ui.Max) {
		assert.Equal(t, 1.0, *ui.Min)
		assert.Equal(t, 5.0, *ui.Max)
	}
}

func TestSourceKeyIgnoresOrder(t *testing.T) {
	a := SmartFilter{SourceVars: []core.VariableCode{"b", "a"}}
	b := SmartFilter{SourceVars: []core.VariableCode{"a", "b"}}
	assert.Equal(t, a.SourceKey(), b.SourceKey())
}
