package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"savdash/domain/core"
)

func TestValueKey(t *testing.T) {
	tests := []struct {
		name string
		in   RawValue
		want string
		ok   bool
	}{
		{"nil", nil, "", false},
		{"nan", math.NaN(), "", false},
		{"integral float", 1.0, "1", true},
		{"fraction", 2.5, "2.5", true},
		{"int", 99, "99", true},
		{"padded string", "  yes ", "yes", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ValueKey(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLabelForMatchesAcrossNumericKinds(t *testing.T) {
	v := Variable{
		Code: "Q1",
		ValueLabels: []ValueLabel{
			{Value: 1, Label: "Yes"},
			{Value: 2.0, Label: "No"},
		},
	}

	label, ok := v.LabelFor(1.0)
	assert.True(t, ok)
	assert.Equal(t, "Yes", label)

	label, ok = v.LabelFor("2")
	assert.True(t, ok)
	assert.Equal(t, "No", label)

	_, ok = v.LabelFor(3)
	assert.False(t, ok)
}

func TestDatasetRowAndLookup(t *testing.T) {
	ds := &Dataset{
		RowCount:  2,
		Variables: []Variable{{Code: "a"}, {Code: "b"}},
		Columns: map[core.VariableCode][]RawValue{
			"a": {1.0, 2.0},
			"b": {"x"},
		},
	}

	row := ds.Row(1)
	assert.Equal(t, 2.0, row["a"])
	assert.Nil(t, row["b"])

	v, ok := ds.Variable("b")
	assert.True(t, ok)
	assert.Equal(t, core.VariableCode("b"), v.Code)

	_, ok = ds.Variable("zzz")
	assert.False(t, ok)
	assert.Equal(t, []core.VariableCode{"a", "b"}, ds.Codes())
}
