package statistics

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"savdash/domain/core"
	"savdash/domain/dataset"
	"savdash/domain/stats"
)

func repeat(v dataset.RawValue, n int) []dataset.RawValue {
	out := make([]dataset.RawValue, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func concat(parts ...[]dataset.RawValue) []dataset.RawValue {
	var out []dataset.RawValue
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestComputeStatistics_UserMissingAndNulls(t *testing.T) {
	v := &dataset.Variable{
		Code: "Q1",
		Type: dataset.TypeSingleChoice,
		ValueLabels: []dataset.ValueLabel{
			{Value: 1.0, Label: "Yes"},
			{Value: 2.0, Label: "No"},
			{Value: 3.0, Label: "Maybe"},
		},
		Missing: dataset.MissingPolicy{UserMissing: []dataset.RawValue{99.0}},
	}
	raw := concat(
		repeat(1.0, 1500),
		repeat(nil, 600),
		repeat(2.0, 1000),
		repeat(99.0, 200),
		repeat(3.0, 500),
	)

	s, err := NewEngine(DefaultConfig()).ComputeStatistics(v, raw, 3800)
	require.NoError(t, err)

	assert.Equal(t, 3800, s.TotalN)
	assert.Equal(t, 3000, s.ValidN)
	assert.Equal(t, 800, s.MissingN)
	assert.Equal(t, 21.05, s.MissingPercentOfTotal)
	assert.Equal(t, 3, s.CategoryCount)
	assert.False(t, s.HasManyCategories)

	want := []stats.FrequencyItem{
		{Value: 1.0, Label: "Yes", Count: 1500, PercentOfTotal: 39.47, PercentOfValid: 50},
		{Value: 2.0, Label: "No", Count: 1000, PercentOfTotal: 26.32, PercentOfValid: 33.33},
		{Value: 3.0, Label: "Maybe", Count: 500, PercentOfTotal: 13.16, PercentOfValid: 16.67},
		{Value: nil, Label: stats.MissingLabel, Count: 800, PercentOfTotal: 21.05, PercentOfValid: 0, IsMissing: true},
	}
	assert.Equal(t, want, s.Frequencies)
}

func TestComputeStatistics_NonSubstantiveLabels(t *testing.T) {
	v := &dataset.Variable{
		Code: "Q2",
		ValueLabels: []dataset.ValueLabel{
			{Value: 1.0, Label: "Agree"},
			{Value: 8.0, Label: "Don’t know"},
			{Value: 9.0, Label: "Keine Angabe"},
		},
	}
	raw := []dataset.RawValue{1.0, 8.0, 9.0, "  ", math.NaN(), 1.0}

	s, err := NewEngine(DefaultConfig()).ComputeStatistics(v, raw, len(raw))
	require.NoError(t, err)

	assert.Equal(t, 2, s.ValidN)
	assert.Equal(t, 4, s.MissingN)
	require.Len(t, s.Frequencies, 2)
	assert.Equal(t, "Agree", s.Frequencies[0].Label)
	assert.True(t, s.Frequencies[1].IsMissing)
}

func TestComputeStatistics_UnlabelledValuesUseKey(t *testing.T) {
	v := &dataset.Variable{Code: "city", Type: dataset.TypeText}
	raw := []dataset.RawValue{"Berlin", "Paris", "Berlin", 3.0}

	s, err := NewEngine(DefaultConfig()).ComputeStatistics(v, raw, 4)
	require.NoError(t, err)

	require.Len(t, s.Frequencies, 3)
	assert.Equal(t, "Berlin", s.Frequencies[0].Label)
	assert.Equal(t, 2, s.Frequencies[0].Count)
	assert.Equal(t, "Paris", s.Frequencies[1].Label)
	assert.Equal(t, "3", s.Frequencies[2].Label)
	_, hasMissing := s.MissingEntry()
	assert.False(t, hasMissing)
}

func TestComputeStatistics_EquivalentValuesCollapse(t *testing.T) {
	v := &dataset.Variable{Code: "Q3"}
	raw := []dataset.RawValue{1.0, 1, "1", 2.0}

	s, err := NewEngine(DefaultConfig()).ComputeStatistics(v, raw, 4)
	require.NoError(t, err)

	require.Len(t, s.Frequencies, 2)
	assert.Equal(t, 3, s.Frequencies[0].Count)
}

func TestComputeStatistics_TiesKeepFirstAppearance(t *testing.T) {
	v := &dataset.Variable{Code: "Q4"}
	raw := []dataset.RawValue{"b", "a", "c", "a", "b", "c"}

	s, err := NewEngine(DefaultConfig()).ComputeStatistics(v, raw, 6)
	require.NoError(t, err)

	labels := []string{}
	for _, f := range s.Frequencies {
		labels = append(labels, f.Label)
	}
	assert.Equal(t, []string{"b", "a", "c"}, labels)
}

func TestComputeStatistics_LengthMismatch(t *testing.T) {
	v := &dataset.Variable{Code: "Q5"}

	_, err := NewEngine(DefaultConfig()).ComputeStatistics(v, []dataset.RawValue{1.0, 2.0}, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestComputeStatistics_EmptyColumn(t *testing.T) {
	v := &dataset.Variable{Code: "Q6"}

	s, err := NewEngine(DefaultConfig()).ComputeStatistics(v, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, s.TotalN)
	assert.Empty(t, s.Frequencies)
	assert.Equal(t, 0.0, s.MissingPercentOfTotal)
}

func TestComputeStatistics_AllMissing(t *testing.T) {
	v := &dataset.Variable{Code: "Q7"}
	raw := repeat(nil, 5)

	s, err := NewEngine(DefaultConfig()).ComputeStatistics(v, raw, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, s.ValidN)
	require.Len(t, s.Frequencies, 1)
	assert.Equal(t, 100.0, s.Frequencies[0].PercentOfTotal)
	assert.Equal(t, 0.0, s.Frequencies[0].PercentOfValid)
}

func TestComputeStatistics_Invariants(t *testing.T) {
	v := &dataset.Variable{Code: "Q8", Missing: dataset.MissingPolicy{UserMissing: []dataset.RawValue{0.0}}}
	var raw []dataset.RawValue
	for i := 0; i < 997; i++ {
		switch {
		case i%11 == 0:
			raw = append(raw, nil)
		case i%13 == 0:
			raw = append(raw, 0.0)
		default:
			raw = append(raw, float64(i%17+1))
		}
	}

	s, err := NewEngine(DefaultConfig()).ComputeStatistics(v, raw, len(raw))
	require.NoError(t, err)

	assert.Equal(t, s.TotalN, s.ValidN+s.MissingN)

	sum := 0
	pctTotal := 0.0
	pctValid := 0.0
	for i, f := range s.Frequencies {
		sum += f.Count
		pctTotal += f.PercentOfTotal
		pctValid += f.PercentOfValid
		if f.IsMissing {
			assert.Equal(t, len(s.Frequencies)-1, i, "missing row must be last")
		}
		if i > 0 && !f.IsMissing {
			assert.GreaterOrEqual(t, s.Frequencies[i-1].Count, f.Count)
		}
	}
	assert.Equal(t, s.TotalN, sum)
	assert.InDelta(t, 100, pctTotal, 0.2)
	assert.InDelta(t, 100, pctValid, 0.2)
	assert.Equal(t, s.CategoryCount > stats.ManyCategoriesThreshold, s.HasManyCategories)
	assert.True(t, s.HasManyCategories)
}

func TestComputeStatistics_ManySmallCategoriesSumTo100(t *testing.T) {
	v := &dataset.Variable{Code: "respondent_id", Type: dataset.TypeNumeric}
	raw := make([]dataset.RawValue, 3800)
	for i := range raw {
		raw[i] = float64(i)
	}
	raw[0], raw[1] = nil, nil

	s, err := NewEngine(DefaultConfig()).ComputeStatistics(v, raw, len(raw))
	require.NoError(t, err)
	require.Equal(t, 3798, s.CategoryCount)

	pctTotal, pctValid := 0.0, 0.0
	for _, f := range s.Frequencies {
		pctTotal += f.PercentOfTotal
		pctValid += f.PercentOfValid
	}
	assert.InDelta(t, 100, pctTotal, 0.1)
	assert.InDelta(t, 100, pctValid, 0.1)
	assert.Equal(t, 0.05, s.MissingPercentOfTotal)

	display := 0.0
	for _, f := range SimplifyForDisplay(s, 10) {
		display += f.PercentOfTotal
	}
	assert.InDelta(t, 100, display, 0.1)
}

func TestApportion(t *testing.T) {
	tests := []struct {
		name   string
		counts []int
		whole  int
		want   []float64
	}{
		{"thirds", []int{1, 1, 1}, 3, []float64{33.34, 33.33, 33.33}},
		{"largest remainder wins", []int{1500, 1000, 500, 800}, 3800, []float64{39.47, 26.32, 13.16, 21.05}},
		{"exact", []int{1, 3}, 4, []float64{25, 75}},
		{"empty whole", []int{0, 0}, 0, []float64{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apportion(tt.counts, tt.whole))
		})
	}
}

func TestComputeStatistics_NumericSummary(t *testing.T) {
	v := &dataset.Variable{Code: "age", Type: dataset.TypeNumeric}
	raw := []dataset.RawValue{20.0, 30.0, 40.0, nil, 50.0}

	s, err := NewEngine(DefaultConfig()).ComputeStatistics(v, raw, 5)
	require.NoError(t, err)
	require.NotNil(t, s.Numeric)
	assert.Equal(t, 35.0, s.Numeric.Mean)
	assert.Equal(t, 20.0, s.Numeric.Min)
	assert.Equal(t, 50.0, s.Numeric.Max)
	assert.Equal(t, 35.0, s.Numeric.Median)
}

func TestComputeDataset(t *testing.T) {
	ds := &dataset.Dataset{
		ID:       core.NewDatasetID(),
		RowCount: 4,
		Variables: []dataset.Variable{
			{Code: "a"},
			{Code: "b"},
			{Code: "c"},
		},
		Columns: map[core.VariableCode][]dataset.RawValue{
			"a": {1.0, 1.0, 2.0, nil},
			"b": {"x", "x", "x", "x"},
		},
	}

	engine := NewEngine(Config{Workers: 2, HighMissingPercent: 20})
	all, err := engine.ComputeDataset(context.Background(), ds)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, s := range all {
		assert.Equal(t, ds.Variables[i].Code, s.Code)
		assert.Equal(t, 4, s.TotalN)
	}
	assert.Equal(t, 4, all[2].MissingN)

	report, err := engine.Quality(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, 3, report.VariableCount)
	assert.Contains(t, report.Variables[0].Flags, stats.FlagHighMissing)
	assert.Contains(t, report.Variables[1].Flags, stats.FlagConstant)
	assert.Equal(t, []stats.QualityFlag{stats.FlagEmpty}, report.Variables[2].Flags)
	assert.Equal(t, 41.67, report.MeanMissingPct)
}

func TestComputeDataset_Cancelled(t *testing.T) {
	ds := &dataset.Dataset{RowCount: 1, Variables: []dataset.Variable{{Code: "a"}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(DefaultConfig()).ComputeDataset(ctx, ds)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMissingDetector(t *testing.T) {
	d := NewMissingDetector("nicht gefragt")
	for _, label := range []string{"Don't know", "DON’T KNOW", "Refused", "N/A", "Weiß nicht", "Ne sait pas", "Sans re\u0301ponse", "No sabe", "Nicht gefragt"} {
		assert.True(t, d.IsNonSubstantive(label), label)
	}
	for _, label := range []string{"Yes", "Known brand", "", "Very satisfied"} {
		assert.False(t, d.IsNonSubstantive(label), label)
	}
}

func TestSimplifyForDisplay(t *testing.T) {
	v := &dataset.Variable{Code: "brand"}
	var raw []dataset.RawValue
	for c := 0; c < 15; c++ {
		raw = append(raw, repeat(fmt.Sprintf("brand_%02d", c), 20-c)...)
	}
	raw = append(raw, repeat(nil, 10)...)

	s, err := NewEngine(DefaultConfig()).ComputeStatistics(v, raw, len(raw))
	require.NoError(t, err)
	require.True(t, s.HasManyCategories)

	out := SimplifyForDisplay(s, 10)
	require.Len(t, out, 12)
	other := out[10]
	assert.True(t, other.IsOther)
	assert.Equal(t, "Other (5 categories)", other.Label)
	assert.Equal(t, 10+9+8+7+6, other.Count)
	assert.True(t, out[11].IsMissing)

	sum := 0
	for _, f := range out {
		sum += f.Count
	}
	assert.Equal(t, s.TotalN, sum)

	// input untouched
	assert.Len(t, s.Frequencies, 16)
}

func TestSimplifyForDisplay_FewCategoriesUnchanged(t *testing.T) {
	v := &dataset.Variable{Code: "q"}
	s, err := NewEngine(DefaultConfig()).ComputeStatistics(v, []dataset.RawValue{"a", "b", nil}, 3)
	require.NoError(t, err)

	assert.Equal(t, s.Frequencies, SimplifyForDisplay(s, 0))
	assert.Nil(t, SimplifyForDisplay(nil, 10))
}
