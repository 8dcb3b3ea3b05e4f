package testkit

import (
	"fmt"
	"math/rand"
	"time"

	"savdash/domain/core"
	"savdash/domain/dataset"
	"savdash/internal/statistics"
)

// SurveyGeneratorConfig configures the synthetic survey generator
type SurveyGeneratorConfig struct {
	Respondents int       `json:"respondents"`
	MissingRate float64   `json:"missing_rate"` // share of blank answers per question
	StartDate   time.Time `json:"start_date"`
	FieldDays   int       `json:"field_days"`
	Seed        int64     `json:"seed"`
}

// DefaultSurveyConfig returns a small brand-tracker wave
func DefaultSurveyConfig() SurveyGeneratorConfig {
	return SurveyGeneratorConfig{
		Respondents: 500,
		MissingRate: 0.05,
		StartDate:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		FieldDays:   21,
		Seed:        42,
	}
}

// SurveyGenerator builds a labelled survey export with the quirks real
// exports have: user-missing codes, "prefer not to say" answers, a grid
// battery, a long brand list, dates and verbatims.
type SurveyGenerator struct {
	config SurveyGeneratorConfig
	rng    *rand.Rand
}

// NewSurveyGenerator creates a generator; equal seeds give equal datasets
func NewSurveyGenerator(config SurveyGeneratorConfig) *SurveyGenerator {
	if config.Respondents < 0 {
		config.Respondents = 0
	}
	if config.FieldDays <= 0 {
		config.FieldDays = 1
	}
	return &SurveyGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

var brands = []string{
	"Acme", "Borealis", "Cobalt", "Dune", "Ember", "Fjord", "Gale", "Harbor",
	"Ion", "Juniper", "Kestrel", "Lumen", "Meridian", "Nimbus", "Onyx",
}

var gridStatements = []string{
	"The brand is trustworthy",
	"The brand offers good value",
	"The brand is innovative",
}

// Generate builds the dataset with profiled variables
func (g *SurveyGenerator) Generate(name string) *dataset.Dataset {
	n := g.config.Respondents
	ds := &dataset.Dataset{
		ID:        core.NewDatasetID(),
		Name:      name,
		Source:    "synthetic",
		RowCount:  n,
		Columns:   make(map[core.VariableCode][]dataset.RawValue),
		Status:    dataset.StatusReady,
		CreatedAt: time.Now().UTC(),
	}
	ds.UpdatedAt = ds.CreatedAt

	add := func(v dataset.Variable, column []dataset.RawValue) {
		ds.Variables = append(ds.Variables, v)
		ds.Columns[v.Code] = column
	}

	add(dataset.Variable{Code: "respondent_id", Label: "Respondent ID", Type: dataset.TypeNumeric, Measure: dataset.MeasureScale},
		g.column(n, 0, func(i int) dataset.RawValue { return float64(i + 1) }))

	add(dataset.Variable{
		Code: "gender", Label: "Gender", Type: dataset.TypeSingleChoice, Measure: dataset.MeasureNominal,
		ValueLabels: labels("Male", "Female", "Diverse"),
		Missing:     dataset.MissingPolicy{SystemMissing: true, UserMissing: []dataset.RawValue{99.0}},
	}, g.column(n, g.config.MissingRate, func(int) dataset.RawValue {
		if g.rng.Float64() < 0.03 {
			return 99.0
		}
		return g.weighted(0.48, 0.49, 0.03)
	}))

	add(dataset.Variable{Code: "age", Label: "How old are you?", Type: dataset.TypeNumeric, Measure: dataset.MeasureScale},
		g.column(n, g.config.MissingRate, func(int) dataset.RawValue { return float64(18 + g.rng.Intn(62)) }))

	add(dataset.Variable{
		Code: "region", Label: "Region of residence", Type: dataset.TypeSingleChoice, Measure: dataset.MeasureNominal,
		ValueLabels: labels("North", "East", "South", "West", "Central"),
	}, g.column(n, g.config.MissingRate, func(int) dataset.RawValue { return float64(1 + g.rng.Intn(5)) }))

	incomeLabels := labels("Under 20k", "20k to 40k", "40k to 60k", "60k to 80k", "80k to 100k", "Over 100k")
	incomeLabels = append(incomeLabels, dataset.ValueLabel{Value: 9.0, Label: "Prefer not to say"})
	add(dataset.Variable{
		Code: "income", Label: "Household income", Type: dataset.TypeSingleChoice, Measure: dataset.MeasureOrdinal,
		ValueLabels: incomeLabels,
	}, g.column(n, g.config.MissingRate, func(int) dataset.RawValue {
		if g.rng.Float64() < 0.1 {
			return 9.0
		}
		return float64(1 + g.rng.Intn(6))
	}))

	add(dataset.Variable{
		Code: "satisfaction", Label: "Overall satisfaction", Type: dataset.TypeScale, Measure: dataset.MeasureOrdinal,
		ValueLabels: labels("Very dissatisfied", "Dissatisfied", "Neutral", "Satisfied", "Very satisfied"),
	}, g.column(n, g.config.MissingRate, func(int) dataset.RawValue { return g.weighted(0.05, 0.1, 0.25, 0.4, 0.2) }))

	add(dataset.Variable{
		Code: "brand_used", Label: "Which brand did you use most recently?", Type: dataset.TypeSingleChoice, Measure: dataset.MeasureNominal,
		ValueLabels: labels(brands...),
	}, g.column(n, g.config.MissingRate, func(int) dataset.RawValue {
		// Skewed towards the first brands so the tail is long and thin.
		return float64(1 + int(float64(len(brands))*g.rng.Float64()*g.rng.Float64()))
	}))

	for i, statement := range gridStatements {
		add(dataset.Variable{
			Code:        core.VariableCode(fmt.Sprintf("q10_%d", i+1)),
			Label:       "Agreement: " + statement,
			Type:        dataset.TypeSingleChoice,
			Measure:     dataset.MeasureOrdinal,
			ValueLabels: labels("Disagree", "Somewhat disagree", "Somewhat agree", "Agree"),
		}, g.column(n, g.config.MissingRate, func(int) dataset.RawValue { return float64(1 + g.rng.Intn(4)) }))
	}

	add(dataset.Variable{Code: "interview_date", Label: "Interview date", Type: dataset.TypeDate, Measure: dataset.MeasureScale},
		g.column(n, 0, func(int) dataset.RawValue {
			return g.config.StartDate.AddDate(0, 0, g.rng.Intn(g.config.FieldDays)).Format("2006-01-02")
		}))

	add(dataset.Variable{Code: "comments", Label: "Any other comments?", Type: dataset.TypeText, Measure: dataset.MeasureNominal},
		g.column(n, 0.6, func(i int) dataset.RawValue { return fmt.Sprintf("comment %d", i+1) }))

	Profile(ds)
	return ds
}

// column draws one value per row, blanking a share of missingRate
func (g *SurveyGenerator) column(n int, missingRate float64, draw func(i int) dataset.RawValue) []dataset.RawValue {
	out := make([]dataset.RawValue, n)
	for i := range out {
		if missingRate > 0 && g.rng.Float64() < missingRate {
			continue
		}
		out[i] = draw(i)
	}
	return out
}

// weighted returns a 1-based code drawn with the given weights
func (g *SurveyGenerator) weighted(weights ...float64) dataset.RawValue {
	var total float64
	for _, w := range weights {
		total += w
	}
	r := g.rng.Float64() * total
	for i, w := range weights {
		if r < w {
			return float64(i + 1)
		}
		r -= w
	}
	return float64(len(weights))
}

func labels(texts ...string) []dataset.ValueLabel {
	out := make([]dataset.ValueLabel, len(texts))
	for i, t := range texts {
		out[i] = dataset.ValueLabel{Value: float64(i + 1), Label: t}
	}
	return out
}

// Profile fills cardinality and response figures from the columns using the
// statistics engine's missing rules.
func Profile(ds *dataset.Dataset) {
	engine := statistics.NewEngine(statistics.DefaultConfig())
	for i := range ds.Variables {
		v := &ds.Variables[i]
		column, ok := ds.Column(v.Code)
		if !ok {
			continue
		}
		s, err := engine.ComputeStatistics(v, column, ds.RowCount)
		if err != nil {
			continue
		}
		v.Cardinality = s.CategoryCount
		v.ResponseCount = s.ValidN
		if ds.RowCount > 0 {
			v.ResponseRate = float64(s.ValidN) / float64(ds.RowCount)
		}
	}
}
