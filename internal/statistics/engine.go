package statistics

import (
	"fmt"
	"math"
	"sort"

	"savdash/domain/core"
	"savdash/domain/dataset"
	"savdash/domain/stats"
	"savdash/internal/errors"
)

// Config tunes the statistics engine
type Config struct {
	// Workers bounds the fan-out of dataset-wide computations.
	Workers int
	// HighMissingPercent is the missing share above which a variable is flagged.
	HighMissingPercent float64
	// ExtraMissingPhrases extends the non-substantive label list.
	ExtraMissingPhrases []string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Workers:            4,
		HighMissingPercent: 20,
	}
}

// Engine computes frequency statistics for survey variables. ComputeStatistics
// is pure and safe for concurrent use.
type Engine struct {
	config  Config
	missing *MissingDetector
}

// NewEngine creates a statistics engine
func NewEngine(config Config) *Engine {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	return &Engine{
		config:  config,
		missing: NewMissingDetector(config.ExtraMissingPhrases...),
	}
}

// Missing exposes the engine's missing-value detector
func (e *Engine) Missing() *MissingDetector {
	return e.missing
}

type valueGroup struct {
	key   string
	value dataset.RawValue
	count int
}

// ComputeStatistics derives counts and percentages for one variable. rawValues
// must hold exactly totalRowCount entries in dataset row order.
func (e *Engine) ComputeStatistics(v *dataset.Variable, rawValues []dataset.RawValue, totalRowCount int) (*stats.VariableStatistics, error) {
	if v == nil {
		return nil, errors.InvalidInput("variable is required", core.NewInvalidInputError("variable", "nil"))
	}
	if totalRowCount < 0 {
		return nil, errors.InvalidInput("negative row count",
			core.NewInvalidInputError("total_row_count", fmt.Sprintf("%d", totalRowCount)))
	}
	if len(rawValues) != totalRowCount {
		return nil, errors.InvalidInput(
			fmt.Sprintf("variable %s: raw value count does not match row count", v.Code),
			core.NewInvalidInputError("raw_values", fmt.Sprintf("got %d values for %d rows", len(rawValues), totalRowCount)),
		)
	}

	explicit := e.missing.ExplicitSet(v)

	missingN := 0
	index := make(map[string]int)
	groups := []valueGroup{}
	for _, raw := range rawValues {
		if IsMissing(raw, explicit) {
			missingN++
			continue
		}
		key, _ := dataset.ValueKey(raw)
		if i, ok := index[key]; ok {
			groups[i].count++
			continue
		}
		index[key] = len(groups)
		groups = append(groups, valueGroup{key: key, value: raw, count: 1})
	}
	validN := totalRowCount - missingN

	// Stable sort keeps first-appearance order among equal counts.
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].count > groups[j].count
	})

	counts := make([]int, len(groups), len(groups)+1)
	for i, g := range groups {
		counts[i] = g.count
	}
	ofValid := apportion(counts, validN)
	if missingN > 0 {
		counts = append(counts, missingN)
	}
	ofTotal := apportion(counts, totalRowCount)

	frequencies := make([]stats.FrequencyItem, 0, len(groups)+1)
	for i, g := range groups {
		label, ok := v.LabelFor(g.value)
		if !ok {
			label = g.key
		}
		frequencies = append(frequencies, stats.FrequencyItem{
			Value:          g.value,
			Label:          label,
			Count:          g.count,
			PercentOfTotal: ofTotal[i],
			PercentOfValid: ofValid[i],
		})
	}
	var missingPct float64
	if missingN > 0 {
		missingPct = ofTotal[len(groups)]
		frequencies = append(frequencies, stats.FrequencyItem{
			Value:          nil,
			Label:          stats.MissingLabel,
			Count:          missingN,
			PercentOfTotal: missingPct,
			PercentOfValid: 0,
			IsMissing:      true,
		})
	}

	result := &stats.VariableStatistics{
		Code:                  v.Code,
		TotalN:                totalRowCount,
		ValidN:                validN,
		MissingN:              missingN,
		MissingPercentOfTotal: missingPct,
		Frequencies:           frequencies,
		CategoryCount:         len(groups),
		HasManyCategories:     len(groups) > stats.ManyCategoriesThreshold,
	}

	if v.Type == dataset.TypeNumeric || v.Type == dataset.TypeScale {
		if values, ok := numericValues(rawValues, explicit); ok && len(values) > 0 {
			summary, err := Describe(values)
			if err == nil {
				result.Numeric = summary
			}
		}
	}

	return result, nil
}

// numericValues collects the valid values as floats; false if any valid value
// is not numeric.
func numericValues(rawValues []dataset.RawValue, explicit map[string]bool) ([]float64, bool) {
	values := make([]float64, 0, len(rawValues))
	for _, raw := range rawValues {
		if IsMissing(raw, explicit) {
			continue
		}
		f, ok := dataset.AsFloat(raw)
		if !ok {
			return nil, false
		}
		values = append(values, f)
	}
	return values, true
}

// apportion converts counts into percentages of whole with two decimals.
// Shares are floored to hundredths of a percent and the leftover hundredths go
// to the largest remainders (earlier index first on ties), so when counts sum
// to whole the result sums to exactly 100.
func apportion(counts []int, whole int) []float64 {
	out := make([]float64, len(counts))
	if whole <= 0 {
		return out
	}

	const scale = 10000 // hundredths of a percent
	units := make([]int64, len(counts))
	rems := make([]int64, len(counts))
	left := int64(scale)
	for i, c := range counts {
		n := int64(c) * scale
		units[i] = n / int64(whole)
		rems[i] = n % int64(whole)
		left -= units[i]
	}

	order := make([]int, len(counts))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return rems[order[a]] > rems[order[b]]
	})
	for _, i := range order {
		if left <= 0 {
			break
		}
		if rems[i] == 0 {
			break
		}
		units[i]++
		left--
	}

	for i, u := range units {
		out[i] = float64(u) / 100
	}
	return out
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
