package statistics

import (
	"math"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"savdash/domain/stats"
	"savdash/internal/errors"
)

// Describe summarises a numeric sample. The standard deviation is the sample
// estimate and is 0 for a single observation.
func Describe(values []float64) (*stats.NumericSummary, error) {
	if len(values) == 0 {
		return nil, errors.InvalidInput("cannot describe an empty sample", mstats.ErrEmptyInput)
	}

	data := mstats.Float64Data(values)
	minV, err := data.Min()
	if err != nil {
		return nil, errors.Wrap(err, "min")
	}
	maxV, err := data.Max()
	if err != nil {
		return nil, errors.Wrap(err, "max")
	}
	median, err := data.Median()
	if err != nil {
		return nil, errors.Wrap(err, "median")
	}
	q, err := mstats.Quartile(data)
	if err != nil {
		// Quartile needs at least two observations.
		q = mstats.Quartiles{Q1: median, Q2: median, Q3: median}
	}

	mean := stat.Mean(values, nil)
	std := 0.0
	if len(values) > 1 {
		std = stat.StdDev(values, nil)
	}
	if math.IsNaN(std) {
		std = 0
	}

	return &stats.NumericSummary{
		Mean:   round4(mean),
		StdDev: round4(std),
		Min:    minV,
		Q1:     q.Q1,
		Median: median,
		Q3:     q.Q3,
		Max:    maxV,
	}, nil
}

func round4(f float64) float64 {
	return math.Round(f*1e4) / 1e4
}
