package statistics

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"savdash/domain/dataset"
	"savdash/domain/stats"
	"savdash/internal/errors"
)

// ComputeDataset computes statistics for every variable of ds in catalog order.
// Work fans out over at most Config.Workers goroutines.
func (e *Engine) ComputeDataset(ctx context.Context, ds *dataset.Dataset) ([]*stats.VariableStatistics, error) {
	if ds == nil {
		return nil, errors.InvalidInput("dataset is required", nil)
	}

	results := make([]*stats.VariableStatistics, len(ds.Variables))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.Workers)

	for i := range ds.Variables {
		v := &ds.Variables[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			column, ok := ds.Column(v.Code)
			if !ok {
				column = make([]dataset.RawValue, ds.RowCount)
			}
			s, err := e.ComputeStatistics(v, column, ds.RowCount)
			if err != nil {
				return err
			}
			results[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Every variable of a dataset must report the same base.
	for _, s := range results {
		if s.TotalN != ds.RowCount {
			return nil, errors.InternalError(fmt.Sprintf("variable %s reports total %d, dataset has %d rows", s.Code, s.TotalN, ds.RowCount))
		}
	}

	zap.L().Debug("computed dataset statistics",
		zap.String("dataset_id", ds.ID.String()),
		zap.Int("variables", len(results)),
		zap.Int("rows", ds.RowCount))

	return results, nil
}

// Quality builds a variable-level quality report for ds
func (e *Engine) Quality(ctx context.Context, ds *dataset.Dataset) (*stats.QualityReport, error) {
	all, err := e.ComputeDataset(ctx, ds)
	if err != nil {
		return nil, err
	}

	report := &stats.QualityReport{
		DatasetID:     ds.ID,
		TotalN:        ds.RowCount,
		VariableCount: len(all),
		Variables:     make([]stats.VariableQuality, 0, len(all)),
	}
	missingPcts := make([]float64, 0, len(all))

	for i, s := range all {
		v := ds.Variables[i]
		q := stats.VariableQuality{
			Code:           s.Code,
			Label:          v.Label,
			Type:           v.Type,
			ValidN:         s.ValidN,
			MissingN:       s.MissingN,
			MissingPercent: s.MissingPercentOfTotal,
			CategoryCount:  s.CategoryCount,
			ResponseRate:   responseRate(s.ValidN, s.TotalN),
			Flags:          e.flagsFor(s),
		}
		report.Variables = append(report.Variables, q)
		missingPcts = append(missingPcts, s.MissingPercentOfTotal)
	}
	if len(missingPcts) > 0 {
		report.MeanMissingPct = round2(stat.Mean(missingPcts, nil))
	}
	return report, nil
}

func (e *Engine) flagsFor(s *stats.VariableStatistics) []stats.QualityFlag {
	var flags []stats.QualityFlag
	if s.ValidN == 0 {
		return append(flags, stats.FlagEmpty)
	}
	if s.MissingPercentOfTotal > e.config.HighMissingPercent {
		flags = append(flags, stats.FlagHighMissing)
	}
	if s.HasManyCategories {
		flags = append(flags, stats.FlagManyCategories)
	}
	if s.CategoryCount == 1 {
		flags = append(flags, stats.FlagConstant)
	}
	return flags
}

// responseRate is the valid share as a fraction, matching dataset.Variable
func responseRate(valid, total int) float64 {
	if total == 0 {
		return 0
	}
	return round4(float64(valid) / float64(total))
}
