package app

import (
	"context"
	"fmt"

	"savdash/domain/core"
	"savdash/domain/dataset"
	"savdash/domain/stats"
	"savdash/internal/errors"
	"savdash/internal/statistics"
	"savdash/ports"
)

// StatisticsService serves frequency tables and quality reports
type StatisticsService struct {
	repo   ports.DatasetRepository
	engine *statistics.Engine
	topN   int
}

// VariableStatisticsView is the full statistics of a variable plus the
// simplified rows a dashboard renders.
type VariableStatisticsView struct {
	Variable   dataset.Variable          `json:"variable"`
	Statistics *stats.VariableStatistics `json:"statistics"`
	Display    []stats.FrequencyItem     `json:"display"`
	TopN       int                       `json:"top_n"`
}

// NewStatisticsService creates a statistics service; topN <= 0 uses the display default
func NewStatisticsService(repo ports.DatasetRepository, engine *statistics.Engine, topN int) *StatisticsService {
	if topN <= 0 {
		topN = statistics.DefaultTopN
	}
	return &StatisticsService{repo: repo, engine: engine, topN: topN}
}

// VariableStatistics computes the statistics of one variable. topN <= 0 uses
// the service default.
func (s *StatisticsService) VariableStatistics(ctx context.Context, datasetID core.DatasetID, code core.VariableCode, topN int) (*VariableStatisticsView, error) {
	ds, err := s.repo.Get(ctx, datasetID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load dataset %s", datasetID)
	}

	v, ok := ds.Variable(code)
	if !ok {
		return nil, errors.Wrap(fmt.Errorf("%w: %s", core.ErrVariableNotFound, code), "unknown variable")
	}
	column, ok := ds.Column(code)
	if !ok {
		column = make([]dataset.RawValue, ds.RowCount)
	}

	result, err := s.engine.ComputeStatistics(v, column, ds.RowCount)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to compute statistics for %s", code)
	}

	if topN <= 0 {
		topN = s.topN
	}
	return &VariableStatisticsView{
		Variable:   *v,
		Statistics: result,
		Display:    statistics.SimplifyForDisplay(result, topN),
		TopN:       topN,
	}, nil
}

// AllStatistics computes every variable of a dataset, in catalog order
func (s *StatisticsService) AllStatistics(ctx context.Context, datasetID core.DatasetID) (*dataset.Dataset, []*stats.VariableStatistics, error) {
	ds, err := s.repo.Get(ctx, datasetID)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to load dataset %s", datasetID)
	}
	all, err := s.engine.ComputeDataset(ctx, ds)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to compute dataset statistics")
	}
	return ds, all, nil
}

// Quality builds the per-variable quality report of a dataset
func (s *StatisticsService) Quality(ctx context.Context, datasetID core.DatasetID) (*stats.QualityReport, error) {
	ds, err := s.repo.Get(ctx, datasetID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load dataset %s", datasetID)
	}
	report, err := s.engine.Quality(ctx, ds)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build quality report")
	}
	return report, nil
}
