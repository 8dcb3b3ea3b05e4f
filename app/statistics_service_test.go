package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"savdash/domain/core"
	"savdash/domain/stats"
	apperrors "savdash/internal/errors"
	"savdash/internal/statistics"
	"savdash/internal/testkit"
)

func newStatisticsService(t *testing.T) (*StatisticsService, *testkit.TestKit) {
	t.Helper()
	kit, err := testkit.NewTestKit()
	require.NoError(t, err)
	return NewStatisticsService(kit.Datasets, statistics.NewEngine(statistics.DefaultConfig()), 0), kit
}

func TestStatisticsService_VariableStatistics(t *testing.T) {
	svc, kit := newStatisticsService(t)
	ctx := context.Background()

	view, err := svc.VariableStatistics(ctx, kit.Survey.ID, "brand_used", 5)
	require.NoError(t, err)
	assert.Equal(t, kit.Survey.RowCount, view.Statistics.TotalN)
	assert.Equal(t, view.Statistics.ValidN+view.Statistics.MissingN, view.Statistics.TotalN)
	assert.Equal(t, 5, view.TopN)

	if view.Statistics.HasManyCategories {
		// top 5, one "Other" row, optionally the missing row
		assert.LessOrEqual(t, len(view.Display), 7)
		assert.True(t, view.Display[5].IsOther)
	}

	view, err = svc.VariableStatistics(ctx, kit.Survey.ID, "gender", 0)
	require.NoError(t, err)
	assert.Equal(t, statistics.DefaultTopN, view.TopN)
	missing, ok := view.Statistics.MissingEntry()
	require.True(t, ok)
	assert.Equal(t, stats.MissingLabel, missing.Label)
	assert.Equal(t, view.Statistics.Frequencies, view.Display)
}

func TestStatisticsService_Errors(t *testing.T) {
	svc, kit := newStatisticsService(t)
	ctx := context.Background()

	_, err := svc.VariableStatistics(ctx, kit.Survey.ID, "nope", 0)
	assert.ErrorIs(t, err, core.ErrVariableNotFound)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetCode(err))

	_, err = svc.VariableStatistics(ctx, "missing", "gender", 0)
	assert.ErrorIs(t, err, core.ErrDatasetNotFound)

	_, err = svc.Quality(ctx, "missing")
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetCode(err))
}

func TestStatisticsService_QualityAndAll(t *testing.T) {
	svc, kit := newStatisticsService(t)
	ctx := context.Background()

	report, err := svc.Quality(ctx, kit.Survey.ID)
	require.NoError(t, err)
	assert.Equal(t, len(kit.Survey.Variables), report.VariableCount)
	assert.Equal(t, kit.Survey.RowCount, report.TotalN)

	flags := map[core.VariableCode][]stats.QualityFlag{}
	for _, v := range report.Variables {
		flags[v.Code] = v.Flags
	}
	assert.Contains(t, flags["comments"], stats.FlagHighMissing)
	assert.Contains(t, flags["respondent_id"], stats.FlagManyCategories)

	ds, all, err := svc.AllStatistics(ctx, kit.Survey.ID)
	require.NoError(t, err)
	require.Len(t, all, len(ds.Variables))
	for i, s := range all {
		assert.Equal(t, ds.Variables[i].Code, s.Code)
	}
}
