package memory

import (
	"context"
	"testing"
	"time"

	"savdash/domain/core"
	"savdash/domain/dataset"
	"savdash/domain/filter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewDatasetRepository()

	older := &dataset.Dataset{ID: "a", Name: "older", RowCount: 2, Status: dataset.StatusReady,
		Variables: []dataset.Variable{{Code: "q1"}}, CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	newer := &dataset.Dataset{ID: "b", Name: "newer", Status: dataset.StatusReady,
		CreatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, repo.Save(ctx, older))
	require.NoError(t, repo.Save(ctx, newer))

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "older", got.Name)

	list, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, core.DatasetID("b"), list[0].ID)
	assert.Equal(t, 1, list[1].VariableCount)

	page, err := repo.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, core.DatasetID("a"), page[0].ID)

	empty, err := repo.List(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, repo.Delete(ctx, "a"))
	_, err = repo.Get(ctx, "a")
	assert.ErrorIs(t, err, core.ErrDatasetNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "a"), core.ErrDatasetNotFound)
}

func TestDatasetRepositoryRejectsMissingID(t *testing.T) {
	err := NewDatasetRepository().Save(context.Background(), &dataset.Dataset{})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestSessionRepositoryIsolation(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()

	s := filter.NewSession("ds")
	s.Filters = []filter.SmartFilter{{ID: "f1", SourceVars: []core.VariableCode{"q1"}}}
	require.NoError(t, repo.Create(ctx, s))
	assert.ErrorIs(t, repo.Create(ctx, s), core.ErrInvalidInput)

	// Mutating the caller's copy does not leak into the store.
	s.Filters[0].SourceVars[0] = "changed"
	got, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, core.VariableCode("q1"), got.Filters[0].SourceVars[0])

	got.Filters = append(got.Filters, filter.SmartFilter{ID: "f2"})
	require.NoError(t, repo.Save(ctx, got))
	again, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, again.Filters, 2)

	list, err := repo.ListByDataset(ctx, "ds")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	none, err := repo.ListByDataset(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
	assert.ErrorIs(t, repo.Save(ctx, &filter.Session{ID: "missing"}), core.ErrSessionNotFound)
}

func TestRepositoriesHonourCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDatasetRepository().Get(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = NewSessionRepository().ListByDataset(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
}
