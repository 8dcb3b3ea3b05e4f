package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"savdash/domain/core"
	"savdash/domain/dataset"
	"savdash/ports"
)

// DatasetRepository keeps datasets in process memory. Datasets are read-only
// after ingestion, so stored values share their column slices with callers.
type DatasetRepository struct {
	mu       sync.RWMutex
	datasets map[core.DatasetID]*dataset.Dataset
}

var _ ports.DatasetRepository = (*DatasetRepository)(nil)

// NewDatasetRepository creates an empty in-memory dataset store
func NewDatasetRepository() *DatasetRepository {
	return &DatasetRepository{datasets: make(map[core.DatasetID]*dataset.Dataset)}
}

func (r *DatasetRepository) Save(ctx context.Context, ds *dataset.Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ds == nil || ds.ID == "" {
		return core.NewInvalidInputError("dataset", "missing id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := r.datasets[ds.ID]; ok && ds.CreatedAt.IsZero() {
		ds.CreatedAt = existing.CreatedAt
	}
	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = now
	}
	ds.UpdatedAt = now

	stored := *ds
	r.datasets[ds.ID] = &stored
	return nil
}

func (r *DatasetRepository) Get(ctx context.Context, id core.DatasetID) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	ds, ok := r.datasets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrDatasetNotFound, id)
	}
	out := *ds
	return &out, nil
}

func (r *DatasetRepository) List(ctx context.Context, limit, offset int) ([]dataset.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	summaries := make([]dataset.Summary, 0, len(r.datasets))
	for _, ds := range r.datasets {
		summaries = append(summaries, ds.Summarize())
	}
	r.mu.RUnlock()

	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].ID > summaries[j].ID
		}
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})

	if offset < 0 {
		offset = 0
	}
	if offset >= len(summaries) {
		return []dataset.Summary{}, nil
	}
	summaries = summaries[offset:]
	if limit > 0 && limit < len(summaries) {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

func (r *DatasetRepository) Delete(ctx context.Context, id core.DatasetID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.datasets[id]; !ok {
		return fmt.Errorf("%w: %s", core.ErrDatasetNotFound, id)
	}
	delete(r.datasets, id)
	return nil
}
