package ports

import (
	"context"

	"savdash/domain/core"
	"savdash/domain/dataset"
)

// DatasetRepository defines the interface for dataset storage operations
type DatasetRepository interface {
	// Save inserts or replaces a dataset with its raw response matrix
	Save(ctx context.Context, ds *dataset.Dataset) error
	// Get returns core.ErrDatasetNotFound when id is unknown
	Get(ctx context.Context, id core.DatasetID) (*dataset.Dataset, error)
	// List returns summaries, newest first
	List(ctx context.Context, limit, offset int) ([]dataset.Summary, error)
	Delete(ctx context.Context, id core.DatasetID) error
}
