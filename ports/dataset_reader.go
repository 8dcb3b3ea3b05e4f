package ports

import (
	"context"

	"savdash/domain/dataset"
)

// DatasetReader loads a survey export from a local file
type DatasetReader interface {
	Read(ctx context.Context, path, name string) (*dataset.Dataset, error)
}
