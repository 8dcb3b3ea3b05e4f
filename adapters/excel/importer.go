package excel

import (
	"context"

	"savdash/domain/dataset"
	"savdash/ports"
)

// Importer adapts DataReader to ports.DatasetReader
type Importer struct {
	config ReaderConfig
}

var _ ports.DatasetReader = (*Importer)(nil)

// NewImporter creates an importer that reads every file with config
func NewImporter(config ReaderConfig) *Importer {
	return &Importer{config: config}
}

// Read loads path; an empty name defaults to the file name
func (i *Importer) Read(ctx context.Context, path, name string) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return NewDataReader(path, i.config).ReadDataset(name)
}
