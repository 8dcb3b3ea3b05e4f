package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"savdash/domain/core"
	"savdash/domain/dataset"
	"savdash/internal/errors"
	"savdash/ports"
)

const (
	defaultRowLimit = 50
	maxRowLimit     = 500
)

// DatasetService imports survey exports and serves them back
type DatasetService struct {
	repo   ports.DatasetRepository
	reader ports.DatasetReader
}

// RowsPage is one page of respondent records
type RowsPage struct {
	DatasetID core.DatasetID                           `json:"dataset_id"`
	Total     int                                      `json:"total"`
	Offset    int                                      `json:"offset"`
	Limit     int                                      `json:"limit"`
	Rows      []map[core.VariableCode]dataset.RawValue `json:"rows"`
}

// NewDatasetService creates a dataset service
func NewDatasetService(repo ports.DatasetRepository, reader ports.DatasetReader) *DatasetService {
	return &DatasetService{repo: repo, reader: reader}
}

// Import reads the file at path and stores it as a new dataset
func (s *DatasetService) Import(ctx context.Context, name, path string) (*dataset.Dataset, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.InvalidInput("path is required", core.NewInvalidInputError("path", "empty"))
	}

	ds, err := s.reader.Read(ctx, path, name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	if err := s.Store(ctx, ds); err != nil {
		return nil, err
	}

	zap.L().Info("dataset imported",
		zap.String("dataset_id", ds.ID.String()),
		zap.String("name", ds.Name),
		zap.Int("rows", ds.RowCount),
		zap.Int("variables", len(ds.Variables)))
	return ds, nil
}

// Store saves an already built dataset, assigning an id when missing
func (s *DatasetService) Store(ctx context.Context, ds *dataset.Dataset) error {
	if ds == nil {
		return errors.InvalidInput("dataset is required", core.NewInvalidInputError("dataset", "nil"))
	}
	if ds.ID == "" {
		ds.ID = core.NewDatasetID()
	}
	if ds.Status == "" {
		ds.Status = dataset.StatusReady
	}
	if err := s.repo.Save(ctx, ds); err != nil {
		return errors.Wrap(err, "failed to save dataset")
	}
	return nil
}

// Get returns a dataset with its response matrix
func (s *DatasetService) Get(ctx context.Context, id core.DatasetID) (*dataset.Dataset, error) {
	ds, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load dataset %s", id)
	}
	return ds, nil
}

// List returns dataset summaries, newest first
func (s *DatasetService) List(ctx context.Context, limit, offset int) ([]dataset.Summary, error) {
	list, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list datasets")
	}
	return list, nil
}

// Rows pages through respondent records. Limit defaults to 50 and is capped at 500.
func (s *DatasetService) Rows(ctx context.Context, id core.DatasetID, offset, limit int) (*RowsPage, error) {
	if offset < 0 {
		return nil, errors.InvalidInput("offset must not be negative", core.NewInvalidInputError("offset", fmt.Sprint(offset)))
	}
	if limit <= 0 {
		limit = defaultRowLimit
	}
	if limit > maxRowLimit {
		limit = maxRowLimit
	}

	ds, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	page := &RowsPage{
		DatasetID: ds.ID,
		Total:     ds.RowCount,
		Offset:    offset,
		Limit:     limit,
		Rows:      []map[core.VariableCode]dataset.RawValue{},
	}
	for i := offset; i < ds.RowCount && i < offset+limit; i++ {
		page.Rows = append(page.Rows, ds.Row(i))
	}
	return page, nil
}
