package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"savdash/domain/core"
	"savdash/domain/dataset"
	"savdash/ports"

	"github.com/jmoiron/sqlx"
)

// datasetRepository implements the DatasetRepository interface
type datasetRepository struct {
	db *sqlx.DB
}

// NewDatasetRepository creates a new dataset repository
func NewDatasetRepository(db *sqlx.DB) ports.DatasetRepository {
	return &datasetRepository{db: db}
}

type datasetRow struct {
	ID               string    `db:"id"`
	Name             string    `db:"name"`
	OriginalFilename string    `db:"original_filename"`
	Source           string    `db:"source"`
	RowCount         int       `db:"row_count"`
	Variables        []byte    `db:"variables"`
	Columns          []byte    `db:"columns"`
	Status           string    `db:"status"`
	ErrorMessage     string    `db:"error_message"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

type summaryRow struct {
	ID            string    `db:"id"`
	Name          string    `db:"name"`
	RowCount      int       `db:"row_count"`
	VariableCount int       `db:"variable_count"`
	Status        string    `db:"status"`
	CreatedAt     time.Time `db:"created_at"`
}

// Save inserts a dataset or replaces the stored one with the same id
func (r *datasetRepository) Save(ctx context.Context, ds *dataset.Dataset) error {
	variablesJSON, err := json.Marshal(ds.Variables)
	if err != nil {
		return fmt.Errorf("failed to marshal variables: %w", err)
	}
	columnsJSON, err := json.Marshal(ds.Columns)
	if err != nil {
		return fmt.Errorf("failed to marshal columns: %w", err)
	}

	now := time.Now().UTC()
	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = now
	}
	ds.UpdatedAt = now

	query := `INSERT INTO datasets (
		id, name, original_filename, source, row_count, variables, columns,
		status, error_message, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
	)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		original_filename = EXCLUDED.original_filename,
		source = EXCLUDED.source,
		row_count = EXCLUDED.row_count,
		variables = EXCLUDED.variables,
		columns = EXCLUDED.columns,
		status = EXCLUDED.status,
		error_message = EXCLUDED.error_message,
		updated_at = EXCLUDED.updated_at`

	_, err = r.db.ExecContext(ctx, query,
		string(ds.ID), ds.Name, ds.OriginalFilename, ds.Source, ds.RowCount, variablesJSON, columnsJSON,
		string(ds.Status), ds.ErrorMessage, ds.CreatedAt, ds.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save dataset: %w", err)
	}

	return nil
}

// Get retrieves a dataset with its response matrix
func (r *datasetRepository) Get(ctx context.Context, id core.DatasetID) (*dataset.Dataset, error) {
	query := `SELECT
		id, name, original_filename, source, row_count, variables, columns,
		status, error_message, created_at, updated_at
	FROM datasets WHERE id = $1`

	var row datasetRow
	if err := r.db.GetContext(ctx, &row, query, string(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", core.ErrDatasetNotFound, id)
		}
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}

	return row.toDomain()
}

// List returns dataset summaries ordered by creation time, newest first
func (r *datasetRepository) List(ctx context.Context, limit, offset int) ([]dataset.Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT
		id, name, row_count, jsonb_array_length(variables) AS variable_count, status, created_at
	FROM datasets
	ORDER BY created_at DESC
	LIMIT $1 OFFSET $2`

	var rows []summaryRow
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}

	summaries := make([]dataset.Summary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, dataset.Summary{
			ID:            core.DatasetID(row.ID),
			Name:          row.Name,
			RowCount:      row.RowCount,
			VariableCount: row.VariableCount,
			Status:        dataset.DatasetStatus(row.Status),
			CreatedAt:     row.CreatedAt,
		})
	}
	return summaries, nil
}

// Delete removes a dataset; its filter sessions cascade
func (r *datasetRepository) Delete(ctx context.Context, id core.DatasetID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = $1`, string(id))
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", core.ErrDatasetNotFound, id)
	}

	return nil
}

func (row datasetRow) toDomain() (*dataset.Dataset, error) {
	ds := &dataset.Dataset{
		ID:               core.DatasetID(row.ID),
		Name:             row.Name,
		OriginalFilename: row.OriginalFilename,
		Source:           row.Source,
		RowCount:         row.RowCount,
		Status:           dataset.DatasetStatus(row.Status),
		ErrorMessage:     row.ErrorMessage,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
	if len(row.Variables) > 0 {
		if err := json.Unmarshal(row.Variables, &ds.Variables); err != nil {
			return nil, fmt.Errorf("failed to unmarshal variables: %w", err)
		}
	}
	if len(row.Columns) > 0 {
		if err := json.Unmarshal(row.Columns, &ds.Columns); err != nil {
			return nil, fmt.Errorf("failed to unmarshal columns: %w", err)
		}
	}
	return ds, nil
}
