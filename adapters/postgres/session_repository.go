package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"savdash/domain/core"
	"savdash/domain/filter"
	"savdash/ports"

	"github.com/jmoiron/sqlx"
)

// sessionRepository implements the SessionRepository interface
type sessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new filter session repository
func NewSessionRepository(db *sqlx.DB) ports.SessionRepository {
	return &sessionRepository{db: db}
}

type sessionRow struct {
	ID        string    `db:"id"`
	DatasetID string    `db:"dataset_id"`
	Filters   []byte    `db:"filters"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Create inserts a new filter session
func (r *sessionRepository) Create(ctx context.Context, s *filter.Session) error {
	filtersJSON, err := marshalFilters(s.Filters)
	if err != nil {
		return err
	}

	query := `INSERT INTO filter_sessions (id, dataset_id, filters, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5)`

	_, err = r.db.ExecContext(ctx, query,
		string(s.ID), string(s.DatasetID), filtersJSON, s.CreatedAt.Time(), s.UpdatedAt.Time(),
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID
func (r *sessionRepository) Get(ctx context.Context, id core.SessionID) (*filter.Session, error) {
	query := `SELECT id, dataset_id, filters, created_at, updated_at
	FROM filter_sessions WHERE id = $1`

	var row sessionRow
	if err := r.db.GetContext(ctx, &row, query, string(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", core.ErrSessionNotFound, id)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return row.toDomain()
}

// Save replaces the working set of an existing session
func (r *sessionRepository) Save(ctx context.Context, s *filter.Session) error {
	filtersJSON, err := marshalFilters(s.Filters)
	if err != nil {
		return err
	}
	s.UpdatedAt = core.Now()

	result, err := r.db.ExecContext(ctx,
		`UPDATE filter_sessions SET filters = $2, updated_at = $3 WHERE id = $1`,
		string(s.ID), filtersJSON, s.UpdatedAt.Time(),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", core.ErrSessionNotFound, s.ID)
	}
	return nil
}

// ListByDataset returns the sessions of a dataset, oldest first
func (r *sessionRepository) ListByDataset(ctx context.Context, datasetID core.DatasetID) ([]*filter.Session, error) {
	query := `SELECT id, dataset_id, filters, created_at, updated_at
	FROM filter_sessions WHERE dataset_id = $1
	ORDER BY created_at ASC`

	var rows []sessionRow
	if err := r.db.SelectContext(ctx, &rows, query, string(datasetID)); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := make([]*filter.Session, 0, len(rows))
	for _, row := range rows {
		s, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func marshalFilters(filters []filter.SmartFilter) ([]byte, error) {
	if filters == nil {
		filters = []filter.SmartFilter{}
	}
	b, err := json.Marshal(filters)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal filters: %w", err)
	}
	return b, nil
}

func (row sessionRow) toDomain() (*filter.Session, error) {
	s := &filter.Session{
		ID:        core.SessionID(row.ID),
		DatasetID: core.DatasetID(row.DatasetID),
		Filters:   []filter.SmartFilter{},
		CreatedAt: core.NewTimestamp(row.CreatedAt),
		UpdatedAt: core.NewTimestamp(row.UpdatedAt),
	}
	if len(row.Filters) > 0 {
		if err := json.Unmarshal(row.Filters, &s.Filters); err != nil {
			return nil, fmt.Errorf("failed to unmarshal filters: %w", err)
		}
	}
	return s, nil
}
