package ports

import (
	"context"

	"savdash/domain/core"
	"savdash/domain/filter"
)

// SessionRepository stores the per-user filter working sets
type SessionRepository interface {
	Create(ctx context.Context, s *filter.Session) error
	// Get returns core.ErrSessionNotFound when id is unknown
	Get(ctx context.Context, id core.SessionID) (*filter.Session, error)
	// Save replaces the stored working set and bumps UpdatedAt
	Save(ctx context.Context, s *filter.Session) error
	ListByDataset(ctx context.Context, datasetID core.DatasetID) ([]*filter.Session, error)
}
