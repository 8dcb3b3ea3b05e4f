package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"savdash/domain/core"
	"savdash/domain/filter"
	"savdash/ports"
)

// SessionRepository keeps filter sessions in process memory. Filters are
// copied on the way in and out so callers never share a working set.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*filter.Session
}

var _ ports.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository creates an empty in-memory session store
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[core.SessionID]*filter.Session)}
}

func (r *SessionRepository) Create(ctx context.Context, s *filter.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.ID == "" {
		return core.NewInvalidInputError("session", "missing id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[s.ID]; exists {
		return core.NewInvalidInputError("session", "already exists: "+string(s.ID))
	}
	r.sessions[s.ID] = copySession(s)
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, id core.SessionID) (*filter.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrSessionNotFound, id)
	}
	return copySession(s), nil
}

func (r *SessionRepository) Save(ctx context.Context, s *filter.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s.ID]; !ok {
		return fmt.Errorf("%w: %s", core.ErrSessionNotFound, s.ID)
	}
	s.UpdatedAt = core.Now()
	r.sessions[s.ID] = copySession(s)
	return nil
}

func (r *SessionRepository) ListByDataset(ctx context.Context, datasetID core.DatasetID) ([]*filter.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]*filter.Session, 0)
	for _, s := range r.sessions {
		if s.DatasetID == datasetID {
			out = append(out, copySession(s))
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].CreatedAt.Time(), out[j].CreatedAt.Time()
		if ti.Equal(tj) {
			return out[i].ID < out[j].ID
		}
		return ti.Before(tj)
	})
	return out, nil
}

func copySession(s *filter.Session) *filter.Session {
	out := *s
	out.Filters = make([]filter.SmartFilter, len(s.Filters))
	for i, f := range s.Filters {
		out.Filters[i] = f.Clone()
	}
	return &out
}
