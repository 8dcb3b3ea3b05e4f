package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"savdash/adapters/export"
	"savdash/domain/core"
	"savdash/domain/dataset"
	"savdash/domain/filter"
	"savdash/internal/errors"
	"savdash/internal/workingset"
	"savdash/ports"
)

// FilterService owns the filter working sets. Generation runs at most once
// per dataset at a time; mutations of one session are serialized.
type FilterService struct {
	datasets   ports.DatasetRepository
	sessions   ports.SessionRepository
	generator  ports.FilterGenerator
	maxFilters int
	timeout    time.Duration

	inflight singleflight.Group
	locks    sync.Map // core.SessionID -> *sync.Mutex
}

// GenerateResult is the session after an AI batch plus the generation audit
type GenerateResult struct {
	Session *filter.Session       `json:"session"`
	Audit   ports.GenerationAudit `json:"audit"`
	Added   int                   `json:"added"`
}

// NewFilterService creates a filter service
func NewFilterService(datasets ports.DatasetRepository, sessions ports.SessionRepository, generator ports.FilterGenerator, maxFilters int) *FilterService {
	return &FilterService{
		datasets:   datasets,
		sessions:   sessions,
		generator:  generator,
		maxFilters: maxFilters,
		timeout:    DefaultGenerationTimeout,
	}
}

// DefaultGenerationTimeout bounds one shared generation call
const DefaultGenerationTimeout = 2 * time.Minute

// SetGenerationTimeout changes the bound of shared generation calls; d <= 0
// keeps the current value.
func (s *FilterService) SetGenerationTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

// CreateSession starts an empty working set for an existing dataset
func (s *FilterService) CreateSession(ctx context.Context, datasetID core.DatasetID) (*filter.Session, error) {
	if _, err := s.datasets.Get(ctx, datasetID); err != nil {
		return nil, errors.Wrapf(err, "failed to load dataset %s", datasetID)
	}
	sess := filter.NewSession(datasetID)
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, errors.Wrap(err, "failed to create session")
	}
	return sess, nil
}

// Session returns the current working set
func (s *FilterService) Session(ctx context.Context, id core.SessionID) (*filter.Session, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load session %s", id)
	}
	return sess, nil
}

// Generate asks the configured generator for a fresh AI batch and merges it
// into the session, keeping manual filters first.
func (s *FilterService) Generate(ctx context.Context, id core.SessionID) (*GenerateResult, error) {
	sess, err := s.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	ds, err := s.datasets.Get(ctx, sess.DatasetID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load dataset %s", sess.DatasetID)
	}

	// The call is shared by every waiter on this dataset, so it must not die
	// with the request that happened to start it.
	v, err, shared := s.inflight.Do(string(ds.ID), func() (any, error) {
		genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.generator.GenerateFilters(genCtx, ports.FilterRequest{
			DatasetID:   ds.ID,
			DatasetName: ds.Name,
			Variables:   ds.Catalog(),
			MaxFilters:  s.maxFilters,
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "filter generation failed")
	}
	gen := v.(*ports.FilterGeneration)
	if len(gen.Filters) == 0 {
		return nil, errors.NoSuitableFilters(core.ErrNoSuitableFilters)
	}

	var added int
	updated, err := s.mutate(ctx, id, func(_ *dataset.Dataset, working []filter.SmartFilter) ([]filter.SmartFilter, error) {
		next := workingset.ApplyAIBatch(gen.Filters, working)
		added = countSource(next, filter.SourceAI)
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("filters generated",
		zap.String("session_id", id.String()),
		zap.String("dataset_id", ds.ID.String()),
		zap.String("generator", gen.Audit.GeneratorType),
		zap.Int("proposed", len(gen.Filters)),
		zap.Int("added", added),
		zap.Bool("shared", shared))

	return &GenerateResult{Session: updated, Audit: gen.Audit, Added: added}, nil
}

// AddManual adds a user-chosen variable as a manual filter
func (s *FilterService) AddManual(ctx context.Context, id core.SessionID, code core.VariableCode) (*filter.Session, error) {
	return s.mutate(ctx, id, func(ds *dataset.Dataset, working []filter.SmartFilter) ([]filter.SmartFilter, error) {
		v, ok := ds.Variable(code)
		if !ok {
			return nil, errors.Wrap(fmt.Errorf("%w: %s", core.ErrVariableNotFound, code), "unknown variable")
		}
		next, err := workingset.AddManualFilter(*v, working)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot add %s", code)
		}
		return next, nil
	})
}

// Remove drops a filter; unknown ids leave the working set unchanged
func (s *FilterService) Remove(ctx context.Context, id core.SessionID, filterID core.FilterID) (*filter.Session, error) {
	return s.mutate(ctx, id, func(_ *dataset.Dataset, working []filter.SmartFilter) ([]filter.SmartFilter, error) {
		return workingset.RemoveFilter(filterID, working), nil
	})
}

// Toggle sets the applied flag of a filter
func (s *FilterService) Toggle(ctx context.Context, id core.SessionID, filterID core.FilterID, applied bool) (*filter.Session, error) {
	return s.mutate(ctx, id, func(_ *dataset.Dataset, working []filter.SmartFilter) ([]filter.SmartFilter, error) {
		next, err := workingset.SetApplied(filterID, applied, working)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot toggle %s", filterID)
		}
		return next, nil
	})
}

// Available lists variables not yet used by any filter of the session
func (s *FilterService) Available(ctx context.Context, id core.SessionID) ([]dataset.Variable, error) {
	sess, err := s.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	ds, err := s.datasets.Get(ctx, sess.DatasetID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load dataset %s", sess.DatasetID)
	}
	return workingset.AvailableVariables(ds.Catalog(), sess.Filters), nil
}

// Export builds the segmentation definition of the applied filters
func (s *FilterService) Export(ctx context.Context, id core.SessionID) (export.Segmentation, error) {
	sess, err := s.Session(ctx, id)
	if err != nil {
		return export.Segmentation{}, err
	}
	return export.BuildSegmentation(sess, time.Now()), nil
}

type mutation func(ds *dataset.Dataset, working []filter.SmartFilter) ([]filter.SmartFilter, error)

// mutate loads, transforms and saves a session under its lock
func (s *FilterService) mutate(ctx context.Context, id core.SessionID, fn mutation) (*filter.Session, error) {
	unlock := s.lock(id)
	defer unlock()

	sess, err := s.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	ds, err := s.datasets.Get(ctx, sess.DatasetID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load dataset %s", sess.DatasetID)
	}

	next, err := fn(ds, sess.Filters)
	if err != nil {
		return nil, err
	}
	sess.Filters = next
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, errors.Wrap(err, "failed to save session")
	}
	return sess, nil
}

func (s *FilterService) lock(id core.SessionID) func() {
	m, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func countSource(filters []filter.SmartFilter, source filter.Provenance) int {
	n := 0
	for _, f := range filters {
		if f.Source == source {
			n++
		}
	}
	return n
}
