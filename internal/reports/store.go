// Package reports keeps the read-through list of saved reports and binds
// successful sessions to new reports.
package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/sadopc/askfin/internal/model"
)

// Backend is the part of the gateway the store needs.
type Backend interface {
	ListReports(ctx context.Context) ([]model.SavedReport, error)
	CreateReport(ctx context.Context, name, query string) (*model.SavedReport, error)
	DeleteReport(ctx context.Context, id int64) error
}

// Store caches the last fetched list. Every mutation is followed by a full
// re-fetch; the list is only ever replaced, never patched.
type Store struct {
	backend Backend
	logger  zerolog.Logger

	mu      sync.Mutex
	reports []model.SavedReport
	loaded  bool
	issued  uint64 // last refresh started
	applied uint64 // refresh whose list is cached
}

func NewStore(b Backend, logger zerolog.Logger) *Store {
	return &Store{backend: b, logger: logger}
}

// Refresh re-fetches the list. On failure the previous list is kept. When
// refreshes overlap, a list fetched by an older call never replaces one from
// a newer call; the older call returns the newer list instead.
func (s *Store) Refresh(ctx context.Context) ([]model.SavedReport, error) {
	s.mu.Lock()
	s.issued++
	seq := s.issued
	s.mu.Unlock()

	list, err := s.backend.ListReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.applied {
		s.logger.Debug().Uint64("seq", seq).Uint64("applied", s.applied).Msg("stale report list dropped")
		return cloneReports(s.reports), nil
	}
	s.reports = list
	s.loaded = true
	s.applied = seq

	s.logger.Debug().Int("reports", len(list)).Msg("reports refreshed")
	return cloneReports(list), nil
}

// Reports returns a copy of the last fetched list.
func (s *Store) Reports() []model.SavedReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneReports(s.reports)
}

// Loaded reports whether a list has been fetched at least once.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Find looks id up in the cached list.
func (s *Store) Find(id int64) (model.SavedReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reports {
		if r.ID == id {
			return r, true
		}
	}
	return model.SavedReport{}, false
}

// Create persists a report and re-fetches. Duplicate names are allowed.
func (s *Store) Create(ctx context.Context, name, query string) (*model.SavedReport, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &model.ValidationError{Field: "name"}
	}
	if strings.TrimSpace(query) == "" {
		return nil, &model.ValidationError{Field: "query"}
	}

	created, err := s.backend.CreateReport(ctx, name, query)
	if err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	s.logger.Info().Int64("id", created.ID).Str("name", created.Name).Msg("report saved")

	if _, err := s.Refresh(ctx); err != nil {
		return created, err
	}
	return created, nil
}

// Delete removes a report and re-fetches. A report that is already gone is
// not an error: the re-fetch shows the true state either way.
func (s *Store) Delete(ctx context.Context, id int64) error {
	err := s.backend.DeleteReport(ctx, id)
	switch {
	case errors.Is(err, model.ErrNotFound):
		s.logger.Debug().Int64("id", id).Msg("report already deleted")
	case err != nil:
		return fmt.Errorf("delete report %d: %w", id, err)
	default:
		s.logger.Info().Int64("id", id).Msg("report deleted")
	}

	_, err = s.Refresh(ctx)
	return err
}

func cloneReports(in []model.SavedReport) []model.SavedReport {
	if in == nil {
		return nil
	}
	out := make([]model.SavedReport, len(in))
	copy(out, in)
	return out
}
