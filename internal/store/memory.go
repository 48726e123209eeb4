// Package store holds derived rasters for serving, keyed by acquisition day.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/couchcryptid/heat-index-etl/internal/domain"
)

// ErrNotFound is returned by Get for a day with no stored raster.
var ErrNotFound = errors.New("no raster stored for date")

// MemoryStore is an in-memory derived archive, safe for concurrent use. One
// raster per UTC day; storing a day again replaces it, so periodic refresh
// runs converge instead of erroring.
type MemoryStore struct {
	mu      sync.RWMutex
	rasters map[string]domain.Raster
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rasters: make(map[string]domain.Raster)}
}

// Store saves r under its acquisition day, replacing any prior raster for
// that day.
func (s *MemoryStore) Store(_ context.Context, r domain.Raster) error {
	if r.Timestamp.IsZero() {
		return fmt.Errorf("store raster: %w", errors.New("zero timestamp"))
	}
	key := r.Timestamp.UTC().Format(domain.DateLayout)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rasters[key] = r
	return nil
}

// Get returns the raster stored for ts's UTC day.
func (s *MemoryStore) Get(ts time.Time) (domain.Raster, error) {
	key := ts.UTC().Format(domain.DateLayout)
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rasters[key]
	if !ok {
		return domain.Raster{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return r, nil
}

// Dates returns every stored day in ascending order, formatted YYYY-MM-DD.
func (s *MemoryStore) Dates() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dates := make([]string, 0, len(s.rasters))
	for d := range s.rasters {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// First returns the earliest stored raster, or false when the store is empty.
func (s *MemoryStore) First() (domain.Raster, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		first string
		found bool
	)
	for d := range s.rasters {
		if !found || d < first {
			first = d
			found = true
		}
	}
	if !found {
		return domain.Raster{}, false
	}
	return s.rasters[first], true
}

// Len returns the number of stored rasters.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rasters)
}
