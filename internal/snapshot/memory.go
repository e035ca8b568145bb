// Package snapshot caches the latest normalized weather view per city so
// the favorites page can render without a fresh upstream round trip.
package snapshot

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/umbrella-forecast/backend/internal/weather"
)

// ErrNotFound is returned when no snapshot is available for a city.
var ErrNotFound = errors.New("no weather snapshot for city")

// CitySnapshot is one refreshed weather view for a city.
type CitySnapshot struct {
	City      string               `json:"city"`
	Result    weather.SearchResult `json:"result"`
	FetchedAt time.Time            `json:"fetchedAt"`
}

type history struct {
	snapshots []CitySnapshot
}

// MemoryStore is a concurrency-safe in-memory snapshot cache with bounded
// per-city history.
type MemoryStore struct {
	mu    sync.RWMutex
	data  map[string]*history
	clock clockwork.Clock

	maxHistory int           // max snapshots kept per city (<=0 = unlimited)
	maxAge     time.Duration // max snapshot age (<=0 = unlimited)
}

// NewMemoryStore creates a snapshot cache. A nil clock falls back to real
// time.
func NewMemoryStore(maxHistory int, maxAge time.Duration, clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{
		data:       make(map[string]*history),
		clock:      clock,
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// Save appends a snapshot for a city and enforces retention.
func (s *MemoryStore) Save(city string, result weather.SearchResult) {
	snap := CitySnapshot{City: city, Result: result, FetchedAt: s.clock.Now()}

	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.data[city]
	if !ok {
		h = &history{}
		s.data[city] = h
	}
	h.snapshots = append(h.snapshots, snap)

	if s.maxHistory > 0 && len(h.snapshots) > s.maxHistory {
		over := len(h.snapshots) - s.maxHistory
		h.snapshots = h.snapshots[over:]
	}

	if s.maxAge > 0 {
		cutoff := s.clock.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(h.snapshots); i++ {
			if !h.snapshots[i].FetchedAt.Before(cutoff) {
				break
			}
		}
		if i > 0 {
			h.snapshots = h.snapshots[i:]
		}
	}
}

// Latest returns the most recent snapshot for a city.
func (s *MemoryStore) Latest(city string) (CitySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.data[city]
	if !ok || len(h.snapshots) == 0 {
		return CitySnapshot{}, ErrNotFound
	}
	return h.snapshots[len(h.snapshots)-1], nil
}

// All returns the latest fresh snapshot for every city, sorted by city
// name. Cities whose entire history aged out are skipped.
func (s *MemoryStore) All() []CitySnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []CitySnapshot
	cutoff := time.Time{}
	if s.maxAge > 0 {
		cutoff = s.clock.Now().Add(-s.maxAge)
	}

	for _, h := range s.data {
		if len(h.snapshots) == 0 {
			continue
		}
		latest := h.snapshots[len(h.snapshots)-1]
		if !cutoff.IsZero() && latest.FetchedAt.Before(cutoff) {
			continue
		}
		out = append(out, latest)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].City < out[j].City })
	return out
}
