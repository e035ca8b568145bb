// Package favorites keeps each user's bounded set of favorite cities.
package favorites

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/umbrella-forecast/backend/internal/store"
)

const (
	collection = "favorites"

	// MaxCities is the hard cap on favorites per user. Adding beyond it is
	// rejected, never evicted.
	MaxCities = 3
)

// ErrCapacityExceeded is returned when a user already has MaxCities favorites.
var ErrCapacityExceeded = errors.New("favorite cities limit reached")

type favoritesDocument struct {
	Cities []string `json:"cities"`
}

// Service manages per-user favorite city sets on the document store.
type Service struct {
	store store.Documents
	mu    sync.Mutex
}

// NewService creates a favorites Service.
func NewService(docs store.Documents) *Service {
	return &Service{store: docs}
}

// List returns the user's favorite cities in insertion order.
func (s *Service) List(ctx context.Context, userID string) ([]string, error) {
	var doc favoritesDocument
	err := s.store.Get(ctx, collection, userID, &doc)
	if errors.Is(err, store.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load favorites for %q: %w", userID, err)
	}
	return doc.Cities, nil
}

// Add appends a city to the user's favorites. A duplicate city is a silent
// no-op; a full set returns ErrCapacityExceeded and stays unchanged.
func (s *Service) Add(ctx context.Context, userID, city string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cities, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, c := range cities {
		if c == city {
			return cities, nil
		}
	}
	if len(cities) >= MaxCities {
		return nil, ErrCapacityExceeded
	}

	cities = append(cities, city)
	if err := s.store.Set(ctx, collection, userID, favoritesDocument{Cities: cities}, 0); err != nil {
		return nil, fmt.Errorf("save favorites for %q: %w", userID, err)
	}
	return cities, nil
}

// AllCities returns the union of every user's favorites, sorted, for the
// background refresh job.
func (s *Service) AllCities(ctx context.Context) ([]string, error) {
	userIDs, err := s.store.Keys(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("list favorites collection: %w", err)
	}

	seen := make(map[string]struct{})
	for _, id := range userIDs {
		cities, err := s.List(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, c := range cities {
			seen[c] = struct{}{}
		}
	}

	all := make([]string, 0, len(seen))
	for c := range seen {
		all = append(all, c)
	}
	sort.Strings(all)
	return all, nil
}
