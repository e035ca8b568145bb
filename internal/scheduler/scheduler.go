// Package scheduler refreshes weather snapshots for every favorited city on
// a fixed interval.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/umbrella-forecast/backend/internal/favorites"
	"github.com/umbrella-forecast/backend/internal/observability"
	"github.com/umbrella-forecast/backend/internal/snapshot"
	"github.com/umbrella-forecast/backend/internal/weather"
)

const refreshTimeout = 30 * time.Second

// Scheduler periodically resolves the union of all users' favorite cities
// and stores a fresh snapshot for each.
type Scheduler struct {
	scheduler *gocron.Scheduler
	weather   *weather.Service
	favorites *favorites.Service
	snapshots *snapshot.MemoryStore
	interval  time.Duration
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Scheduler.
func New(interval time.Duration, ws *weather.Service, fs *favorites.Service, snaps *snapshot.MemoryStore, logger *slog.Logger, metrics *observability.Metrics) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		weather:   ws,
		favorites: fs,
		snapshots: snaps,
		interval:  interval,
		logger:    logger,
		metrics:   metrics,
	}
}

// Start schedules the periodic refresh job and starts the underlying
// scheduler.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(s.refreshAll)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) refreshAll() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	cities, err := s.favorites.AllCities(ctx)
	if err != nil {
		s.logger.Error("scheduler: listing favorite cities failed", "error", err)
		s.metrics.SnapshotErrors.Inc()
		return
	}
	if len(cities) == 0 {
		s.logger.Debug("scheduler: no favorite cities to refresh")
		return
	}

	s.logger.Info("scheduler: refreshing weather snapshots", "cities", len(cities))

	var wg sync.WaitGroup
	for _, city := range cities {
		city := city
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
			defer cancel()

			result, err := s.weather.Search(ctx, city)
			if err != nil {
				s.logger.Error("scheduler: refresh failed", "city", city, "error", err)
				s.metrics.SnapshotErrors.Inc()
				return
			}
			s.snapshots.Save(city, result)
			s.metrics.SnapshotRefreshes.Inc()
		}()
	}
	wg.Wait()
}
