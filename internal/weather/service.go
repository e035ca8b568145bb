package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/umbrella-forecast/backend/internal/observability"
)

var (
	// ErrEmptyCity is returned when the search query is blank.
	ErrEmptyCity = errors.New("city must not be empty")

	// ErrCityNotSupported is returned when geocoding finds no match or the
	// match lies outside Japan. A validation failure, not a system error.
	ErrCityNotSupported = errors.New("only Japanese cities are supported")
)

// supportedCountry restricts searches to Japan, matching the product rule.
const supportedCountry = "JP"

// Service runs the search workflow: geocode, validate the country, fetch
// current conditions and the forecast, and derive the daily and hourly
// views.
type Service struct {
	source  Source
	loc     *time.Location
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewService creates a weather Service. A nil location defaults to JST.
func NewService(source Source, loc *time.Location, logger *slog.Logger, metrics *observability.Metrics) *Service {
	if loc == nil {
		loc = JST
	}
	return &Service{source: source, loc: loc, logger: logger, metrics: metrics}
}

// Search resolves a city and returns its current weather plus derived
// forecasts. Geocoding misses and non-Japanese matches fail validation
// before any weather call is made.
func (s *Service) Search(ctx context.Context, city string) (SearchResult, error) {
	if city == "" {
		return SearchResult{}, ErrEmptyCity
	}

	locs, err := s.source.Geocode(ctx, city)
	if err != nil {
		return SearchResult{}, fmt.Errorf("geocode %q: %w", city, err)
	}
	if len(locs) == 0 || locs[0].Country != supportedCountry {
		if s.metrics != nil {
			s.metrics.SearchesRejected.Inc()
		}
		s.logger.Debug("search rejected", "city", city, "results", len(locs))
		return SearchResult{}, ErrCityNotSupported
	}

	geo := locs[0]
	current, err := s.source.Current(ctx, geo.Lat, geo.Lon)
	if err != nil {
		return SearchResult{}, fmt.Errorf("current weather for %q: %w", city, err)
	}

	samples, err := s.source.Forecast(ctx, geo.Lat, geo.Lon)
	if err != nil {
		return SearchResult{}, fmt.Errorf("forecast for %q: %w", city, err)
	}

	return SearchResult{
		// The page shows the name the user typed, not the canonical one.
		City:    city,
		Current: current,
		Daily:   DeriveDaily(samples, s.loc),
		Hourly:  AnnotateHourly(samples, s.loc),
	}, nil
}

// CurrentByCoords fetches current conditions for raw coordinates, used by
// the current-location page where the browser supplies lat/lon directly.
func (s *Service) CurrentByCoords(ctx context.Context, lat, lon float64) (CurrentWeather, error) {
	current, err := s.source.Current(ctx, lat, lon)
	if err != nil {
		return CurrentWeather{}, fmt.Errorf("current weather at %.4f,%.4f: %w", lat, lon, err)
	}
	return current, nil
}
