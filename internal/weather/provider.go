package weather

import "context"

// Source abstracts the upstream weather API: forward geocoding, current
// conditions, and the 3-hour forecast series.
type Source interface {
	Geocode(ctx context.Context, city string) ([]GeoLocation, error)
	Current(ctx context.Context, lat, lon float64) (CurrentWeather, error)
	Forecast(ctx context.Context, lat, lon float64) ([]ForecastSample, error)
}
