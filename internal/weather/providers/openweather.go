package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/umbrella-forecast/backend/internal/observability"
	"github.com/umbrella-forecast/backend/internal/weather"
)

const (
	defaultGeoBaseURL  = "https://api.openweathermap.org/geo/1.0"
	defaultDataBaseURL = "https://api.openweathermap.org/data/2.5"
)

// OpenWeatherClient implements weather.Source against the OpenWeatherMap
// geocoding, current-weather, and forecast endpoints.
type OpenWeatherClient struct {
	apiKey      string
	lang        string
	geoBaseURL  string
	dataBaseURL string
	httpCfg     HTTPClientConfig
	circuit     *gobreaker.CircuitBreaker
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// OpenWeatherOption adjusts client construction.
type OpenWeatherOption func(*OpenWeatherClient)

// WithBaseURLs overrides the API base URLs; used by tests.
func WithBaseURLs(geoBase, dataBase string) OpenWeatherOption {
	return func(c *OpenWeatherClient) {
		c.geoBaseURL = geoBase
		c.dataBaseURL = dataBase
	}
}

// NewOpenWeatherClient creates the client with default backoff and
// circuit breaker settings.
func NewOpenWeatherClient(client *http.Client, apiKey string, metrics *observability.Metrics, logger *slog.Logger, opts ...OpenWeatherOption) *OpenWeatherClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweathermap",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	c := &OpenWeatherClient{
		apiKey:      apiKey,
		lang:        "ja",
		geoBaseURL:  defaultGeoBaseURL,
		dataBaseURL: defaultDataBaseURL,
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      3,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: cb,
		metrics: metrics,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// statusCode tolerates the API returning "cod" as either a JSON number
// (current weather) or a string (forecast).
type statusCode int

func (c *statusCode) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*c = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid cod value %q", s)
	}
	*c = statusCode(n)
	return nil
}

// Geocode resolves a city name to coordinates via /geo/1.0/direct with
// limit=1. An unknown city yields an empty slice, not an error.
func (c *OpenWeatherClient) Geocode(ctx context.Context, city string) ([]weather.GeoLocation, error) {
	values := url.Values{}
	values.Set("q", city)
	values.Set("limit", "1")
	values.Set("appid", c.apiKey)

	var payload []struct {
		Name    string  `json:"name"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
		Country string  `json:"country"`
	}
	if err := c.getJSON(ctx, "geocode", c.geoBaseURL+"/direct", values, &payload); err != nil {
		return nil, err
	}

	results := make([]weather.GeoLocation, 0, len(payload))
	for _, p := range payload {
		results = append(results, weather.GeoLocation{
			Name:    p.Name,
			Lat:     p.Lat,
			Lon:     p.Lon,
			Country: p.Country,
		})
	}
	return results, nil
}

// Current fetches current conditions for coordinates in metric units.
func (c *OpenWeatherClient) Current(ctx context.Context, lat, lon float64) (weather.CurrentWeather, error) {
	values := c.coordValues(lat, lon)

	var payload struct {
		Name    string `json:"name"`
		Weather []struct {
			Main        string `json:"main"`
			Icon        string `json:"icon"`
			Description string `json:"description"`
		} `json:"weather"`
		Main struct {
			Temp    float64 `json:"temp"`
			TempMax float64 `json:"temp_max"`
			TempMin float64 `json:"temp_min"`
		} `json:"main"`
		Cod statusCode `json:"cod"`
	}
	if err := c.getJSON(ctx, "current", c.dataBaseURL+"/weather", values, &payload); err != nil {
		return weather.CurrentWeather{}, err
	}
	if payload.Cod != http.StatusOK {
		return weather.CurrentWeather{}, fmt.Errorf("current weather request failed: cod %d", payload.Cod)
	}

	cw := weather.CurrentWeather{
		City:    payload.Name,
		Temp:    payload.Main.Temp,
		TempMax: payload.Main.TempMax,
		TempMin: payload.Main.TempMin,
	}
	if len(payload.Weather) > 0 {
		cw.Condition = weather.Condition(payload.Weather[0].Main)
		cw.Icon = payload.Weather[0].Icon
		cw.IconURL = weather.IconURL(payload.Weather[0].Icon)
		cw.Description = payload.Weather[0].Description
	}
	return cw, nil
}

// Forecast fetches the 5-day/3-hour forecast series for coordinates.
func (c *OpenWeatherClient) Forecast(ctx context.Context, lat, lon float64) ([]weather.ForecastSample, error) {
	values := c.coordValues(lat, lon)

	var payload struct {
		Cod  statusCode `json:"cod"`
		List []struct {
			Dt   int64 `json:"dt"`
			Main struct {
				Temp float64 `json:"temp"`
			} `json:"main"`
			Weather []struct {
				Main        string `json:"main"`
				Icon        string `json:"icon"`
				Description string `json:"description"`
			} `json:"weather"`
		} `json:"list"`
	}
	if err := c.getJSON(ctx, "forecast", c.dataBaseURL+"/forecast", values, &payload); err != nil {
		return nil, err
	}
	if payload.Cod != http.StatusOK {
		return nil, fmt.Errorf("forecast request failed: cod %d", payload.Cod)
	}

	samples := make([]weather.ForecastSample, 0, len(payload.List))
	for _, item := range payload.List {
		s := weather.ForecastSample{
			Timestamp:   item.Dt,
			Temperature: item.Main.Temp,
		}
		if len(item.Weather) > 0 {
			s.Condition = weather.Condition(item.Weather[0].Main)
			s.Icon = item.Weather[0].Icon
			s.Description = item.Weather[0].Description
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func (c *OpenWeatherClient) coordValues(lat, lon float64) url.Values {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	values.Set("appid", c.apiKey)
	values.Set("units", "metric")
	if c.lang != "" {
		values.Set("lang", c.lang)
	}
	return values
}

func (c *OpenWeatherClient) getJSON(ctx context.Context, endpoint, base string, values url.Values, out any) error {
	if c.apiKey == "" {
		return fmt.Errorf("openweather api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, base+"?"+values.Encode(), nil)
	}

	start := time.Now()
	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	c.observe(endpoint, start, err)
	if err != nil {
		c.logger.Warn("openweather request failed", "endpoint", endpoint, "error", err)
		return fmt.Errorf("openweather %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode openweather %s response: %w", endpoint, err)
	}
	return nil
}

func (c *OpenWeatherClient) observe(endpoint string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.metrics.UpstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	c.metrics.UpstreamDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
