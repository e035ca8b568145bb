package weather

import (
	"fmt"
	"time"
)

// Condition is the high-level condition label reported by OpenWeatherMap
// (the "main" field of a weather entry). The dashboard maps these to icons
// and anything outside the known set falls back to a generic rendering.
type Condition string

const (
	ConditionClear  Condition = "Clear"
	ConditionClouds Condition = "Clouds"
	ConditionRain   Condition = "Rain"
	ConditionSnow   Condition = "Snow"
)

// JST is the display timezone for calendar-day bucketing. The service only
// covers Japanese cities, so day boundaries follow Japan Standard Time.
var JST = time.FixedZone("JST", 9*60*60)

// ForecastSample is one 3-hour forecast observation, normalized from the
// OpenWeatherMap forecast list. Immutable once decoded.
type ForecastSample struct {
	Timestamp   int64     `json:"dt"` // epoch seconds
	Temperature float64   `json:"temp"`
	Condition   Condition `json:"condition"`
	Icon        string    `json:"icon,omitempty"`
	Description string    `json:"description,omitempty"`
}

// Time returns the sample's timestamp in the given location.
func (s ForecastSample) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = JST
	}
	return time.Unix(s.Timestamp, 0).In(loc)
}

// GeoLocation is one result of a forward geocoding lookup.
type GeoLocation struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
}

// CurrentWeather is the normalized current-conditions view for a city.
type CurrentWeather struct {
	City        string    `json:"city"`
	Condition   Condition `json:"condition"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	IconURL     string    `json:"iconUrl"`
	Temp        float64   `json:"temp"`
	TempMax     float64   `json:"tempMax"`
	TempMin     float64   `json:"tempMin"`
}

// HourlyEntry pairs a forecast sample with its day-boundary flag so the
// hourly page can insert a section break at each new calendar date.
type HourlyEntry struct {
	ForecastSample
	NewDay bool `json:"newDay"`
}

// SearchResult is the full payload for a city search: current conditions
// plus the derived daily and hourly slices.
type SearchResult struct {
	City    string           `json:"city"`
	Current CurrentWeather   `json:"current"`
	Daily   []ForecastSample `json:"daily"`
	Hourly  []HourlyEntry    `json:"hourly"`
}

// IconURL builds the OpenWeatherMap icon image URL for an icon code.
func IconURL(code string) string {
	if code == "" {
		return ""
	}
	return fmt.Sprintf("https://openweathermap.org/img/wn/%s.png", code)
}
