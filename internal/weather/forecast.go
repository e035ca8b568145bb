package weather

import (
	"fmt"
	"time"
)

const (
	// maxDailyDays is how many distinct calendar days the daily view shows.
	maxDailyDays = 5

	// maxHourlySamples is the prefix length of the hourly view: 16 samples
	// at 3-hour resolution, roughly 48 hours.
	maxHourlySamples = 16
)

// DeriveDaily reduces a chronological forecast series to one representative
// sample per distinct calendar date, at most five days. The representative
// is whichever sample appears first for its date, not a daily min/max.
// Date keys use month/day granularity without the year, mirroring the
// dashboard's rendering.
func DeriveDaily(samples []ForecastSample, loc *time.Location) []ForecastSample {
	if loc == nil {
		loc = JST
	}

	daily := make([]ForecastSample, 0, maxDailyDays)
	seen := make(map[string]struct{}, maxDailyDays)

	for _, s := range samples {
		key := dateKey(s.Time(loc))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		daily = append(daily, s)
		if len(daily) >= maxDailyDays {
			break
		}
	}

	return daily
}

// DeriveHourly returns the chronologically first 16 samples. A plain
// truncation: no day-boundary awareness.
func DeriveHourly(samples []ForecastSample) []ForecastSample {
	n := len(samples)
	if n > maxHourlySamples {
		n = maxHourlySamples
	}
	hourly := make([]ForecastSample, n)
	copy(hourly, samples[:n])
	return hourly
}

// IsNewDayBoundary reports whether samples[index] starts a new calendar
// date relative to its predecessor. The first sample always does. Out of
// range indices return false.
func IsNewDayBoundary(samples []ForecastSample, index int, loc *time.Location) bool {
	if index < 0 || index >= len(samples) {
		return false
	}
	if index == 0 {
		return true
	}
	if loc == nil {
		loc = JST
	}
	cur := samples[index].Time(loc)
	prev := samples[index-1].Time(loc)
	return cur.Year() != prev.Year() || cur.YearDay() != prev.YearDay()
}

// AnnotateHourly derives the hourly slice and marks each sample that opens
// a new calendar date. The flags are computed from the returned slice and
// must be recomputed whenever it changes.
func AnnotateHourly(samples []ForecastSample, loc *time.Location) []HourlyEntry {
	hourly := DeriveHourly(samples)
	entries := make([]HourlyEntry, len(hourly))
	for i, s := range hourly {
		entries[i] = HourlyEntry{
			ForecastSample: s,
			NewDay:         IsNewDayBoundary(hourly, i, loc),
		}
	}
	return entries
}

// dateKey buckets a time at month/day granularity. The year is deliberately
// ignored to match the observed bucketing behavior.
func dateKey(t time.Time) string {
	return fmt.Sprintf("%d/%d", int(t.Month()), t.Day())
}
