package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleAt builds a forecast sample for a JST wall-clock time.
func sampleAt(t *testing.T, day, hour int, temp float64) ForecastSample {
	t.Helper()
	ts := time.Date(2024, 4, day, hour, 0, 0, 0, JST)
	return ForecastSample{
		Timestamp:   ts.Unix(),
		Temperature: temp,
		Condition:   ConditionClear,
	}
}

func TestDeriveDaily(t *testing.T) {
	t.Run("one representative per date, first occurrence wins", func(t *testing.T) {
		samples := []ForecastSample{
			sampleAt(t, 1, 9, 12.0),
			sampleAt(t, 1, 12, 18.0), // same date, discarded
			sampleAt(t, 1, 15, 20.0), // same date, discarded
			sampleAt(t, 2, 0, 8.0),
			sampleAt(t, 2, 3, 7.5), // same date, discarded
			sampleAt(t, 3, 6, 10.0),
		}

		daily := DeriveDaily(samples, JST)

		require.Len(t, daily, 3)
		assert.Equal(t, 12.0, daily[0].Temperature)
		assert.Equal(t, 8.0, daily[1].Temperature)
		assert.Equal(t, 10.0, daily[2].Temperature)
	})

	t.Run("caps at five distinct days", func(t *testing.T) {
		var samples []ForecastSample
		for day := 1; day <= 7; day++ {
			samples = append(samples, sampleAt(t, day, 9, float64(day)))
		}

		daily := DeriveDaily(samples, JST)

		require.Len(t, daily, 5)
		for i, s := range daily {
			assert.Equal(t, float64(i+1), s.Temperature)
		}
	})

	t.Run("preserves first-appearance order of dates", func(t *testing.T) {
		samples := []ForecastSample{
			sampleAt(t, 2, 9, 2.0),
			sampleAt(t, 1, 9, 1.0),
			sampleAt(t, 2, 12, 2.5),
		}

		daily := DeriveDaily(samples, JST)

		require.Len(t, daily, 2)
		assert.Equal(t, 2.0, daily[0].Temperature)
		assert.Equal(t, 1.0, daily[1].Temperature)
	})

	t.Run("empty input yields empty output", func(t *testing.T) {
		assert.Empty(t, DeriveDaily(nil, JST))
		assert.Empty(t, DeriveDaily([]ForecastSample{}, JST))
	})

	t.Run("day boundary follows JST, not UTC", func(t *testing.T) {
		// Both samples fall on April 1 in UTC but on different JST dates.
		first := time.Date(2024, 4, 1, 14, 0, 0, 0, time.UTC)  // 23:00 JST Apr 1
		second := time.Date(2024, 4, 1, 16, 0, 0, 0, time.UTC) // 01:00 JST Apr 2
		samples := []ForecastSample{
			{Timestamp: first.Unix(), Temperature: 1},
			{Timestamp: second.Unix(), Temperature: 2},
		}

		daily := DeriveDaily(samples, JST)

		require.Len(t, daily, 2)
	})
}

func TestDeriveHourly(t *testing.T) {
	t.Run("truncates to first sixteen samples", func(t *testing.T) {
		var samples []ForecastSample
		for i := 0; i < 40; i++ {
			samples = append(samples, ForecastSample{Timestamp: int64(i), Temperature: float64(i)})
		}

		hourly := DeriveHourly(samples)

		require.Len(t, hourly, 16)
		for i, s := range hourly {
			assert.Equal(t, float64(i), s.Temperature)
		}
	})

	t.Run("shorter input passes through unchanged", func(t *testing.T) {
		samples := []ForecastSample{sampleAt(t, 1, 0, 5.0), sampleAt(t, 1, 3, 6.0)}

		hourly := DeriveHourly(samples)

		require.Len(t, hourly, 2)
		assert.Equal(t, samples, hourly)
	})

	t.Run("result is a copy, not an alias", func(t *testing.T) {
		samples := []ForecastSample{sampleAt(t, 1, 0, 5.0)}
		hourly := DeriveHourly(samples)

		samples[0].Temperature = 99

		assert.Equal(t, 5.0, hourly[0].Temperature)
	})
}

func TestIsNewDayBoundary(t *testing.T) {
	samples := []ForecastSample{
		sampleAt(t, 1, 18, 10),
		sampleAt(t, 1, 21, 9),
		sampleAt(t, 2, 0, 8),
		sampleAt(t, 2, 3, 7),
	}

	assert.True(t, IsNewDayBoundary(samples, 0, JST), "first sample always starts a day")
	assert.False(t, IsNewDayBoundary(samples, 1, JST))
	assert.True(t, IsNewDayBoundary(samples, 2, JST))
	assert.False(t, IsNewDayBoundary(samples, 3, JST))

	assert.False(t, IsNewDayBoundary(samples, -1, JST))
	assert.False(t, IsNewDayBoundary(samples, len(samples), JST))
}

func TestAnnotateHourly(t *testing.T) {
	samples := []ForecastSample{
		sampleAt(t, 1, 21, 9),
		sampleAt(t, 2, 0, 8),
		sampleAt(t, 2, 3, 7),
	}

	entries := AnnotateHourly(samples, JST)

	require.Len(t, entries, 3)
	assert.True(t, entries[0].NewDay)
	assert.True(t, entries[1].NewDay)
	assert.False(t, entries[2].NewDay)
}
