package httpapi

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/umbrella-forecast/backend/internal/weather"
)

// cityNotSupportedMessage is the user-facing rejection for non-Japanese
// search results.
const cityNotSupportedMessage = "日本の都市のみ検索可能です"

type searchQuery struct {
	City string `validate:"required"`
}

func (h *Handlers) searchWeather(c *fiber.Ctx) error {
	q := searchQuery{City: c.Query("city")}
	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "city query parameter is required")
	}

	result, err := h.Weather.Search(c.Context(), q.City)
	if err != nil {
		switch {
		case errors.Is(err, weather.ErrEmptyCity):
			return fiber.NewError(fiber.StatusBadRequest, "city query parameter is required")
		case errors.Is(err, weather.ErrCityNotSupported):
			return fiber.NewError(fiber.StatusUnprocessableEntity, cityNotSupportedMessage)
		}
		return fiber.NewError(fiber.StatusBadGateway, "failed to fetch weather data")
	}

	return c.JSON(result)
}

type coordsQuery struct {
	Lat float64 `validate:"min=-90,max=90"`
	Lon float64 `validate:"min=-180,max=180"`
}

func (h *Handlers) currentWeather(c *fiber.Ctx) error {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "lat query parameter must be a number")
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "lon query parameter must be a number")
	}
	if err := validate.Struct(coordsQuery{Lat: lat, Lon: lon}); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "coordinates out of range")
	}

	current, err := h.Weather.CurrentByCoords(c.Context(), lat, lon)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "failed to fetch weather data")
	}

	return c.JSON(current)
}
