package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/umbrella-forecast/backend/internal/favorites"
	"github.com/umbrella-forecast/backend/internal/snapshot"
)

type addFavoriteRequest struct {
	City string `json:"city" validate:"required"`
}

func (h *Handlers) listFavorites(c *fiber.Ctx) error {
	cities, err := h.Favorites.List(c.Context(), currentUserID(c))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load favorites")
	}
	return c.JSON(fiber.Map{"cities": cities})
}

func (h *Handlers) addFavorite(c *fiber.Ctx) error {
	var req addFavoriteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "city is required")
	}

	cities, err := h.Favorites.Add(c.Context(), currentUserID(c), req.City)
	if err != nil {
		if errors.Is(err, favorites.ErrCapacityExceeded) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to save favorite")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"cities": cities})
}

// favoritesWeather returns the latest weather snapshot for each of the
// caller's favorite cities. Cities the scheduler has not refreshed yet are
// fetched live and cached for the next call.
func (h *Handlers) favoritesWeather(c *fiber.Ctx) error {
	cities, err := h.Favorites.List(c.Context(), currentUserID(c))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load favorites")
	}

	out := make([]snapshot.CitySnapshot, 0, len(cities))
	for _, city := range cities {
		snap, err := h.Snapshots.Latest(city)
		if errors.Is(err, snapshot.ErrNotFound) {
			result, ferr := h.Weather.Search(c.Context(), city)
			if ferr != nil {
				h.Logger.Warn("live refresh for favorite failed", "city", city, "error", ferr)
				continue
			}
			h.Snapshots.Save(city, result)
			snap, err = h.Snapshots.Latest(city)
		}
		if err != nil {
			continue
		}
		out = append(out, snap)
	}

	return c.JSON(fiber.Map{"snapshots": out})
}
