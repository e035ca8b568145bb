package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/umbrella-forecast/backend/internal/users"
)

type updateProfileRequest struct {
	Username         string `json:"username"`
	SelfIntroduction string `json:"selfIntroduction"`
	ImageURL         string `json:"imageUrl"`
}

func (h *Handlers) getProfile(c *fiber.Ctx) error {
	profile, err := h.Users.Profile(c.Context(), currentUserID(c))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load profile")
	}
	return c.JSON(profile)
}

func (h *Handlers) updateProfile(c *fiber.Ctx) error {
	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	profile, err := h.Users.SaveProfile(c.Context(), users.Profile{
		ID:               currentUserID(c),
		Username:         req.Username,
		SelfIntroduction: req.SelfIntroduction,
		ImageURL:         req.ImageURL,
	})
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to save profile")
	}

	return c.JSON(profile)
}
