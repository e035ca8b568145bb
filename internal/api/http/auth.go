package httpapi

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/umbrella-forecast/backend/internal/users"
)

// userIDKey is the Locals key requireSession stores the caller's id under.
const userIDKey = "userID"

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handlers) signUp(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	session, err := h.Users.SignUp(c.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrEmailInUse):
			return fiber.NewError(fiber.StatusConflict, err.Error())
		case errors.Is(err, users.ErrWeakPassword), errors.Is(err, users.ErrInvalidCredentials):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to create account")
	}

	return c.Status(fiber.StatusCreated).JSON(session)
}

func (h *Handlers) signIn(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	session, err := h.Users.SignIn(c.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to sign in")
	}

	return c.JSON(session)
}

func (h *Handlers) signOut(c *fiber.Ctx) error {
	token := bearerToken(c)
	if token == "" {
		return c.SendStatus(fiber.StatusNoContent)
	}
	if err := h.Users.SignOut(c.Context(), token); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to sign out")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// requireSession resolves the bearer token to a user id and stores it in
// the request locals.
func (h *Handlers) requireSession(c *fiber.Ctx) error {
	token := bearerToken(c)
	if token == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
	}

	userID, err := h.Users.Authenticate(c.Context(), token)
	if err != nil {
		if errors.Is(err, users.ErrInvalidSession) {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to authenticate")
	}

	c.Locals(userIDKey, userID)
	return c.Next()
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

func currentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals(userIDKey).(string)
	return id
}
