package httpapi

import (
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/umbrella-forecast/backend/internal/blob"
	"github.com/umbrella-forecast/backend/internal/favorites"
	"github.com/umbrella-forecast/backend/internal/posts"
	"github.com/umbrella-forecast/backend/internal/snapshot"
	"github.com/umbrella-forecast/backend/internal/users"
	"github.com/umbrella-forecast/backend/internal/weather"
)

var validate = validator.New()

// Handlers bundles the services the HTTP layer dispatches to.
type Handlers struct {
	Users     *users.Service
	Posts     *posts.Ledger
	Favorites *favorites.Service
	Weather   *weather.Service
	Snapshots *snapshot.MemoryStore
	Images    *blob.DiskStore
	Logger    *slog.Logger
}

// RegisterRoutes wires the HTTP handlers into the Fiber app. Weather
// lookups are public; everything touching user state requires a session.
func RegisterRoutes(app *fiber.App, h *Handlers) {
	v1 := app.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.Post("/signup", h.signUp)
	auth.Post("/signin", h.signIn)
	auth.Post("/signout", h.signOut)

	v1.Get("/weather/search", h.searchWeather)
	v1.Get("/weather/current", h.currentWeather)

	authed := v1.Group("", h.requireSession)
	authed.Get("/cities/:city/posts", h.listPosts)
	authed.Post("/cities/:city/posts", h.createPost)
	authed.Put("/cities/:city/posts/:id", h.editPost)
	authed.Delete("/cities/:city/posts/:id", h.deletePost)

	authed.Post("/uploads", h.uploadImage)

	authed.Get("/profile", h.getProfile)
	authed.Put("/profile", h.updateProfile)

	authed.Get("/favorites", h.listFavorites)
	authed.Post("/favorites", h.addFavorite)
	authed.Get("/favorites/weather", h.favoritesWeather)
}
