package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umbrella-forecast/backend/internal/blob"
	"github.com/umbrella-forecast/backend/internal/favorites"
	"github.com/umbrella-forecast/backend/internal/observability"
	"github.com/umbrella-forecast/backend/internal/posts"
	"github.com/umbrella-forecast/backend/internal/snapshot"
	"github.com/umbrella-forecast/backend/internal/store"
	"github.com/umbrella-forecast/backend/internal/users"
	"github.com/umbrella-forecast/backend/internal/weather"
)

type stubSource struct {
	locations map[string][]weather.GeoLocation
}

func (s *stubSource) Geocode(_ context.Context, city string) ([]weather.GeoLocation, error) {
	return s.locations[city], nil
}

func (s *stubSource) Current(context.Context, float64, float64) (weather.CurrentWeather, error) {
	return weather.CurrentWeather{Condition: weather.ConditionClear, Temp: 21}, nil
}

func (s *stubSource) Forecast(context.Context, float64, float64) ([]weather.ForecastSample, error) {
	base := time.Date(2024, 4, 26, 0, 0, 0, 0, weather.JST)
	samples := make([]weather.ForecastSample, 0, 8)
	for i := 0; i < 8; i++ {
		samples = append(samples, weather.ForecastSample{
			Timestamp:   base.Add(time.Duration(i) * 3 * time.Hour).Unix(),
			Temperature: 15,
			Condition:   weather.ConditionClouds,
		})
	}
	return samples, nil
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	docs := store.NewMemoryStore()

	src := &stubSource{locations: map[string][]weather.GeoLocation{
		"東京":     {{Name: "Tokyo", Lat: 35.68, Lon: 139.76, Country: "JP"}},
		"大阪":     {{Name: "Osaka", Lat: 34.69, Lon: 135.5, Country: "JP"}},
		"京都":     {{Name: "Kyoto", Lat: 35.01, Lon: 135.77, Country: "JP"}},
		"札幌":     {{Name: "Sapporo", Lat: 43.06, Lon: 141.35, Country: "JP"}},
		"Paris":  {{Name: "Paris", Lat: 48.86, Lon: 2.35, Country: "FR"}},
		"Nowhere": nil,
	}}

	images, err := blob.NewDiskStore(t.TempDir())
	require.NoError(t, err)

	h := &Handlers{
		Users:     users.NewService(docs, nil, logger, time.Hour),
		Posts:     posts.NewLedger(docs, nil, logger, metrics),
		Favorites: favorites.NewService(docs),
		Weather:   weather.NewService(src, weather.JST, logger, metrics),
		Snapshots: snapshot.NewMemoryStore(5, 0, nil),
		Images:    images,
		Logger:    logger,
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": true, "message": err.Error()})
		},
	})
	RegisterRoutes(app, h)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func signUpUser(t *testing.T, app *fiber.App, email string) string {
	t.Helper()

	resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/signup", "", fiber.Map{
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var session users.Session
	decodeBody(t, resp, &session)
	require.NotEmpty(t, session.Token)
	return session.Token
}

func TestSignUpAndDuplicateEmail(t *testing.T) {
	app := newTestApp(t)

	signUpUser(t, app, "ame@example.com")

	resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/signup", "", fiber.Map{
		"email":    "ame@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSignUpWeakPassword(t *testing.T) {
	app := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/signup", "", fiber.Map{
		"email":    "ame@example.com",
		"password": "12345",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSignInWrongPassword(t *testing.T) {
	app := newTestApp(t)
	signUpUser(t, app, "ame@example.com")

	resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/signin", "", fiber.Map{
		"email":    "ame@example.com",
		"password": "wrong-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	app := newTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/favorites", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/cities/東京/posts", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSearchRejectsForeignCity(t *testing.T) {
	app := newTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/weather/search?city=Paris", "", nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body struct {
		Error   bool   `json:"error"`
		Message string `json:"message"`
	}
	decodeBody(t, resp, &body)
	assert.True(t, body.Error)
	assert.Equal(t, "日本の都市のみ検索可能です", body.Message)
}

func TestSearchReturnsForecasts(t *testing.T) {
	app := newTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/weather/search?city=東京", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result weather.SearchResult
	decodeBody(t, resp, &result)
	assert.Equal(t, "東京", result.City)
	assert.Equal(t, 21.0, result.Current.Temp)
	assert.Len(t, result.Daily, 1)
	assert.Len(t, result.Hourly, 8)
}

func TestSearchMissingCityParam(t *testing.T) {
	app := newTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/weather/search", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCurrentWeatherByCoords(t *testing.T) {
	app := newTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/weather/current?lat=35.68&lon=139.76", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/weather/current?lat=abc&lon=139.76", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/weather/current?lat=95&lon=139.76", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPostLifecycle(t *testing.T) {
	app := newTestApp(t)
	author := signUpUser(t, app, "author@example.com")
	other := signUpUser(t, app, "other@example.com")

	resp := doJSON(t, app, http.MethodPost, "/api/v1/cities/東京/posts", author, fiber.Map{
		"content": "今日は傘が必要",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Post  posts.Post   `json:"post"`
		Posts []posts.Post `json:"posts"`
	}
	decodeBody(t, resp, &created)
	require.NotEmpty(t, created.Post.ID)
	assert.Equal(t, users.DefaultUsername, created.Post.Username)
	require.Len(t, created.Posts, 1)

	// Edits by a non-author are forbidden.
	resp = doJSON(t, app, http.MethodPut,
		fmt.Sprintf("/api/v1/cities/東京/posts/%s", created.Post.ID), other,
		fiber.Map{"content": "改ざん"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Empty replacement text is rejected.
	resp = doJSON(t, app, http.MethodPut,
		fmt.Sprintf("/api/v1/cities/東京/posts/%s", created.Post.ID), author,
		fiber.Map{"content": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Author edit succeeds.
	resp = doJSON(t, app, http.MethodPut,
		fmt.Sprintf("/api/v1/cities/東京/posts/%s", created.Post.ID), author,
		fiber.Map{"content": "やっぱり晴れた"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var edited posts.Post
	decodeBody(t, resp, &edited)
	assert.Equal(t, "やっぱり晴れた", edited.Content)

	// Editing an unknown post is a 404.
	resp = doJSON(t, app, http.MethodPut, "/api/v1/cities/東京/posts/missing", author,
		fiber.Map{"content": "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Deleting twice is fine.
	resp = doJSON(t, app, http.MethodDelete,
		fmt.Sprintf("/api/v1/cities/東京/posts/%s", created.Post.ID), author, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = doJSON(t, app, http.MethodDelete,
		fmt.Sprintf("/api/v1/cities/東京/posts/%s", created.Post.ID), author, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/cities/東京/posts", author, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Posts []posts.Post `json:"posts"`
	}
	decodeBody(t, resp, &listing)
	assert.Empty(t, listing.Posts)
}

func TestDeleteByNonAuthorForbidden(t *testing.T) {
	app := newTestApp(t)
	author := signUpUser(t, app, "author@example.com")
	other := signUpUser(t, app, "other@example.com")

	resp := doJSON(t, app, http.MethodPost, "/api/v1/cities/大阪/posts", author, fiber.Map{
		"content": "たこ焼き日和",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Post posts.Post `json:"post"`
	}
	decodeBody(t, resp, &created)

	resp = doJSON(t, app, http.MethodDelete,
		fmt.Sprintf("/api/v1/cities/大阪/posts/%s", created.Post.ID), other, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestFavoritesCapacity(t *testing.T) {
	app := newTestApp(t)
	token := signUpUser(t, app, "fav@example.com")

	for _, city := range []string{"東京", "大阪", "京都"} {
		resp := doJSON(t, app, http.MethodPost, "/api/v1/favorites", token, fiber.Map{"city": city})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp := doJSON(t, app, http.MethodPost, "/api/v1/favorites", token, fiber.Map{"city": "札幌"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/favorites", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Cities []string `json:"cities"`
	}
	decodeBody(t, resp, &listing)
	assert.Equal(t, []string{"東京", "大阪", "京都"}, listing.Cities)
}

func TestFavoritesWeatherFetchesMissingSnapshots(t *testing.T) {
	app := newTestApp(t)
	token := signUpUser(t, app, "fav@example.com")

	resp := doJSON(t, app, http.MethodPost, "/api/v1/favorites", token, fiber.Map{"city": "東京"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/favorites/weather", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Snapshots []snapshot.CitySnapshot `json:"snapshots"`
	}
	decodeBody(t, resp, &body)
	require.Len(t, body.Snapshots, 1)
	assert.Equal(t, "東京", body.Snapshots[0].City)
	assert.Equal(t, 21.0, body.Snapshots[0].Result.Current.Temp)
}

func TestProfileDefaultsAndUpdate(t *testing.T) {
	app := newTestApp(t)
	token := signUpUser(t, app, "profile@example.com")

	resp := doJSON(t, app, http.MethodGet, "/api/v1/profile", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var profile users.Profile
	decodeBody(t, resp, &profile)
	assert.Equal(t, users.DefaultUsername, profile.Username)
	assert.Equal(t, users.DefaultIntroduction, profile.SelfIntroduction)

	resp = doJSON(t, app, http.MethodPut, "/api/v1/profile", token, fiber.Map{
		"username": "雨好き",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	decodeBody(t, resp, &profile)
	assert.Equal(t, "雨好き", profile.Username)
	assert.Equal(t, users.DefaultIntroduction, profile.SelfIntroduction)
}

func TestSignOutInvalidatesSession(t *testing.T) {
	app := newTestApp(t)
	token := signUpUser(t, app, "bye@example.com")

	resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/signout", token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
