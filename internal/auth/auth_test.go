package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glucodiary/glucodiary/internal/config"
	"github.com/glucodiary/glucodiary/internal/database"
)

func setupTestConfig(t *testing.T) {
	t.Helper()
	old := cfg
	cfg = &config.Config{SessionSecret: "test-secret-for-signing-tokens"}
	t.Cleanup(func() { cfg = old })
}

func TestAccessTokenRoundTrip(t *testing.T) {
	setupTestConfig(t)

	token, err := generateAccessToken(&database.User{
		UserID: "user-1",
		Email:  "alice@example.com",
		Name:   "Alice",
		Role:   database.RoleUser,
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := JwtAuthMiddleware(func(c echo.Context) error {
		called = true
		assert.Equal(t, "user-1", c.Get("user_id"))
		assert.Equal(t, "alice@example.com", c.Get("user_email"))
		assert.Equal(t, database.RoleUser, c.Get("user_role"))
		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, handler(c))
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJwtAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	setupTestConfig(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := JwtAuthMiddleware(func(c echo.Context) error {
		t.Fatal("handler should not be reached")
		return nil
	})

	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJwtAuthMiddlewareRejectsGarbageToken(t *testing.T) {
	setupTestConfig(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := JwtAuthMiddleware(func(c echo.Context) error {
		t.Fatal("handler should not be reached")
		return nil
	})

	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireDoctor(t *testing.T) {
	e := echo.New()

	run := func(role string) int {
		req := httptest.NewRequest(http.MethodGet, "/doctor/patients", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set("user_id", "user-1")
		c.Set("user_role", role)

		handler := RequireDoctor(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		require.NoError(t, handler(c))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, run(database.RoleDoctor))
	assert.Equal(t, http.StatusOK, run(database.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, run(database.RoleUser))
}
