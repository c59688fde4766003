package auth

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-shop/storefront-service/internal/config"
	"github.com/lumen-shop/storefront-service/internal/domain"
	apperrors "github.com/lumen-shop/storefront-service/pkg/util/errorutil"
)

func newGateApp(tm *TokenManager, gates ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).SendString(de.Message)
		},
	})
	handlers := append(gates, func(c *fiber.Ctx) error {
		session, ok := SessionFromContext(c)
		if !ok {
			return c.SendString("anonymous")
		}
		return c.SendString(session.Name + ":" + string(session.Role))
	})
	app.Get("/", handlers...)
	return app
}

func doGet(t *testing.T, app *fiber.App, mutate func(*http.Request)) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if mutate != nil {
		mutate(req)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func TestRequireAuth(t *testing.T) {
	clock := newClock()
	tm := NewTokenManager(testAuthConfig(), WithClock(clock.Now))
	mw := NewMiddleware(tm, "token", nil)
	app := newGateApp(tm, mw.RequireAuth)

	token, _, err := tm.IssueSession(testUser())
	require.NoError(t, err)

	t.Run("missing", func(t *testing.T) {
		status, body := doGet(t, app, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "missing token", body)
	})

	t.Run("bearer", func(t *testing.T) {
		status, body := doGet(t, app, bearer(token))
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "Ana:customer", body)
	})

	t.Run("lowercase scheme", func(t *testing.T) {
		status, _ := doGet(t, app, func(r *http.Request) { r.Header.Set("Authorization", "bearer "+token) })
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("cookie fallback", func(t *testing.T) {
		status, body := doGet(t, app, func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "token", Value: token})
		})
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "Ana:customer", body)
	})

	t.Run("invalid", func(t *testing.T) {
		status, body := doGet(t, app, bearer("garbage"))
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "invalid token", body)
	})

	t.Run("reset token is not a session", func(t *testing.T) {
		reset, _, err := tm.IssueReset(42)
		require.NoError(t, err)
		status, body := doGet(t, app, bearer(reset))
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "invalid token", body)
	})

	t.Run("expired", func(t *testing.T) {
		clock.Advance(8 * 24 * time.Hour)
		defer clock.Advance(-8 * 24 * time.Hour)
		status, body := doGet(t, app, bearer(token))
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "token expired", body)
	})
}

func TestRequireAuthMissingSecret(t *testing.T) {
	tm := NewTokenManager(config.AuthConfig{})
	app := newGateApp(tm, NewMiddleware(tm, "token", nil).RequireAuth)

	status, _ := doGet(t, app, bearer("whatever"))
	assert.Equal(t, http.StatusInternalServerError, status)
}

func TestOptionalAuth(t *testing.T) {
	tm := NewTokenManager(testAuthConfig())
	mw := NewMiddleware(tm, "token", nil)
	app := newGateApp(tm, mw.OptionalAuth)

	token, _, err := tm.IssueSession(testUser())
	require.NoError(t, err)

	status, body := doGet(t, app, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "anonymous", body)

	status, body = doGet(t, app, bearer("garbage"))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "anonymous", body)

	status, body = doGet(t, app, bearer(token))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Ana:customer", body)
}

func TestRequireRoles(t *testing.T) {
	tm := NewTokenManager(testAuthConfig())
	mw := NewMiddleware(tm, "token", nil)

	customer, _, err := tm.IssueSession(testUser())
	require.NoError(t, err)
	admin, _, err := tm.IssueSession(&domain.User{ID: 1, Name: "Root", Role: domain.RoleAdmin})
	require.NoError(t, err)

	gated := newGateApp(tm, mw.RequireAuth, RequireAdmin())

	status, _ := doGet(t, gated, bearer(customer))
	assert.Equal(t, http.StatusForbidden, status)

	status, body := doGet(t, gated, bearer(admin))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Root:admin", body)

	// Without RequireAuth in front there is no claim: 401, not 403.
	ungated := newGateApp(tm, RequireAdmin())
	status, _ = doGet(t, ungated, bearer(customer))
	assert.Equal(t, http.StatusUnauthorized, status)

	either := newGateApp(tm, mw.RequireAuth, RequireRoles(domain.RoleCustomer, domain.RoleAdmin))
	status, _ = doGet(t, either, bearer(customer))
	assert.Equal(t, http.StatusOK, status)
}
