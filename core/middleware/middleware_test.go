package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shiftboard-api/core/config"
	"shiftboard-api/core/constants"
	"shiftboard-api/core/utils"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	blacklisted bool
	err         error
}

func (f *fakeCache) AddToTokenBlacklist(ctx context.Context, token string, ttl time.Duration) error {
	return nil
}

func (f *fakeCache) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	return f.blacklisted, f.err
}

func (f *fakeCache) Publish(ctx context.Context, channel string, payload []byte) error {
	return nil
}

func (f *fakeCache) Close() error { return nil }

func mintToken(t *testing.T, scope string) string {
	t.Helper()
	t.Setenv("SHIFTBOARD_JWT_SECRET", "test-secret")
	require.NoError(t, config.Init())

	token, err := utils.GenerateToken(&utils.TokenClaims{UserID: uuid.New(), Scope: scope}, time.Minute)
	require.NoError(t, err)
	return token
}

func invokeAuth(m *Middleware, header string) (echo.Context, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	handler := m.AuthMiddleware()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	return c, handler(c)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	token := mintToken(t, constants.ScopeTokenAccess)
	m := NewMiddleware(&fakeCache{})

	c, err := invokeAuth(m, "Bearer "+token)
	require.NoError(t, err)

	claims, appErr := ClaimsFromContext(c)
	require.Nil(t, appErr)
	assert.Equal(t, constants.ScopeTokenAccess, claims.Scope)
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	m := NewMiddleware(&fakeCache{})

	_, err := invokeAuth(m, "")
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAuthMiddleware_RefreshScopeRejected(t *testing.T) {
	token := mintToken(t, constants.ScopeTokenRefresh)
	m := NewMiddleware(&fakeCache{})

	_, err := invokeAuth(m, "Bearer "+token)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAuthMiddleware_BlacklistedTokenRejected(t *testing.T) {
	token := mintToken(t, constants.ScopeTokenAccess)
	m := NewMiddleware(&fakeCache{blacklisted: true})

	_, err := invokeAuth(m, "Bearer "+token)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAuthMiddleware_BlacklistLookupErrorFailsOpen(t *testing.T) {
	token := mintToken(t, constants.ScopeTokenAccess)
	m := NewMiddleware(&fakeCache{err: assert.AnError})

	// A cache outage must not lock valid tokens out.
	c, err := invokeAuth(m, "Bearer "+token)
	require.NoError(t, err)

	_, appErr := ClaimsFromContext(c)
	assert.Nil(t, appErr)
}

func TestRequirePermission_FailsClosed(t *testing.T) {
	m := NewMiddleware(&fakeCache{})
	e := echo.New()

	handler := m.RequirePermission(constants.PermissionEventsDelete)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	// No claims on the context at all.
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	err := handler(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)

	// Claims without the permission.
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.Set(constants.ContextTokenData, &utils.TokenClaims{UserID: uuid.New()})
	err = handler(c)
	require.Error(t, err)
	httpErr, ok = err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)

	// Claims carrying the permission pass through.
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.Set(constants.ContextTokenData, &utils.TokenClaims{
		UserID:      uuid.New(),
		Permissions: []string{constants.PermissionEventsDelete},
	})
	require.NoError(t, handler(c))
}
