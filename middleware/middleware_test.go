package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	revoked map[string]bool
}

func (f *fakeChecker) IsRevoked(_ context.Context, token string) (bool, error) {
	return f.revoked[token], nil
}

func TestTokenRoundTrip(t *testing.T) {
	auth := NewAuth("test-secret", nil)

	raw, err := auth.NewToken("user-1", "jo@example.com", "Jo", true)
	require.NoError(t, err)

	claims, err := auth.ParseToken(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "jo@example.com", claims.Email)
	assert.Equal(t, "Jo", claims.Name)
	assert.True(t, claims.IsAdmin)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	raw, err := NewAuth("secret-a", nil).NewToken("user-1", "jo@example.com", "Jo", false)
	require.NoError(t, err)

	_, err = NewAuth("secret-b", nil).ParseToken(raw)
	assert.Error(t, err)
}

func authedRequest(t *testing.T, auth *Auth, isAdmin bool) *http.Request {
	t.Helper()
	raw, err := auth.NewToken("user-1", "jo@example.com", "Jo", isAdmin)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	return req
}

func TestAuthenticate(t *testing.T) {
	auth := NewAuth("test-secret", nil)

	var gotUserID string
	handler := auth.Authenticate(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gotUserID = UserID(r)
		w.WriteHeader(http.StatusOK)
	})

	t.Run("valid token passes identity through", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, authedRequest(t, auth, false), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-1", gotUserID)
	})

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/api/orders", nil), nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rec := httptest.NewRecorder()
		handler(rec, req, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()
		handler(rec, req, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthenticateRevokedToken(t *testing.T) {
	checker := &fakeChecker{revoked: map[string]bool{}}
	auth := NewAuth("test-secret", checker)

	raw, err := auth.NewToken("user-1", "jo@example.com", "Jo", false)
	require.NoError(t, err)

	handler := auth.Authenticate(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer "+raw)

	rec := httptest.NewRecorder()
	handler(rec, req, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	checker.revoked[raw] = true
	rec = httptest.NewRecorder()
	handler(rec, req, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateWebSocketQueryToken(t *testing.T) {
	auth := NewAuth("test-secret", nil)
	raw, err := auth.NewToken("user-1", "jo@example.com", "Jo", true)
	require.NoError(t, err)

	handler := auth.RequireAdmin(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("upgrade request may carry the token in the query", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/orders/live?token="+raw, nil)
		req.Header.Set("Connection", "Upgrade")
		req.Header.Set("Upgrade", "websocket")
		rec := httptest.NewRecorder()
		handler(rec, req, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("plain requests still require the header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/orders?token="+raw, nil)
		rec := httptest.NewRecorder()
		handler(rec, req, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireAdmin(t *testing.T) {
	auth := NewAuth("test-secret", nil)

	handler := auth.RequireAdmin(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("admin allowed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, authedRequest(t, auth, true), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("authenticated non-admin forbidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, authedRequest(t, auth, false), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("anonymous unauthorized, not forbidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil), nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
