package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/forizec/forizec/internal/httperr"
	"github.com/forizec/forizec/internal/models"
)

func newTestTokenManager(t *testing.T) *TokenManager {
	t.Helper()
	m, err := NewTokenManager([]byte(strings.Repeat("s", 32)), time.Hour)
	require.NoError(t, err)
	return m
}

func TestTokenRoundTrip(t *testing.T) {
	m := newTestTokenManager(t)

	user := &models.User{ID: 42, Email: "owner@example.com", Role: models.RoleOwner}
	token, err := m.Issue(user)
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "owner@example.com", claims.Email)
	require.Equal(t, models.RoleOwner, claims.Role)

	id, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, int64(42), id)
}

func TestVerifyRejectsForgedToken(t *testing.T) {
	m := newTestTokenManager(t)

	other, err := NewTokenManager([]byte(strings.Repeat("x", 32)), time.Hour)
	require.NoError(t, err)

	token, err := other.Issue(&models.User{ID: 1, Email: "a@example.com", Role: models.RoleUser})
	require.NoError(t, err)

	_, err = m.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m, err := NewTokenManager([]byte(strings.Repeat("s", 32)), time.Millisecond)
	require.NoError(t, err)

	token, err := m.Issue(&models.User{ID: 1, Email: "a@example.com", Role: models.RoleUser})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = m.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	token, ok := BearerToken("Bearer abc.def.ghi")
	require.True(t, ok)
	require.Equal(t, "abc.def.ghi", token)

	_, ok = BearerToken("Basic dXNlcjpwYXNz")
	require.False(t, ok)

	_, ok = BearerToken("")
	require.False(t, ok)
}

func TestRequireBearer(t *testing.T) {
	m := newTestTokenManager(t)
	responder := &httperr.Responder{Log: zerolog.Nop()}

	var seen *Identity
	h := RequireBearer(m, responder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFromContext(r.Context())
	}))

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/user/me", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := m.Issue(&models.User{ID: 9, Email: "u@example.com", Role: models.RoleUser})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/user/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		require.Equal(t, int64(9), seen.UserID)
	})
}

func TestRequireOwner(t *testing.T) {
	responder := &httperr.Responder{Log: zerolog.Nop()}
	h := RequireOwner(responder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	t.Run("plain user is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/services", nil)
		req = req.WithContext(ContextWithIdentity(req.Context(), &Identity{UserID: 1, Role: models.RoleUser}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("owner passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/services", nil)
		req = req.WithContext(ContextWithIdentity(req.Context(), &Identity{UserID: 1, Role: models.RoleOwner}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}
