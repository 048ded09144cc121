package httpmw

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/forizec/forizec/internal/models"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name+" in")
				next.ServeHTTP(w, r)
				order = append(order, name+" out")
			})
		}
	}

	h := Chain(okHandler(), tag("outer"), tag("middle"), tag("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{
		"outer in", "middle in", "inner in",
		"inner out", "middle out", "outer out",
	}, order)
}

func TestRequestLoggingSetsProcessTimeHeader(t *testing.T) {
	h := RequestLogging(zerolog.Nop())(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("X-Process-Time"), "seconds")
}

func TestRequestLoggingReraisesPanics(t *testing.T) {
	h := RequestLogging(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	require.PanicsWithValue(t, "boom", func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func csrfConfig() CSRFConfig {
	return CSRFConfig{
		Secret:         []byte(strings.Repeat("c", 32)),
		CookieName:     "csrftoken",
		HeaderName:     "X-CSRF-Token",
		ExemptPrefixes: []string{"/api/v1", "/api/v2"},
	}
}

func TestCSRFProtocol(t *testing.T) {
	h := CSRF(csrfConfig())(okHandler())

	// A safe request receives the token cookie.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	token := cookies[0]
	require.Equal(t, "csrftoken", token.Name)
	require.NotEmpty(t, token.Value)

	// An unsafe request without the header fails closed.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/dashboard/policies", nil)
	req.AddCookie(token)
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.JSONEq(t, `{"details": "CSRF Validation Failed"}`, rec.Body.String())

	// Echoing the cookie value in the header succeeds.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/dashboard/policies", nil)
	req.AddCookie(token)
	req.Header.Set("X-CSRF-Token", token.Value)
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRFHeaderMismatchFails(t *testing.T) {
	h := CSRF(csrfConfig())(okHandler())

	req := httptest.NewRequest(http.MethodPut, "/dashboard/policies/1", nil)
	req.AddCookie(&http.Cookie{Name: "csrftoken", Value: "expected"})
	req.Header.Set("X-CSRF-Token", "forged")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRFRejectsUnsignedToken(t *testing.T) {
	h := CSRF(csrfConfig())(okHandler())

	// A matching cookie+header pair the server never issued must still fail:
	// the token carries no valid signature for the configured secret.
	forged := "attacker-minted-token"
	req := httptest.NewRequest(http.MethodPost, "/dashboard/policies", nil)
	req.AddCookie(&http.Cookie{Name: "csrftoken", Value: forged})
	req.Header.Set("X-CSRF-Token", forged)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.JSONEq(t, `{"details": "CSRF Validation Failed"}`, rec.Body.String())
}

func TestCSRFTokenForeignSecretFails(t *testing.T) {
	other := csrfConfig()
	other.Secret = []byte(strings.Repeat("x", 32))
	foreign := newCSRFToken(other.Secret)

	h := CSRF(csrfConfig())(okHandler())
	req := httptest.NewRequest(http.MethodPost, "/dashboard/policies", nil)
	req.AddCookie(&http.Cookie{Name: "csrftoken", Value: foreign})
	req.Header.Set("X-CSRF-Token", foreign)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRFExemptsAPIPrefixes(t *testing.T) {
	h := CSRF(csrfConfig())(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/services", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func newTestSessionManager(t *testing.T) *SessionManager {
	t.Helper()
	m, err := NewSessionManager([]byte(strings.Repeat("k", 32)), "session", time.Hour, false)
	require.NoError(t, err)
	return m
}

func TestSessionRoundTrip(t *testing.T) {
	m := newTestSessionManager(t)

	user := &models.User{ID: 7, Email: "owner@example.com", Role: models.RoleOwner}

	rec := httptest.NewRecorder()
	require.NoError(t, m.Issue(rec, user))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	require.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])

	data, err := m.Get(req)
	require.NoError(t, err)
	require.Equal(t, int64(7), data.UserID)
	require.Equal(t, "owner@example.com", data.Email)
	require.Equal(t, models.RoleOwner, data.Role)
}

func TestSessionRejectsTamperedToken(t *testing.T) {
	m := newTestSessionManager(t)

	rec := httptest.NewRecorder()
	require.NoError(t, m.Issue(rec, &models.User{ID: 1, Email: "a@example.com"}))
	cookie := rec.Result().Cookies()[0]

	cookie.Value = "x" + cookie.Value
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)

	_, err := m.Get(req)
	require.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessionMiddlewareAttachesContext(t *testing.T) {
	m := newTestSessionManager(t)

	rec := httptest.NewRecorder()
	require.NoError(t, m.Issue(rec, &models.User{ID: 3, Email: "b@example.com"}))

	var got *SessionData
	h := m.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = SessionFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(rec.Result().Cookies()[0])
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, got)
	require.Equal(t, int64(3), got.UserID)
}

func TestTransportEnforcementRedirectsPlainHTTP(t *testing.T) {
	h := TransportEnforcement([]string{"forizec.example.com"})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "http://forizec.example.com/dashboard", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	require.True(t, strings.HasPrefix(rec.Header().Get("Location"), "https://"))
}

func TestTransportEnforcementRejectsUnknownHost(t *testing.T) {
	h := TransportEnforcement([]string{"forizec.example.com", "*.internal.example.com"})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "https://evil.example.com/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Host = "evil.example.com"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransportEnforcementHostWildcard(t *testing.T) {
	h := TransportEnforcement([]string{"*.internal.example.com"})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "https://app.internal.example.com/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Host = "app.internal.example.com:8443"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCompressionGzipsResponses(t *testing.T) {
	body := strings.Repeat("compliance ", 200)
	h := Compression()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(body))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	require.Less(t, rec.Body.Len(), len(body))
}
