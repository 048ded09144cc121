package httpmw

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/forizec/forizec/internal/models"
)

var (
	ErrInvalidSession = errors.New("invalid session")
	ErrExpiredSession = errors.New("session expired")
)

type contextKey string

const sessionContextKey contextKey = "session"

// SessionData is the signed payload carried by the session cookie. Each
// request's session is exclusively owned by that request for its lifetime.
type SessionData struct {
	UserID    int64           `json:"user_id"`
	Email     string          `json:"email"`
	Role      models.UserRole `json:"role"`
	IssuedAt  time.Time       `json:"issued_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// SessionManager signs, validates, and attaches cookie-backed sessions. The
// cookie is SameSite=Lax always and Secure only in production.
type SessionManager struct {
	secret     []byte
	cookieName string
	ttl        time.Duration
	secure     bool
}

func NewSessionManager(secret []byte, cookieName string, ttl time.Duration, secure bool) (*SessionManager, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("session secret must be at least 32 bytes")
	}
	if cookieName == "" {
		return nil, fmt.Errorf("session cookie name is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session TTL must be greater than 0")
	}
	return &SessionManager{secret: secret, cookieName: cookieName, ttl: ttl, secure: secure}, nil
}

// createToken signs the session as base64(json) + "." + base64(HMAC-SHA256).
func (m *SessionManager) createToken(data SessionData) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}

	encoded := base64.URLEncoding.EncodeToString(payload)

	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(encoded))
	signature := mac.Sum(nil)

	return encoded + "." + base64.URLEncoding.EncodeToString(signature), nil
}

func (m *SessionManager) validateToken(token string) (*SessionData, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return nil, ErrInvalidSession
	}

	encoded := parts[0]
	receivedSig, err := base64.URLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, ErrInvalidSession
	}

	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(encoded))
	expectedSig := mac.Sum(nil)

	if !hmac.Equal(receivedSig, expectedSig) {
		return nil, ErrInvalidSession
	}

	payload, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidSession
	}

	var data SessionData
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, ErrInvalidSession
	}

	if time.Now().After(data.ExpiresAt) {
		return nil, ErrExpiredSession
	}

	return &data, nil
}

// Issue sets a fresh signed session cookie for the given user.
func (m *SessionManager) Issue(w http.ResponseWriter, user *models.User) error {
	now := time.Now()
	token, err := m.createToken(SessionData{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	})
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(m.ttl.Seconds()),
	})
	return nil
}

// Clear expires the session cookie.
func (m *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Get extracts and validates the session from a request.
func (m *SessionManager) Get(r *http.Request) (*SessionData, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return nil, ErrInvalidSession
	}
	return m.validateToken(cookie.Value)
}

// Middleware attaches a valid session to the request context when present.
// Requests without a session pass through untouched; route guards decide
// whether authentication is required.
func (m *SessionManager) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if data, err := m.Get(r); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), sessionContextKey, data))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionFromContext extracts the session attached by Middleware.
func SessionFromContext(ctx context.Context) (*SessionData, bool) {
	data, ok := ctx.Value(sessionContextKey).(*SessionData)
	return data, ok
}
