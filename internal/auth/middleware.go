package auth

import (
	"net/http"

	"github.com/forizec/forizec/internal/httperr"
)

// RequireBearer guards the API routes. A missing or invalid token is a 401;
// the route handlers can then assume an Identity is present in the context.
func RequireBearer(tokens *TokenManager, responder *httperr.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r.Header.Get("Authorization"))
			if !ok {
				responder.Write(w, r, httperr.New(http.StatusUnauthorized, "Not authenticated"))
				return
			}

			claims, err := tokens.Verify(token)
			if err != nil {
				responder.Write(w, r, httperr.New(http.StatusUnauthorized, "Could not validate credentials"))
				return
			}

			userID, err := claims.UserID()
			if err != nil {
				responder.Write(w, r, httperr.New(http.StatusUnauthorized, "Could not validate credentials"))
				return
			}

			id := &Identity{UserID: userID, Email: claims.Email, Role: claims.Role}
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), id)))
		})
	}
}

// RequireOwner rejects callers without the administrative role.
func RequireOwner(responder *httperr.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok || !id.IsOwner() {
				responder.Write(w, r, httperr.Forbidden())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
