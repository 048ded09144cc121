package httpmw

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/forizec/forizec/internal/config"
)

// CORS builds the cross-origin stage for the active profile. Development is
// wide open; production restricts origins to the configured allow-list, verbs
// to the browser-facing set, and headers to the few the frontend sends,
// including the CSRF header.
func CORS(settings *config.Settings) Middleware {
	var opts cors.Options
	if settings.IsProd() {
		opts = cors.Options{
			AllowedOrigins:   settings.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowedHeaders:   []string{"Authorization", "Content-Type", settings.CSRFHeaderName},
			AllowCredentials: true, // Required for cookie-based authentication
		}
	} else {
		opts = cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions, http.MethodHead},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		}
	}

	middleware := cors.New(opts)
	return func(next http.Handler) http.Handler {
		return middleware.Handler(next)
	}
}
