// Package server assembles the HTTP surface: the versioned JSON API under
// /api/v1 (auth, user, admin) and the routing-level failure handlers. Route
// handlers open one store transaction, operate on the domain model, and hand
// any failure to the responder.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/forizec/forizec/internal/auth"
	"github.com/forizec/forizec/internal/config"
	"github.com/forizec/forizec/internal/httperr"
	"github.com/forizec/forizec/internal/httpmw"
	"github.com/forizec/forizec/internal/store"
	"github.com/forizec/forizec/internal/web"
)

const sessionTTL = 24 * time.Hour

// Server wires the store, auth and responder into an http.Handler.
type Server struct {
	settings  *config.Settings
	store     store.Store
	log       zerolog.Logger
	responder *httperr.Responder
	sessions  *httpmw.SessionManager
	tokens    *auth.TokenManager
}

func New(settings *config.Settings, st store.Store, log zerolog.Logger) (*Server, error) {
	sessions, err := httpmw.NewSessionManager(
		[]byte(settings.SecretKey), settings.SessionCookieName, sessionTTL, settings.IsProd())
	if err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenManager([]byte(settings.SecretKey), sessionTTL)
	if err != nil {
		return nil, err
	}

	return &Server{
		settings:  settings,
		store:     st,
		log:       log,
		responder: &httperr.Responder{Log: log, Debug: settings.Debug},
		sessions:  sessions,
		tokens:    tokens,
	}, nil
}

// handlerFunc is a route handler that reports failures instead of writing
// them. The adapter in handle is the single place errors become responses.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (s *Server) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.responder.Write(w, r, httperr.Classify(panicError(rec)))
			}
		}()

		if err := fn(w, r); err != nil {
			s.responder.Write(w, r, err)
		}
	}
}

// Router builds the route table. Routing misses get the specialized 404/405
// handlers rather than the generic fallback.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		s.responder.Write(w, req, httperr.NotFound(""))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		s.responder.Write(w, req, httperr.MethodNotAllowed())
	})

	r.Route(s.settings.APIV1Prefix, func(r chi.Router) {
		r.Post("/auth/login", s.handle(s.login))
		r.Post("/auth/register", s.handle(s.register))
		r.Post("/auth/logout", s.handle(s.logout))

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireBearer(s.tokens, s.responder))

			r.Get("/user/me", s.handle(s.me))
			r.Get("/user/schedules", s.handle(s.mySchedules))
			r.Get("/user/reminders", s.handle(s.myReminders))
			r.Post("/user/reminders", s.handle(s.createReminder))
			r.Delete("/user/reminders/{id}", s.handle(s.deleteReminder))
			r.Post("/user/policies/{id}/accept", s.handle(s.acceptPolicy))
			r.Post("/user/procedures/{id}/accept", s.handle(s.acceptProcedure))

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireOwner(s.responder))
				s.adminRoutes(r)
			})
		})
	})

	web.Routes(r, s.settings, s.responder)

	return r
}

// Pipeline wraps the router in the canonical middleware order: request
// logging outermost, then CORS, session, CSRF, transport enforcement in prod,
// and compression innermost.
func (s *Server) Pipeline() http.Handler {
	mws := []httpmw.Middleware{
		httpmw.RequestLogging(s.log),
		httpmw.CORS(s.settings),
		s.sessions.Middleware(),
		httpmw.CSRF(httpmw.CSRFConfig{
			Secret:         []byte(s.settings.CSRFSecret),
			CookieName:     s.settings.CSRFCookieName,
			HeaderName:     s.settings.CSRFHeaderName,
			ExemptPrefixes: []string{s.settings.APIV1Prefix, s.settings.APIV2Prefix},
			Secure:         s.settings.IsProd(),
		}),
	}
	if s.settings.IsProd() {
		mws = append(mws, httpmw.TransportEnforcement(s.settings.AllowedHosts))
	}
	mws = append(mws, httpmw.Compression())

	return httpmw.Chain(s.Router(), mws...)
}
