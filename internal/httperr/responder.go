package httperr

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"
)

// Responder writes exactly one response per failure. In debug mode internal
// errors carry their cause and a stack trace; in production the client sees
// only the taxonomy's fixed messages. Outages are always generic either way.
type Responder struct {
	Log   zerolog.Logger
	Debug bool
}

func wantHTML(r *http.Request) bool {
	return strings.Contains(strings.ToLower(r.Header.Get("Accept")), "text/html")
}

// Write classifies err and renders it. The format is negotiated from the
// Accept header: text/html gets a small HTML fragment, everything else gets
// JSON with a detail field.
func (rp *Responder) Write(w http.ResponseWriter, r *http.Request, err error) {
	e := Classify(err)

	// Outages are the one kind logged above the rest; the cause stays
	// server-side so connection strings never reach a client.
	ev := rp.Log.Warn()
	if e.Kind == KindUnavailable {
		ev = rp.Log.Error().Str("severity", "outage")
	}
	ev.Err(err).
		Str("kind", e.Kind.String()).
		Int("status", e.Status).
		Str("method", r.Method).
		Str("url", r.URL.String()).
		Msg("request failed")

	if wantHTML(r) {
		rp.writeHTML(w, e)
		return
	}
	rp.writeJSON(w, e)
}

func (rp *Responder) writeHTML(w http.ResponseWriter, e *E) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(e.Status)

	switch e.Kind {
	case KindValidation:
		fmt.Fprintf(w, "<h1>Validation error occurred.</h1><pre>%s</pre>", html.EscapeString(fieldSummary(e.Fields)))
	case KindConstraint:
		fmt.Fprintf(w, "<h1>Integrity error occurred.</h1><pre>%s</pre>", html.EscapeString(e.Detail))
	case KindInternal:
		detail := "An unexpected error occurred."
		if rp.Debug && e.Err != nil {
			detail = e.Err.Error()
		}
		fmt.Fprintf(w, "<h1>Internal Server Error</h1><p>%s</p>", html.EscapeString(detail))
	default:
		fmt.Fprintf(w, "<h1>%d Error</h1><p>%s</p>", e.Status, html.EscapeString(e.Detail))
	}
}

func (rp *Responder) writeJSON(w http.ResponseWriter, e *E) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(e.Status)

	body := map[string]any{"detail": e.Detail}

	switch e.Kind {
	case KindValidation:
		body["detail"] = e.Fields
		body["body"] = e.Body
	case KindInternal:
		if rp.Debug {
			if e.Err != nil {
				body["detail"] = e.Err.Error()
			}
			body["traceback"] = string(debug.Stack())
		}
	}

	_ = json.NewEncoder(w).Encode(body)
}

func fieldSummary(fields map[string]string) string {
	if len(fields) == 0 {
		return ""
	}
	parts := make([]string, 0, len(fields))
	for name, msg := range fields {
		parts = append(parts, name+": "+msg)
	}
	return strings.Join(parts, "\n")
}
