package web

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/forizec/forizec/internal/config"
	"github.com/forizec/forizec/internal/httperr"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	staticDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "main.css"), []byte("body{}"), 0o644))

	settings := &config.Settings{StaticDir: staticDir, MediaDir: t.TempDir()}
	responder := &httperr.Responder{Log: zerolog.Nop()}

	r := chi.NewRouter()
	Routes(r, settings, responder)
	return r
}

func TestHTMLPages(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		path     string
		contains []string
	}{
		{"/", []string{"<h1>Welcome to Forizec</h1>", "<title>Forizec</title>", "<footer>"}},
		{"/about", []string{"<h1>About Forizec</h1>", "<title>About</title>", "<footer>"}},
		{"/contact", []string{"<h1>Contact Us</h1>", "<title>Contact</title>", "<footer>"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
			for _, want := range tt.contains {
				require.Contains(t, rec.Body.String(), want)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestStaticFiles(t *testing.T) {
	h := newTestRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/main.css", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "body{}", rec.Body.String())
}

func TestMissingStaticFileIs404(t *testing.T) {
	h := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/static/missing.js", nil)
	req.Header.Set("Accept", "application/json")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "File not found")
}

func TestStaticPathTraversalIsBlocked(t *testing.T) {
	h := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/static/../secret.txt", nil)
	req.Header.Set("Accept", "application/json")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.NotEqual(t, http.StatusOK, rec.Code)
}
