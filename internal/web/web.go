// Package web serves the unauthenticated HTML routes and the static and
// media file mounts.
package web

import (
	"embed"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/forizec/forizec/internal/config"
	"github.com/forizec/forizec/internal/httperr"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pages = map[string]*template.Template{
	"home":    parsePage("home.html"),
	"about":   parsePage("about.html"),
	"contact": parsePage("contact.html"),
}

func parsePage(name string) *template.Template {
	return template.Must(template.ParseFS(templatesFS, "templates/layout.html", "templates/"+name))
}

// Routes mounts the public HTML pages, the health endpoint, and the static
// and media directories.
func Routes(r chi.Router, settings *config.Settings, responder *httperr.Responder) {
	r.Get("/", renderPage("home", responder))
	r.Get("/about", renderPage("about", responder))
	r.Get("/contact", renderPage("contact", responder))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"status": "ok"}`))
	})

	r.Get("/static/*", serveDir("/static/", settings.StaticDir, responder))
	r.Get("/media/*", serveDir("/media/", settings.MediaDir, responder))
}

func renderPage(name string, responder *httperr.Responder) http.HandlerFunc {
	tmpl := pages[name]
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.ExecuteTemplate(w, "layout", nil); err != nil {
			responder.Write(w, r, err)
		}
	}
}

// serveDir serves files below root, translating a missing file into the
// taxonomy's 404 rather than the stdlib's plain-text one.
func serveDir(prefix, root string, responder *httperr.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rel := strings.TrimPrefix(r.URL.Path, prefix)
		rel = filepath.Clean("/" + rel)

		path := filepath.Join(root, rel)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			responder.Write(w, r, httperr.Classify(os.ErrNotExist))
			return
		}

		http.ServeFile(w, r, path)
	}
}
