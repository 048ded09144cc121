package httpmw

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// statusWriter records the final status code and stamps X-Process-Time just
// before headers flush, the last moment the header map is writable.
type statusWriter struct {
	http.ResponseWriter
	status int
	start  time.Time
	wrote  bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wrote {
		w.wrote = true
		w.status = status
		w.Header().Set("X-Process-Time", fmt.Sprintf("%.4f seconds", time.Since(w.start).Seconds()))
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wrote {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// RequestLogging is the outermost stage. It records method, URL, status and
// elapsed time once the response is produced. A panic is logged here and then
// re-raised so the recovery layer can still turn it into a 500.
func RequestLogging(log zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK, start: time.Now()}

			defer func() {
				elapsed := time.Since(sw.start)
				if rec := recover(); rec != nil {
					log.Error().
						Interface("panic", rec).
						Str("method", r.Method).
						Str("url", r.URL.String()).
						Dur("elapsed", elapsed).
						Msg("unhandled panic while processing request")
					panic(rec)
				}
				log.Info().
					Str("method", r.Method).
					Str("url", r.URL.String()).
					Int("status", sw.status).
					Dur("elapsed", elapsed).
					Msg("request")
			}()

			next.ServeHTTP(sw, r)
		})
	}
}
