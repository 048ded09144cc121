package httpmw

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// Compression is the innermost stage so it compresses the final body after
// every other transform has run.
func Compression() Middleware {
	return func(next http.Handler) http.Handler {
		return gzhttp.GzipHandler(next)
	}
}
