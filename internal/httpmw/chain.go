// Package httpmw holds the request pipeline. The stages compose as nested
// scopes: the first middleware given to Chain is outermost, seeing the raw
// request first and the final response last. The canonical order is request
// logging, CORS, session, CSRF, transport enforcement (prod only), then
// compression innermost.
package httpmw

import "net/http"

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// Chain composes middlewares around h. The first middleware is outermost.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
