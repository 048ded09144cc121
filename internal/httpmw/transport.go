package httpmw

import (
	"net"
	"net/http"
	"strings"
)

// TransportEnforcement is the production-only stage: plain HTTP is redirected
// to HTTPS, and the Host header must match the allow-list. An entry of the
// form "*.example.com" matches the domain and any subdomain.
func TransportEnforcement(allowedHosts []string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.TLS == nil && !strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
				u := *r.URL
				u.Scheme = "https"
				u.Host = r.Host
				http.Redirect(w, r, u.String(), http.StatusTemporaryRedirect)
				return
			}

			if !hostAllowed(r.Host, allowedHosts) {
				http.Error(w, "Invalid host header", http.StatusBadRequest)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func hostAllowed(host string, allowed []string) bool {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(host)

	for _, pattern := range allowed {
		pattern = strings.ToLower(pattern)
		if pattern == "*" || pattern == host {
			return true
		}
		if suffix, ok := strings.CutPrefix(pattern, "*."); ok {
			if strings.HasSuffix(host, "."+suffix) || host == suffix {
				return true
			}
		}
	}
	return false
}
