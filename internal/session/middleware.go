package session

import (
	"net/http"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Protected reports whether urlPath matches any of the glob patterns.
// Patterns support ** via doublestar.
func Protected(urlPath string, patterns []string) bool {
	p := "/" + strings.TrimPrefix(urlPath, "/")
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(pattern, p); err == nil && matched {
			return true
		}
	}
	return false
}

// RequireToken redirects to the home page when a request for a protected
// path arrives without a stored token. It must run inside Manager.Middleware.
func RequireToken(patterns []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !Protected(r.URL.Path, patterns) {
				next.ServeHTTP(w, r)
				return
			}
			sess := FromContext(r.Context())
			if sess == nil || !sess.HasToken(r.Context()) {
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
