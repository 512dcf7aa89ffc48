package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
)

// SessionCookie is the name of the cookie holding the admin session token.
const SessionCookie = "certbatch_session"

// SessionValidator reports whether a session token is live.
type SessionValidator func(token string) bool

// RequireSession returns middleware that admits only requests carrying a
// live session cookie. API requests without one get 401 JSON; page requests
// are redirected to loginPath. When enabled is false every request passes.
func RequireSession(enabled bool, valid SessionValidator, loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}

			if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" && valid(c.Value) {
				next.ServeHTTP(w, r)
				return
			}

			slog.Debug("auth: no valid session",
				"path", r.URL.Path,
				"method", r.Method,
				"remote_addr", r.RemoteAddr,
			)

			if strings.HasPrefix(r.URL.Path, "/api/") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"sign in required","message":"Please sign in","code":"AUTH002"}`))
				return
			}
			http.Redirect(w, r, loginPath, http.StatusSeeOther)
		})
	}
}

// PasswordMatches compares a submitted password with the configured one in
// constant time. An empty configured password never matches.
func PasswordMatches(given, want string) bool {
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(given), []byte(want)) == 1
}
