package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// ============================================================================
// TrustedRealIP Tests
// ============================================================================

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name       string
		trusted    []string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "trusted proxy with X-Real-IP",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.1.2.3:5555",
			headers:    map[string]string{"X-Real-IP": "203.0.113.7"},
			want:       "203.0.113.7",
		},
		{
			name:       "trusted proxy with X-Forwarded-For chain",
			trusted:    []string{"127.0.0.1"},
			remoteAddr: "127.0.0.1:5555",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.2, 10.0.0.1"},
			want:       "198.51.100.2",
		},
		{
			name:       "untrusted peer is ignored",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "192.0.2.1:5555",
			headers:    map[string]string{"X-Real-IP": "203.0.113.7"},
			want:       "192.0.2.1:5555",
		},
		{
			name:       "invalid header value is ignored",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.0.0.9:5555",
			headers:    map[string]string{"X-Real-IP": "not-an-ip"},
			want:       "10.0.0.9:5555",
		},
		{
			name:       "no trusted proxies configured",
			trusted:    nil,
			remoteAddr: "10.0.0.9:5555",
			headers:    map[string]string{"X-Real-IP": "203.0.113.7"},
			want:       "10.0.0.9:5555",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

// ============================================================================
// RequireSession Tests
// ============================================================================

func TestRequireSession(t *testing.T) {
	valid := func(token string) bool { return token == "good" }
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name     string
		enabled  bool
		path     string
		cookie   string
		wantCode int
		wantLoc  string
	}{
		{"gate disabled", false, "/", "", http.StatusNoContent, ""},
		{"valid session", true, "/", "good", http.StatusNoContent, ""},
		{"page without session redirects", true, "/", "", http.StatusSeeOther, "/login"},
		{"page with stale session redirects", true, "/preview/a/python", "stale", http.StatusSeeOther, "/login"},
		{"api without session is 401", true, "/api/candidates", "", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RequireSession(tt.enabled, valid, "/login")(ok)
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if loc := rec.Header().Get("Location"); loc != tt.wantLoc {
				t.Errorf("Location = %q, want %q", loc, tt.wantLoc)
			}
		})
	}
}

func TestPasswordMatches(t *testing.T) {
	tests := []struct {
		given, want string
		match       bool
	}{
		{"hunter2", "hunter2", true},
		{"hunter3", "hunter2", false},
		{"", "hunter2", false},
		{"", "", false},
	}
	for _, tt := range tests {
		if got := PasswordMatches(tt.given, tt.want); got != tt.match {
			t.Errorf("PasswordMatches(%q, %q) = %v, want %v", tt.given, tt.want, got, tt.match)
		}
	}
}

// ============================================================================
// Logger Tests
// ============================================================================

func TestLogger_CapturesStatusAndFlushes(t *testing.T) {
	var flushed bool
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
			flushed = true
		}
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/batch/progress", nil))

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	if !flushed || !rec.Flushed {
		t.Error("wrapped writer should support flushing")
	}
}
