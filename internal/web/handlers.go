package web

import (
	"errors"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/certbatch/internal/core"
	"github.com/JonMunkholm/certbatch/internal/course"
	"github.com/JonMunkholm/certbatch/internal/logging"
	mw "github.com/JonMunkholm/certbatch/internal/web/middleware"
	"github.com/JonMunkholm/certbatch/internal/web/views"
)

var errInvalidPassword = errors.New("invalid password")

// render writes an HTML component with the given status.
func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "path", r.URL.Path, "error", err)
	}
}

// handleDashboard renders the batch page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	params := views.DashboardParams{
		Candidates:  s.service.Candidates(),
		Stats:       s.service.Stats(),
		Running:     s.service.Running(),
		SignOut:     s.cfg.Auth.Enabled,
		MaxFileSize: s.service.Options().MaxFileSize,
	}
	if st, err := s.service.RunStatus(""); err == nil {
		params.RunID = st.ID
	}
	render(w, r, http.StatusOK, views.Dashboard(params))
}

// handlePreview renders the certificate of one candidate and course as HTML.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	crs, ok := course.ParseSlug(chi.URLParam(r, "course"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	cand, content, err := s.service.Preview(chi.URLParam(r, "candidateID"), crs)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	render(w, r, http.StatusOK, views.CertificatePreview(views.PreviewParams{
		Candidate: cand,
		Course:    crs,
		Content:   content,
		SignOut:   s.cfg.Auth.Enabled,
	}))
}

// handleLoginPage renders the password form, or skips it when the gate is off.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Auth.Enabled {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	templ.Handler(views.LoginPage("")).ServeHTTP(w, r)
}

// handleLogin checks the admin password and starts a session.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Auth.Enabled {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		render(w, r, http.StatusBadRequest, views.LoginPage("The form could not be read"))
		return
	}

	if !mw.PasswordMatches(r.PostFormValue("password"), s.cfg.Auth.AdminPassword) {
		logging.FromContext(r.Context()).Warn("login failed", "ip", r.RemoteAddr)
		render(w, r, http.StatusUnauthorized, views.LoginPage(core.MapError(errInvalidPassword).Message))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     mw.SessionCookie,
		Value:    s.sessions.create(),
		Path:     "/",
		MaxAge:   int(s.cfg.Auth.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	logging.FromContext(r.Context()).Info("login succeeded", "ip", r.RemoteAddr)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLogout ends the session.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(mw.SessionCookie); err == nil {
		s.sessions.revoke(c.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     mw.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
