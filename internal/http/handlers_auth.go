package http

import (
	"errors"
	"log/slog"
	"net/http"

	"cashflow/internal/users"
)

type loginPage struct {
	Error string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	// Already logged in? Straight to the dashboard.
	if _, ok := s.sessions.resolve(sessionToken(r)); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, "login.html", loginPage{})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse login form error", "error", err)
		s.render(w, r, "login.html", loginPage{Error: "Invalid request"})
		return
	}

	username := sanitizeInput(r.Form.Get("username"))
	pin := sanitizeInput(r.Form.Get("pin"))

	if err := s.users.VerifyPIN(username, pin); err != nil {
		if !errors.Is(err, users.ErrUnknownUser) && !errors.Is(err, users.ErrWrongPIN) {
			slog.ErrorContext(r.Context(), "PIN verification error", "error", err, "username", username)
		}
		// Same message for unknown user and wrong PIN.
		w.WriteHeader(http.StatusUnauthorized)
		s.render(w, r, "login.html", loginPage{Error: "Wrong username or PIN"})
		return
	}

	token := s.sessions.create(username)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	slog.InfoContext(r.Context(), "User logged in", "username", username)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		s.sessions.destroy(token)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
