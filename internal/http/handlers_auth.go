package http

import (
	"errors"
	"log/slog"
	"net/http"

	"ledger/internal/services"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedResponse(http.MethodPost).Write(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		NewResponse().Status(http.StatusBadRequest).Write(w, r)
		return
	}

	email := formValue(r, "email")
	password := r.FormValue("password")
	if email == "" || password == "" {
		NewResponse().Status(http.StatusBadRequest).Write(w, r)
		return
	}

	token, err := s.auth.Login(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			ForbiddenResponse().Write(w, r)
			return
		}
		slog.ErrorContext(r.Context(), "Login failed", "error", err)
		InternalErrorResponse().Write(w, r)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	NewResponse().Write(w, r)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedResponse(http.MethodPost).Write(w, r)
		return
	}

	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if err := s.auth.Logout(r.Context(), cookie.Value); err != nil {
			slog.ErrorContext(r.Context(), "Logout failed", "error", err)
			InternalErrorResponse().Write(w, r)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	NewResponse().Write(w, r)
}
