package http

import (
	"log/slog"
	"net/http"

	"centavo/internal/auth"
)

type authPageData struct {
	Message     string
	FieldErrors map[string]string
	Name        string
	Email       string
}

func (s *Server) renderAuthPage(w http.ResponseWriter, r *http.Request, name string, status int, data authPageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "template execution failed", "template", name, "error", err)
	}
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	// An authenticated user has no business on the login page.
	if token := auth.TokenFromRequest(r); token != "" {
		if _, err := s.auth.CurrentUser(r.Context(), token); err == nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	}
	s.renderAuthPage(w, r, "login.html", http.StatusOK, authPageData{})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderAuthPage(w, r, "login.html", http.StatusBadRequest, authPageData{Message: "Invalid request"})
		return
	}

	in := auth.LoginInput{
		Email:    r.Form.Get("email"),
		Password: r.Form.Get("password"),
	}
	result, err := s.auth.Login(r.Context(), in)
	if err != nil {
		slog.ErrorContext(r.Context(), "login failed", "error", err)
		s.renderAuthPage(w, r, "login.html", http.StatusInternalServerError, authPageData{Message: "Something went wrong"})
		return
	}
	if !result.Success {
		s.renderAuthPage(w, r, "login.html", http.StatusUnauthorized, authPageData{
			Message: result.Message,
			Email:   in.Email,
		})
		return
	}

	auth.SetSessionCookie(w, result.Token, s.sessionTTL, s.secure)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	s.renderAuthPage(w, r, "register.html", http.StatusOK, authPageData{})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderAuthPage(w, r, "register.html", http.StatusBadRequest, authPageData{Message: "Invalid request"})
		return
	}

	in := auth.RegisterInput{
		Name:            sanitizeInput(r.Form.Get("name")),
		Email:           r.Form.Get("email"),
		Password:        r.Form.Get("password"),
		ConfirmPassword: r.Form.Get("confirmPassword"),
	}
	result, err := s.auth.Register(r.Context(), in)
	if err != nil {
		slog.ErrorContext(r.Context(), "registration failed", "error", err)
		s.renderAuthPage(w, r, "register.html", http.StatusInternalServerError, authPageData{Message: "Something went wrong"})
		return
	}
	if !result.Success {
		s.renderAuthPage(w, r, "register.html", http.StatusUnprocessableEntity, authPageData{
			Message:     result.Message,
			FieldErrors: result.FieldErrors,
			Name:        in.Name,
			Email:       in.Email,
		})
		return
	}

	auth.SetSessionCookie(w, result.Token, s.sessionTTL, s.secure)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, s.secure)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
