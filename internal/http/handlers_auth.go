package http

import (
	"errors"
	"log/slog"
	"net/http"

	"expensedesk/internal/auth"
	"expensedesk/internal/core"
	"expensedesk/internal/storage"
)

type authPageData struct {
	Error   string
	Message string
	Roles   []core.Role
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "login.html", authPageData{})
	case http.MethodPost:
		s.handleLoginSubmit(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	username, password, err := parseCredentials(r)
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, r, "login.html", authPageData{Error: "Please fill in both username and password."})
		return
	}

	role, err := s.authSvc.Authenticate(r.Context(), username, password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		w.WriteHeader(http.StatusUnauthorized)
		s.render(w, r, "login.html", authPageData{Error: "Invalid username or password."})
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Login failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		s.render(w, r, "login.html", authPageData{Error: "Something went wrong. Please try again."})
		return
	}

	sess, err := s.sessions.Start(username, role)
	if err != nil {
		slog.ErrorContext(r.Context(), "Session start failed", "error", err, "username", username)
		w.WriteHeader(http.StatusInternalServerError)
		s.render(w, r, "login.html", authPageData{Error: "Something went wrong. Please try again."})
		return
	}

	setSessionCookie(w, sess.Token, sess.ExpiresAt)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if cookie, err := r.Cookie(sessionCookie); err == nil {
		s.sessions.Destroy(cookie.Value)
	}
	clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	selfServiceRoles := []core.Role{core.RoleEmployee, core.RoleDeveloper}

	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "register.html", authPageData{Roles: selfServiceRoles})
	case http.MethodPost:
		username, password, role, err := parseRegistration(r)
		if err != nil {
			w.WriteHeader(http.StatusUnprocessableEntity)
			s.render(w, r, "register.html", authPageData{
				Error: "Please provide a username, a password of at least 4 characters, and a role.",
				Roles: selfServiceRoles,
			})
			return
		}

		err = s.authSvc.Register(r.Context(), username, password, role)
		if errors.Is(err, storage.ErrUsernameTaken) {
			w.WriteHeader(http.StatusConflict)
			s.render(w, r, "register.html", authPageData{
				Error: "That username is already taken.",
				Roles: selfServiceRoles,
			})
			return
		}
		if err != nil {
			slog.ErrorContext(r.Context(), "Registration failed", "error", err, "username", username)
			w.WriteHeader(http.StatusInternalServerError)
			s.render(w, r, "register.html", authPageData{
				Error: "Something went wrong. Please try again.",
				Roles: selfServiceRoles,
			})
			return
		}

		s.render(w, r, "login.html", authPageData{Message: "Account created. You can sign in now."})
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
