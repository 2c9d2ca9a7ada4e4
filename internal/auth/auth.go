package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/solucal/solucal/internal/config"
	"github.com/solucal/solucal/internal/rest"
	"golang.org/x/crypto/bcrypt"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "solucal_session"

// Handler implements the login gate: credential check against the configured
// bcrypt hash, session issuing, and the middleware protecting mutation routes.
type Handler struct {
	cfg      config.Auth
	sessions *Sessions
	// secureCookies marks session cookies Secure when the public host is
	// served over https.
	secureCookies bool
}

func NewHandler(cfg config.Auth, sessions *Sessions, publicHost string) *Handler {
	return &Handler{
		cfg:           cfg,
		sessions:      sessions,
		secureCookies: strings.HasPrefix(publicHost, "https://"),
	}
}

// Enabled reports whether the gate is active. Without configured credentials
// the application runs open, which is intended for local development only.
func (h *Handler) Enabled() bool {
	return h.cfg.Username != "" && h.cfg.PasswordHash != ""
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var credentials struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		if encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error: "Invalid request body format",
		}); encodeErr != nil {
			http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
		}
		return
	}

	if !h.Enabled() {
		http.Error(w, "authentication is not configured", http.StatusServiceUnavailable)
		return
	}

	if credentials.Username != h.cfg.Username ||
		bcrypt.CompareHashAndPassword([]byte(h.cfg.PasswordHash), []byte(credentials.Password)) != nil {
		log.Debugf("failed login attempt for user %q", credentials.Username)
		w.WriteHeader(http.StatusUnauthorized)
		if encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error: "Invalid username or password",
		}); encodeErr != nil {
			http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
		}
		return
	}

	token := h.sessions.Start()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		h.sessions.End(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:   SessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Gate is a middleware that rejects unauthenticated mutations of the API.
// Reads stay public so the calendar views and the embed widget work without
// a login; the auth endpoints themselves are always reachable.
func (h *Handler) Gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.Enabled() || !isMutation(r) || strings.HasPrefix(r.URL.Path, "/api/auth/") {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(SessionCookie)
		if err != nil || !h.sessions.Valid(cookie.Value) {
			log.Debugf("rejected unauthenticated %s %s", r.Method, r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			if encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{
				Error: "Login required",
			}); encodeErr != nil {
				http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
			}
			return
		}

		next.ServeHTTP(w, r)
	})
}

func isMutation(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
