package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/maghrebglobal/backoffice/auth"
	"github.com/maghrebglobal/backoffice/httpx"
	"github.com/maghrebglobal/backoffice/i18n"
	"github.com/maghrebglobal/backoffice/internal/config"
)

type AuthHandler struct {
	cfg config.AuthConfig
}

func NewAuthHandler(cfg config.AuthConfig) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

// Valid reports whether the operator named in a session is still the configured one.
func (h *AuthHandler) Valid(operator string) bool {
	return subtle.ConstantTimeCompare([]byte(operator), []byte(h.cfg.Username)) == 1
}

func (h *AuthHandler) check(username, password string) bool {
	if h.cfg.PasswordHash == "" || !h.Valid(strings.TrimSpace(username)) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(h.cfg.PasswordHash), []byte(password)) == nil
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		if _, ok := auth.OperatorFromContext(r.Context()); ok {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		render(w, r, "login.html", nil)
		return
	}

	var username, password string
	if httpx.IsJSONBody(r) {
		var in struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := decodeJSON(r, &in); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
			return
		}
		username, password = in.Username, in.Password
	} else {
		username = r.FormValue("username")
		password = r.FormValue("password")
	}

	if !h.check(username, password) {
		if httpx.IsJSONBody(r) || httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		render(w, r, "login.html", map[string]any{
			"Error":    i18n.T(lang(r), "invalid_credentials"),
			"Username": username,
		})
		return
	}

	auth.CreateSession(w, h.cfg.Username)
	if httpx.IsJSONBody(r) || httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]string{"operator": h.cfg.Username})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
