package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

type ctxKey string

const (
	sessionCookieName = "session"
	operatorCtxKey    = ctxKey("operator")
	sessionLifetime   = 14 * 24 * time.Hour
)

// OperatorVerifier is an optional callback to validate that a session's operator is still allowed.
// Set it during app bootstrap via SetOperatorVerifier. If nil, no extra verification is performed.
type OperatorVerifier func(ctx context.Context, operator string) bool

var (
	mu       sync.RWMutex
	verifier OperatorVerifier
	secret   string
)

// SetOperatorVerifier configures the global verifier used by RequireAuth.
func SetOperatorVerifier(v OperatorVerifier) {
	mu.Lock()
	verifier = v
	mu.Unlock()
}

// SetSecret configures the session signing secret.
func SetSecret(s string) {
	mu.Lock()
	secret = s
	mu.Unlock()
}

// Secret returns the configured secret, then SESSION_SECRET, then a dev value.
func Secret() string {
	mu.RLock()
	s := secret
	mu.RUnlock()
	if s != "" {
		return s
	}
	if s := os.Getenv("SESSION_SECRET"); s != "" {
		return s
	}
	return "devsessionsecret"
}

func sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(Secret()))
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// CreateSession sets a signed cookie naming the operator.
func CreateSession(w http.ResponseWriter, operator string) {
	payload := base64.RawURLEncoding.EncodeToString([]byte(operator))
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    payload + "." + sign(payload),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(sessionLifetime),
	})
}

// ClearSession deletes the session cookie.
func ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Value: "", Path: "/", Expires: time.Unix(0, 0), HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

// ParseSession validates the cookie and returns the operator name.
func ParseSession(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	payload, sig, ok := strings.Cut(c.Value, ".")
	if !ok {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(sign(payload))) {
		return "", false
	}
	name, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil || len(name) == 0 {
		return "", false
	}
	return string(name), true
}

// WithOperator stores the operator name in context.
func WithOperator(ctx context.Context, operator string) context.Context {
	return context.WithValue(ctx, operatorCtxKey, operator)
}

// OperatorFromContext extracts the operator name.
func OperatorFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(operatorCtxKey).(string)
	return name, ok && name != ""
}

// Middleware attaches the operator to the request context if a valid session is present.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if name, ok := ParseSession(r); ok {
			r = r.WithContext(WithOperator(r.Context(), name))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth redirects to /login if not authenticated (HTML) or returns 401 JSON.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, ok := OperatorFromContext(r.Context())
		if ok {
			mu.RLock()
			v := verifier
			mu.RUnlock()
			if v != nil && !v(r.Context(), name) {
				// the configured operator changed since the cookie was issued
				ClearSession(w)
				ok = false
			}
		}
		if !ok {
			accept := r.Header.Get("Accept")
			if strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				fmt.Fprint(w, `{"error":"unauthorized"}`)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
