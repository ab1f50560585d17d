package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"

	"github.com/maghrebglobal/backoffice/httpx"
	"github.com/maghrebglobal/backoffice/i18n"
	"github.com/maghrebglobal/backoffice/internal/apiclient"
	"github.com/maghrebglobal/backoffice/internal/services"
	"github.com/maghrebglobal/backoffice/view"
)

const noticeCookie = "notice"

func lang(r *http.Request) string { return i18n.LangFromContext(r.Context()) }

// flash stores a notice shown by the next rendered page.
func flash(w http.ResponseWriter, n apiclient.Notification) {
	b, err := json.Marshal(n)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     noticeCookie,
		Value:    base64.RawURLEncoding.EncodeToString(b),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeNotice reads and clears the pending notice.
func takeNotice(w http.ResponseWriter, r *http.Request) *apiclient.Notification {
	c, err := r.Cookie(noticeCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: noticeCookie, Value: "", Path: "/", MaxAge: -1})
	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var n apiclient.Notification
	if err := json.Unmarshal(raw, &n); err != nil || n.Title == "" {
		return nil
	}
	return &n
}

// render adds the pending notice to data and renders the page.
func render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["Notice"]; !ok {
		if n := takeNotice(w, r); n != nil {
			data["Notice"] = n
		}
	}
	if err := view.Render(w, r, name, data); err != nil {
		http.Error(w, "Failed to render template: "+err.Error(), http.StatusInternalServerError)
	}
}

// statusFor maps a service error to an HTTP status for JSON clients.
func statusFor(err error) int {
	switch {
	case services.Violations(err) != nil:
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrUnknownKind):
		return http.StatusNotFound
	case errors.Is(err, apiclient.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apiclient.ErrForbidden), errors.Is(err, apiclient.ErrServer),
		errors.Is(err, apiclient.ErrNetwork), errors.Is(err, apiclient.ErrAPI):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// notice turns an error into the operator notice.
func notice(r *http.Request, err error) apiclient.Notification {
	l := lang(r)
	if errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrUnknownKind) {
		return apiclient.Notification{Level: apiclient.LevelError, Title: i18n.T(l, "not_found")}
	}
	return apiclient.Classify(err, l)
}

// fail answers err as JSON or flashes it and redirects back.
func fail(w http.ResponseWriter, r *http.Request, err error, back string) {
	if httpx.WantsJSON(r) || httpx.IsJSONBody(r) {
		httpx.JSONError(w, statusFor(err), err.Error(), notice(r, err))
		return
	}
	flash(w, notice(r, err))
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// done answers a successful mutation.
func done(w http.ResponseWriter, r *http.Request, status int, payload any, titleCode, back string) {
	if httpx.WantsJSON(r) || httpx.IsJSONBody(r) {
		httpx.JSON(w, status, payload)
		return
	}
	flash(w, apiclient.Success(lang(r), titleCode, ""))
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
