package handlers

import (
	"net/http"

	"github.com/maghrebglobal/backoffice/httpx"
	"github.com/maghrebglobal/backoffice/i18n"
	"github.com/maghrebglobal/backoffice/internal/apiclient"
	"github.com/maghrebglobal/backoffice/internal/services"
)

type TrashHandler struct {
	svc *services.Backoffice
}

func NewTrashHandler(svc *services.Backoffice) *TrashHandler {
	return &TrashHandler{svc: svc}
}

func (h *TrashHandler) List(w http.ResponseWriter, r *http.Request) {
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, h.svc.Trash())
		return
	}
	render(w, r, "trash.html", h.page(r))
}

func (h *TrashHandler) page(r *http.Request) map[string]any {
	tv := h.svc.Trash()
	tab := services.KindClients
	if k, err := services.ParseKind(r.URL.Query().Get("tab")); err == nil {
		tab = k
	}
	counts := make(map[services.Kind]int, len(services.Kinds))
	for _, k := range services.Kinds {
		counts[k] = tv.Len(k)
	}
	return map[string]any{
		"Trash":    tv,
		"Tab":      string(tab),
		"Kinds":    services.Kinds,
		"Counts":   counts,
		"Currency": h.svc.Company().CurrencyOrDefault(),
	}
}

func (h *TrashHandler) Restore(w http.ResponseWriter, r *http.Request) {
	kind, err := services.ParseKind(r.PathValue("kind"))
	back := "/trash?tab=" + r.PathValue("kind")
	if err != nil {
		fail(w, r, err, "/trash")
		return
	}
	if err := h.svc.Restore(r.Context(), kind, r.PathValue("id")); err != nil {
		fail(w, r, err, back)
		return
	}
	done(w, r, http.StatusOK, map[string]any{"ok": true}, "notice.restored", back)
}

// Purge deletes a trashed entity for good. The request must carry confirm=yes.
func (h *TrashHandler) Purge(w http.ResponseWriter, r *http.Request) {
	kind, err := services.ParseKind(r.PathValue("kind"))
	back := "/trash?tab=" + r.PathValue("kind")
	if err != nil {
		fail(w, r, err, "/trash")
		return
	}
	if r.FormValue("confirm") != "yes" {
		msg := i18n.T(lang(r), "confirm_required")
		if httpx.WantsJSON(r) || httpx.IsJSONBody(r) {
			httpx.JSONError(w, http.StatusBadRequest, "confirm_required", msg)
			return
		}
		data := h.page(r)
		data["Tab"] = string(kind)
		data["Notice"] = apiclient.Notification{Level: apiclient.LevelWarning, Title: msg}
		w.WriteHeader(http.StatusBadRequest)
		render(w, r, "trash.html", data)
		return
	}
	if err := h.svc.Purge(r.Context(), kind, r.PathValue("id")); err != nil {
		fail(w, r, err, back)
		return
	}
	done(w, r, http.StatusOK, map[string]any{"ok": true}, "notice.purged", back)
}
