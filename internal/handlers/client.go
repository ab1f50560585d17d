package handlers

import (
	"net/http"

	"github.com/maghrebglobal/backoffice/httpx"
	"github.com/maghrebglobal/backoffice/internal/apiclient"
	"github.com/maghrebglobal/backoffice/internal/services"
)

type ClientHandler struct {
	svc *services.Backoffice
}

func NewClientHandler(svc *services.Backoffice) *ClientHandler {
	return &ClientHandler{svc: svc}
}

func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	clients := h.svc.SearchClients(query)
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": clients, "total": len(clients)})
		return
	}
	render(w, r, "clients/index.html", map[string]any{
		"Clients": clients,
		"Query":   query,
		"Total":   len(clients),
	})
}

func (h *ClientHandler) New(w http.ResponseWriter, r *http.Request) {
	render(w, r, "clients/new.html", map[string]any{"Client": apiclient.ClientInput{}})
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in apiclient.ClientInput
	if httpx.IsJSONBody(r) {
		if err := decodeJSON(r, &in); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
			return
		}
	} else {
		in = apiclient.ClientInput{
			Name:    r.FormValue("name"),
			ICE:     r.FormValue("ice"),
			Phone:   r.FormValue("telephone"),
			Address: r.FormValue("adresse"),
		}
	}

	err := h.svc.CreateClient(r.Context(), in)
	if v := services.Violations(err); v != nil && !httpx.IsJSONBody(r) && !httpx.WantsJSON(r) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		render(w, r, "clients/new.html", map[string]any{"Client": in, "Errors": v})
		return
	}
	if err != nil {
		fail(w, r, err, "/clients/new")
		return
	}
	done(w, r, http.StatusCreated, map[string]any{"ok": true}, "notice.saved", "/clients")
}

// Delete moves a client to the trash.
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.TrashClient(r.Context(), r.PathValue("id")); err != nil {
		fail(w, r, err, "/clients")
		return
	}
	done(w, r, http.StatusOK, map[string]any{"ok": true}, "notice.trashed", "/clients")
}

// Destroy deletes a client on the API right away, skipping the trash.
func (h *ClientHandler) Destroy(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteClient(r.Context(), r.PathValue("id")); err != nil {
		fail(w, r, err, "/clients")
		return
	}
	done(w, r, http.StatusOK, map[string]any{"ok": true}, "notice.client_deleted", "/clients")
}
