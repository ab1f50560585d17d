package handlers

import (
	"net/http"

	"github.com/maghrebglobal/backoffice/httpx"
	"github.com/maghrebglobal/backoffice/internal/apiclient"
	"github.com/maghrebglobal/backoffice/internal/services"
)

const recentDocuments = 5

type DashboardHandler struct {
	svc *services.Backoffice
}

func NewDashboardHandler(svc *services.Backoffice) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

func (h *DashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	stats := h.svc.Stats()
	months := h.svc.MonthlyRevenue()
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"stats": stats, "monthly": months})
		return
	}
	render(w, r, "dashboard.html", map[string]any{
		"Stats":    stats,
		"Monthly":  months,
		"Recent":   h.svc.RecentDocuments(recentDocuments),
		"Company":  h.svc.Company(),
		"Currency": h.svc.Company().CurrencyOrDefault(),
	})
}

// Sync reloads clients and products from the API. A failed refresh keeps
// the cached collections and reports the classified error.
func (h *DashboardHandler) Sync(w http.ResponseWriter, r *http.Request) {
	back := r.FormValue("back")
	if back == "" || back[0] != '/' || (len(back) > 1 && back[1] == '/') {
		back = "/"
	}
	if err := h.svc.Sync(r.Context()); err != nil {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, statusFor(err), err.Error(), apiclient.Classify(err, lang(r)))
			return
		}
		flash(w, apiclient.Classify(err, lang(r)))
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	done(w, r, http.StatusOK, map[string]any{"ok": true}, "notice.synced", back)
}
