package handlers

import (
	"net/http"
	"strings"

	"github.com/maghrebglobal/backoffice/httpx"
	"github.com/maghrebglobal/backoffice/internal/models"
	"github.com/maghrebglobal/backoffice/internal/services"
	"github.com/maghrebglobal/backoffice/validation"
)

type CompanyHandler struct {
	svc *services.Backoffice
}

func NewCompanyHandler(svc *services.Backoffice) *CompanyHandler {
	return &CompanyHandler{svc: svc}
}

// Edit shows the company settings form.
func (h *CompanyHandler) Edit(w http.ResponseWriter, r *http.Request) {
	settings := h.svc.Company()
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, settings)
		return
	}
	render(w, r, "settings.html", map[string]any{
		"Settings": settings,
		"Phones":   strings.Join(settings.Phones, "\n"),
	})
}

// Update saves the company settings.
func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var settings models.CompanyInfo
	if httpx.IsJSONBody(r) {
		if err := decodeJSON(r, &settings); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		v := validation.Violations{}
		settings = models.CompanyInfo{
			Name:        r.FormValue("name"),
			Activity:    r.FormValue("activity"),
			Address:     r.FormValue("address"),
			Phones:      strings.Split(r.FormValue("phones"), "\n"),
			Email:       r.FormValue("email"),
			ICE:         r.FormValue("ice"),
			RC:          r.FormValue("rc"),
			IF:          r.FormValue("if"),
			BankDetails: r.FormValue("bank_details"),
			LogoURL:     r.FormValue("logo_url"),
			VATRate:     validation.ParseFloat("vatRate", r.FormValue("vat_rate"), v),
			Currency:    strings.TrimSpace(r.FormValue("currency")),
		}
		if !v.Empty() {
			h.invalid(w, r, settings, r.FormValue("phones"), v)
			return
		}
	}

	err := h.svc.UpdateCompany(r.Context(), settings)
	if v := services.Violations(err); v != nil && !httpx.IsJSONBody(r) && !httpx.WantsJSON(r) {
		h.invalid(w, r, settings, r.FormValue("phones"), v)
		return
	}
	if err != nil {
		fail(w, r, err, "/settings")
		return
	}
	done(w, r, http.StatusOK, h.svc.Company(), "notice.saved", "/settings")
}

func (h *CompanyHandler) invalid(w http.ResponseWriter, r *http.Request, settings models.CompanyInfo, phones string, v validation.Violations) {
	w.WriteHeader(http.StatusUnprocessableEntity)
	render(w, r, "settings.html", map[string]any{
		"Settings": settings,
		"Phones":   phones,
		"Errors":   v,
	})
}
