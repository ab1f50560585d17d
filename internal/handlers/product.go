package handlers

import (
	"net/http"
	"strconv"

	"github.com/maghrebglobal/backoffice/httpx"
	"github.com/maghrebglobal/backoffice/internal/apiclient"
	"github.com/maghrebglobal/backoffice/internal/models"
	"github.com/maghrebglobal/backoffice/internal/services"
	"github.com/maghrebglobal/backoffice/validation"
)

type ProductHandler struct {
	svc *services.Backoffice
}

func NewProductHandler(svc *services.Backoffice) *ProductHandler {
	return &ProductHandler{svc: svc}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	products := h.svc.SearchProducts(query)
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": products, "total": len(products)})
		return
	}
	render(w, r, "products/index.html", map[string]any{
		"Products": products,
		"Query":    query,
		"Total":    len(products),
		"Form":     productForm{},
	})
}

func (h *ProductHandler) Edit(w http.ResponseWriter, r *http.Request) {
	p, ok := h.svc.Product(models.ProductID(r.PathValue("id")))
	if !ok || p.DeletedAt != nil {
		http.NotFound(w, r)
		return
	}
	render(w, r, "products/edit.html", map[string]any{"Product": p, "Form": formOf(p)})
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, "")
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := models.ProductID(r.PathValue("id"))
	if _, ok := h.svc.Product(id); !ok {
		fail(w, r, services.ErrNotFound, "/products")
		return
	}
	h.save(w, r, id)
}

func (h *ProductHandler) save(w http.ResponseWriter, r *http.Request, id models.ProductID) {
	var in apiclient.ProductInput
	var form productForm
	if httpx.IsJSONBody(r) {
		if err := decodeJSON(r, &in); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
			return
		}
	} else {
		form = productForm{Name: r.FormValue("nom"), Price: r.FormValue("prix_ht"), Format: r.FormValue("format")}
		v := validation.Violations{}
		in.Name = form.Name
		in.PriceHT = validation.ParseFloat("priceHT", form.Price, v)
		if form.Format != "" {
			format := form.Format
			in.Format = &format
		}
		if !v.Empty() {
			h.invalid(w, r, id, form, v)
			return
		}
	}
	in.ID = id

	err := h.svc.SaveProduct(r.Context(), in)
	if v := services.Violations(err); v != nil && !httpx.IsJSONBody(r) && !httpx.WantsJSON(r) {
		h.invalid(w, r, id, form, v)
		return
	}
	if err != nil {
		fail(w, r, err, "/products")
		return
	}
	status := http.StatusCreated
	if id != "" {
		status = http.StatusOK
	}
	done(w, r, status, map[string]any{"ok": true}, "notice.product_saved", "/products")
}

func (h *ProductHandler) invalid(w http.ResponseWriter, r *http.Request, id models.ProductID, form productForm, v validation.Violations) {
	w.WriteHeader(http.StatusUnprocessableEntity)
	if id != "" {
		p, _ := h.svc.Product(id)
		render(w, r, "products/edit.html", map[string]any{"Product": p, "Form": form, "Errors": v})
		return
	}
	products := h.svc.ActiveProducts()
	render(w, r, "products/index.html", map[string]any{
		"Products": products,
		"Total":    len(products),
		"Form":     form,
		"Errors":   v,
	})
}

// Delete moves a product to the trash.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.TrashProduct(r.Context(), models.ProductID(r.PathValue("id"))); err != nil {
		fail(w, r, err, "/products")
		return
	}
	done(w, r, http.StatusOK, map[string]any{"ok": true}, "notice.trashed", "/products")
}

// Destroy deletes a product on the API right away. The API refuses products
// still used by a document.
func (h *ProductHandler) Destroy(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteProduct(r.Context(), models.ProductID(r.PathValue("id"))); err != nil {
		fail(w, r, err, "/products")
		return
	}
	done(w, r, http.StatusOK, map[string]any{"ok": true}, "notice.product_deleted", "/products")
}

// productForm keeps the raw form values so a rejected form is shown back as typed.
type productForm struct {
	Name   string
	Price  string
	Format string
}

func formOf(p *models.Product) productForm {
	f := productForm{Name: p.Name, Price: strconv.FormatFloat(p.PriceHT, 'f', -1, 64)}
	if p.Format != nil {
		f.Format = *p.Format
	}
	return f
}
