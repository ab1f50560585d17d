package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/maghrebglobal/backoffice/httpx"
	"github.com/maghrebglobal/backoffice/internal/models"
	"github.com/maghrebglobal/backoffice/internal/services"
	"github.com/maghrebglobal/backoffice/validation"
)

type DocumentHandler struct {
	svc *services.Backoffice
}

func NewDocumentHandler(svc *services.Backoffice) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// docPage describes the creation page of one document type.
type docPage struct {
	Type   models.DocType
	Title  string
	Action string
	Back   string
}

var (
	invoicePage  = docPage{Type: models.DocTypeInvoice, Title: "Nouvelle facture", Action: "/invoices", Back: "/invoices/new"}
	deliveryPage = docPage{Type: models.DocTypeDeliverySlip, Title: "Nouveau bon de livraison", Action: "/delivery-slips", Back: "/delivery-slips/new"}
)

type createFunc func(ctx context.Context, in services.DocumentInput) (*models.Document, error)

func (h *DocumentHandler) NewInvoice(w http.ResponseWriter, r *http.Request) {
	h.form(w, r, invoicePage, documentForm{}, nil)
}

func (h *DocumentHandler) NewDeliverySlip(w http.ResponseWriter, r *http.Request) {
	h.form(w, r, deliveryPage, documentForm{}, nil)
}

func (h *DocumentHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, invoicePage, h.svc.CreateInvoice)
}

func (h *DocumentHandler) CreateDeliverySlip(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, deliveryPage, h.svc.CreateDeliverySlip)
}

func (h *DocumentHandler) form(w http.ResponseWriter, r *http.Request, page docPage, form documentForm, errs validation.Violations) {
	if len(form.Lines) == 0 {
		form.Lines = []lineForm{{}}
	}
	company := h.svc.Company()
	render(w, r, "documents/new.html", map[string]any{
		"Page":      page,
		"IsInvoice": page.Type == models.DocTypeInvoice,
		"Clients":   h.svc.ActiveClients(),
		"Products":  h.svc.ActiveProducts(),
		"Form":      form,
		"Errors":    errs,
		"VATRate":   company.VATRate,
		"Currency":  company.CurrencyOrDefault(),
	})
}

func (h *DocumentHandler) create(w http.ResponseWriter, r *http.Request, page docPage, create createFunc) {
	var in services.DocumentInput
	var form documentForm
	if httpx.IsJSONBody(r) {
		var body documentJSON
		if err := decodeJSON(r, &body); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
			return
		}
		in = body.input()
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		form = parseDocumentForm(r)
		v := validation.Violations{}
		in = form.input(v)
		if !v.Empty() {
			w.WriteHeader(http.StatusUnprocessableEntity)
			h.form(w, r, page, form, v)
			return
		}
	}

	doc, err := create(r.Context(), in)
	if v := services.Violations(err); v != nil && !httpx.IsJSONBody(r) && !httpx.WantsJSON(r) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		h.form(w, r, page, form, v)
		return
	}
	if err != nil {
		fail(w, r, err, page.Back)
		return
	}
	done(w, r, http.StatusCreated, doc, "notice.document_created", "/history?type="+historyTab(doc.Type))
}

// Trash moves a document to the trash.
func (h *DocumentHandler) Trash(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	back := "/history"
	if d, ok := h.svc.Document(id); ok {
		back += "?type=" + historyTab(d.Type)
	}
	if err := h.svc.TrashDocument(r.Context(), id); err != nil {
		fail(w, r, err, back)
		return
	}
	done(w, r, http.StatusOK, map[string]any{"ok": true}, "notice.trashed", back)
}

// PDF downloads the document generated by the API, rendered locally when
// the API cannot provide it.
func (h *DocumentHandler) PDF(w http.ResponseWriter, r *http.Request) {
	data, name, err := h.svc.DocumentPDF(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, err, "/history")
		return
	}
	httpx.Attachment(w, "application/pdf", name, data)
}

// Print renders the document locally and shows it inline.
func (h *DocumentHandler) Print(w http.ResponseWriter, r *http.Request) {
	data, name, err := h.svc.RenderPDF(r.PathValue("id"))
	if err != nil {
		fail(w, r, err, "/history")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+name+`"`)
	_, _ = w.Write(data)
}

// History lists the documents of one type, newest first.
func (h *DocumentHandler) History(w http.ResponseWriter, r *http.Request) {
	tab := r.URL.Query().Get("type")
	kind := models.DocTypeInvoice
	if tab == "delivery" {
		kind = models.DocTypeDeliverySlip
	} else {
		tab = "invoices"
	}
	query := r.URL.Query().Get("q")
	docs := h.svc.History(kind, query)
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": docs, "total": len(docs)})
		return
	}
	company := h.svc.Company()
	render(w, r, "history.html", map[string]any{
		"Documents": docs,
		"Tab":       tab,
		"IsInvoice": kind == models.DocTypeInvoice,
		"Query":     query,
		"Currency":  company.CurrencyOrDefault(),
	})
}

func historyTab(t models.DocType) string {
	if t == models.DocTypeDeliverySlip {
		return "delivery"
	}
	return "invoices"
}

type lineForm struct {
	ProductID string
	Quantity  string
}

// documentForm keeps the raw values of the creation form.
type documentForm struct {
	ClientID string
	Date     string
	Lines    []lineForm
}

// parseDocumentForm reads the repeated product_id/quantity fields. Rows left
// completely blank are ignored.
func parseDocumentForm(r *http.Request) documentForm {
	f := documentForm{ClientID: r.PostFormValue("client_id"), Date: r.PostFormValue("date")}
	ids := r.PostForm["product_id"]
	qtys := r.PostForm["quantity"]
	for i, id := range ids {
		qty := ""
		if i < len(qtys) {
			qty = qtys[i]
		}
		if strings.TrimSpace(id) == "" && strings.TrimSpace(qty) == "" {
			continue
		}
		f.Lines = append(f.Lines, lineForm{ProductID: strings.TrimSpace(id), Quantity: strings.TrimSpace(qty)})
	}
	return f
}

func (f documentForm) input(v validation.Violations) services.DocumentInput {
	in := services.DocumentInput{ClientID: f.ClientID, Date: f.Date}
	for _, l := range f.Lines {
		qty, err := strconv.Atoi(l.Quantity)
		if err != nil && l.Quantity != "" {
			v["items"] = "invalid_number"
		}
		in.Lines = append(in.Lines, services.LineInput{ProductID: models.ProductID(l.ProductID), Quantity: qty})
	}
	return in
}

type documentJSON struct {
	ClientID string `json:"clientId"`
	Date     string `json:"date"`
	Lines    []struct {
		ProductID models.ProductID `json:"productId"`
		Quantity  int              `json:"quantity"`
	} `json:"lines"`
}

func (d documentJSON) input() services.DocumentInput {
	in := services.DocumentInput{ClientID: d.ClientID, Date: d.Date}
	for _, l := range d.Lines {
		in.Lines = append(in.Lines, services.LineInput{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return in
}
