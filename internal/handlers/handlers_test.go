package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/maghrebglobal/backoffice/auth"
	"github.com/maghrebglobal/backoffice/internal/apiclient"
	"github.com/maghrebglobal/backoffice/internal/config"
	"github.com/maghrebglobal/backoffice/internal/models"
	"github.com/maghrebglobal/backoffice/internal/services"
)

func decode(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

func TestClientCreateListAndTrash(t *testing.T) {
	svc, _ := setupService(t)
	h := NewClientHandler(svc)

	w := httptest.NewRecorder()
	h.Create(w, operatorRequest(http.MethodPost, "/clients", `{"name":"Sahara Trade","ice":"123"}`))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	h.List(w, jsonRequest(http.MethodGet, "/clients?q=sahara", ""))
	require.Equal(t, http.StatusOK, w.Code)
	var payload struct {
		Items []models.Client `json:"items"`
		Total int             `json:"total"`
	}
	decode(t, w, &payload)
	require.Equal(t, 1, payload.Total)
	assert.Equal(t, "Sahara Trade", payload.Items[0].Name)

	// HTML form without a name is shown back
	w = httptest.NewRecorder()
	h.Create(w, operatorRequest(http.MethodPost, "/clients", form(map[string][]string{"ice": {"9"}})))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Requis")

	req := operatorRequest(http.MethodPost, "/clients/2/delete", "")
	req.SetPathValue("id", "2")
	w = httptest.NewRecorder()
	h.Delete(w, req)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/clients", w.Header().Get("Location"))
	assert.Len(t, svc.ActiveClients(), 2)
	assert.Equal(t, 1, svc.TrashCount())
}

func TestClientList_HTML(t *testing.T) {
	svc, _ := setupService(t)
	w := httptest.NewRecorder()
	NewClientHandler(svc).List(w, operatorRequest(http.MethodGet, "/clients", ""))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Atlas Distribution")
	assert.Contains(t, w.Body.String(), "Rif Négoce")
}

func TestProductSaveAndDelete(t *testing.T) {
	svc, _ := setupService(t)
	h := NewProductHandler(svc)

	w := httptest.NewRecorder()
	h.Create(w, operatorRequest(http.MethodPost, "/products", form(map[string][]string{"nom": {"Sucre"}, "prix_ht": {"12,5"}})))
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	got := svc.SearchProducts("sucre")
	require.Len(t, got, 1)
	assert.Equal(t, 12.5, got[0].PriceHT)

	w = httptest.NewRecorder()
	h.Create(w, operatorRequest(http.MethodPost, "/products", form(map[string][]string{"nom": {"Thé"}, "prix_ht": {"abc"}})))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Nombre invalide")

	req := jsonRequest(http.MethodPost, "/products/11", `{"nom":"Farine T55","prix_ht":50}`)
	req.SetPathValue("id", "11")
	w = httptest.NewRecorder()
	h.Update(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	p, ok := svc.Product("11")
	require.True(t, ok)
	assert.Equal(t, "Farine T55", p.Name)

	// product 10 is used by a document on the API side
	req = jsonRequest(http.MethodDelete, "/products/10", "")
	req.SetPathValue("id", "10")
	w = httptest.NewRecorder()
	h.Destroy(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
	var e struct {
		Details apiclient.Notification `json:"details"`
	}
	decode(t, w, &e)
	assert.Equal(t, "Suppression impossible", e.Details.Title)

	req = jsonRequest(http.MethodDelete, "/products/11", "")
	req.SetPathValue("id", "11")
	w = httptest.NewRecorder()
	h.Destroy(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	_, ok = svc.Product("11")
	assert.False(t, ok)
}

func TestDocumentCreateInvoiceFromForm(t *testing.T) {
	svc, _ := setupService(t)
	h := NewDocumentHandler(svc)

	body := form(map[string][]string{
		"client_id":  {"1"},
		"date":       {"2024-06-10"},
		"product_id": {"10", "11", ""},
		"quantity":   {"2", "4", ""},
	})
	w := httptest.NewRecorder()
	h.CreateInvoice(w, operatorRequest(http.MethodPost, "/invoices", body))
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	assert.Equal(t, "/history?type=invoices", w.Header().Get("Location"))

	docs := svc.History(models.DocTypeInvoice, "")
	require.Len(t, docs, 1)
	doc := docs[0]
	assert.Equal(t, "FAC-2024-001", doc.Number)
	assert.Equal(t, "Atlas Distribution", doc.ClientName)
	assert.Equal(t, models.DocStatusValidated, doc.Status)
	assert.InDelta(t, 394, doc.TotalHT, 1e-9)
	assert.InDelta(t, 78.8, doc.TotalTVA, 1e-9)
	assert.InDelta(t, 472.8, doc.TotalTTC, 1e-9)
	assert.Equal(t, "Farine", doc.Items[1].Name)
}

func TestDocumentCreate_Invalid(t *testing.T) {
	svc, api := setupService(t)
	h := NewDocumentHandler(svc)

	w := httptest.NewRecorder()
	h.CreateInvoice(w, operatorRequest(http.MethodPost, "/invoices", form(map[string][]string{"product_id": {"10"}, "quantity": {"1"}})))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Veuillez sélectionner un client.")

	w = httptest.NewRecorder()
	h.CreateDeliverySlip(w, jsonRequest(http.MethodPost, "/delivery-slips", `{"clientId":"1","lines":[]}`))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var e struct {
		Details apiclient.Notification `json:"details"`
	}
	decode(t, w, &e)
	assert.False(t, api.called("add_bl.php"))
}

func TestDocumentCreateDeliverySlip_JSON(t *testing.T) {
	svc, _ := setupService(t)
	h := NewDocumentHandler(svc)

	w := httptest.NewRecorder()
	h.CreateDeliverySlip(w, jsonRequest(http.MethodPost, "/delivery-slips", `{"clientId":"2","lines":[{"productId":11,"quantity":3}]}`))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var doc models.Document
	decode(t, w, &doc)
	assert.Equal(t, services.FallbackDeliveryNumber, doc.Number)
	assert.Equal(t, models.DocTypeDeliverySlip, doc.Type)
	assert.Zero(t, doc.TotalTTC)
	assert.Equal(t, "2024-06-15", doc.Date)

	w = httptest.NewRecorder()
	h.History(w, jsonRequest(http.MethodGet, "/history?type=delivery", ""))
	var payload struct {
		Total int `json:"total"`
	}
	decode(t, w, &payload)
	assert.Equal(t, 1, payload.Total)
}

func TestDocumentPDF_RemoteThenLocal(t *testing.T) {
	svc, api := setupService(t)
	h := NewDocumentHandler(svc)

	inv, err := svc.CreateInvoice(t.Context(), services.DocumentInput{ClientID: "1", Lines: []services.LineInput{{ProductID: "10", Quantity: 1}}})
	require.NoError(t, err)
	bl, err := svc.CreateDeliverySlip(t.Context(), services.DocumentInput{ClientID: "1", Lines: []services.LineInput{{ProductID: "10", Quantity: 1}}})
	require.NoError(t, err)

	req := operatorRequest(http.MethodGet, "/documents/"+inv.ID+"/pdf", "")
	req.SetPathValue("id", inv.ID)
	w := httptest.NewRecorder()
	h.PDF(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "%PDF-remote", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "FAC-2024-001.pdf")

	api.setStatus(http.StatusInternalServerError)
	req = operatorRequest(http.MethodGet, "/documents/"+bl.ID+"/pdf", "")
	req.SetPathValue("id", bl.ID)
	w = httptest.NewRecorder()
	h.PDF(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))
	assert.NotEqual(t, "%PDF-remote", w.Body.String())

	req = operatorRequest(http.MethodGet, "/documents/"+inv.ID+"/print", "")
	req.SetPathValue("id", inv.ID)
	w = httptest.NewRecorder()
	h.Print(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "inline")

	req = jsonRequest(http.MethodGet, "/documents/missing/print", "")
	req.SetPathValue("id", "missing")
	w = httptest.NewRecorder()
	h.Print(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTrash_RestoreAndPurge(t *testing.T) {
	svc, api := setupService(t)
	require.NoError(t, svc.TrashClient(t.Context(), "2"))
	h := NewTrashHandler(svc)

	w := httptest.NewRecorder()
	h.List(w, jsonRequest(http.MethodGet, "/trash", ""))
	var tv services.TrashView
	decode(t, w, &tv)
	require.Len(t, tv.Clients, 1)

	purge := func(r *http.Request) *httptest.ResponseRecorder {
		r.SetPathValue("kind", "clients")
		r.SetPathValue("id", "2")
		rec := httptest.NewRecorder()
		h.Purge(rec, r)
		return rec
	}

	// no confirmation
	w = purge(jsonRequest(http.MethodPost, "/trash/clients/2/purge", ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "confirm_required")
	w = purge(operatorRequest(http.MethodPost, "/trash/clients/2/purge", form(map[string][]string{"confirm": {"no"}})))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, api.called("delete_client.php"))

	req := operatorRequest(http.MethodPost, "/trash/clients/2/restore", "")
	req.SetPathValue("kind", "clients")
	req.SetPathValue("id", "2")
	w = httptest.NewRecorder()
	h.Restore(w, req)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/trash?tab=clients", w.Header().Get("Location"))
	assert.Zero(t, svc.TrashCount())

	// purging an entity that is not in the trash is refused
	w = purge(jsonRequest(http.MethodPost, "/trash/clients/2/purge?confirm=yes", ""))
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.NoError(t, svc.TrashClient(t.Context(), "2"))
	w = purge(operatorRequest(http.MethodPost, "/trash/clients/2/purge", form(map[string][]string{"confirm": {"yes"}})))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.True(t, api.called("delete_client.php"))
	_, ok := svc.Client("2")
	assert.False(t, ok)

	req = jsonRequest(http.MethodPost, "/trash/bogus/1/restore", "")
	req.SetPathValue("kind", "bogus")
	req.SetPathValue("id", "1")
	w = httptest.NewRecorder()
	h.Restore(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTrash_PurgeReferencedProduct(t *testing.T) {
	svc, _ := setupService(t)
	require.NoError(t, svc.TrashProduct(t.Context(), "10"))
	h := NewTrashHandler(svc)

	req := jsonRequest(http.MethodPost, "/trash/products/10/purge?confirm=yes", "")
	req.SetPathValue("kind", "products")
	req.SetPathValue("id", "10")
	w := httptest.NewRecorder()
	h.Purge(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Len(t, svc.Trash().Products, 1)
}

func TestTrash_ListHTML(t *testing.T) {
	svc, _ := setupService(t)
	require.NoError(t, svc.TrashClient(t.Context(), "1"))
	w := httptest.NewRecorder()
	NewTrashHandler(svc).List(w, operatorRequest(http.MethodGet, "/trash?tab=clients", ""))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Atlas Distribution")
}

func TestSync_FailureKeepsCache(t *testing.T) {
	svc, api := setupService(t)
	h := NewDashboardHandler(svc)
	api.setStatus(http.StatusServiceUnavailable)

	w := httptest.NewRecorder()
	h.Sync(w, jsonRequest(http.MethodPost, "/sync", ""))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Len(t, svc.ActiveClients(), 2)
	assert.Len(t, svc.ActiveProducts(), 2)

	w = httptest.NewRecorder()
	h.Sync(w, operatorRequest(http.MethodPost, "/sync", form(map[string][]string{"back": {"/clients"}})))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/clients", w.Header().Get("Location"))

	// the flashed notice is shown once by the next page
	next := operatorRequest(http.MethodGet, "/clients", "")
	for _, c := range w.Result().Cookies() {
		next.AddCookie(c)
	}
	n := takeNotice(httptest.NewRecorder(), next)
	require.NotNil(t, n)
	assert.Equal(t, apiclient.LevelError, n.Level)
	assert.Equal(t, "Erreur serveur", n.Title)
}

func TestSync_OffsiteBackIgnored(t *testing.T) {
	svc, _ := setupService(t)
	w := httptest.NewRecorder()
	NewDashboardHandler(svc).Sync(w, operatorRequest(http.MethodPost, "/sync", form(map[string][]string{"back": {"//evil.example"}})))
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestDashboard(t *testing.T) {
	svc, _ := setupService(t)
	_, err := svc.CreateInvoice(t.Context(), services.DocumentInput{ClientID: "1", Date: "2024-06-01", Lines: []services.LineInput{{ProductID: "10", Quantity: 1}}})
	require.NoError(t, err)
	h := NewDashboardHandler(svc)

	w := httptest.NewRecorder()
	h.Show(w, jsonRequest(http.MethodGet, "/", ""))
	var payload struct {
		Stats   services.Stats          `json:"stats"`
		Monthly []services.MonthRevenue `json:"monthly"`
	}
	decode(t, w, &payload)
	assert.InDelta(t, 120, payload.Stats.Revenue, 1e-9)
	assert.Equal(t, 1, payload.Stats.InvoiceCount)
	assert.Equal(t, 2, payload.Stats.ClientCount)
	require.Len(t, payload.Monthly, 1)
	assert.Equal(t, "2024-06", payload.Monthly[0].Month)

	w = httptest.NewRecorder()
	h.Show(w, operatorRequest(http.MethodGet, "/", ""))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "FAC-2024-001")
}

func TestSettingsUpdate(t *testing.T) {
	svc, _ := setupService(t)
	h := NewCompanyHandler(svc)

	w := httptest.NewRecorder()
	h.Update(w, operatorRequest(http.MethodPost, "/settings", form(map[string][]string{"name": {"MG"}, "vat_rate": {"abc"}})))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = httptest.NewRecorder()
	h.Update(w, operatorRequest(http.MethodPost, "/settings", form(map[string][]string{"name": {"MG"}, "vat_rate": {"150"}})))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Hors limites")

	w = httptest.NewRecorder()
	h.Update(w, operatorRequest(http.MethodPost, "/settings", form(map[string][]string{
		"name":     {"Maghreb Global SARL"},
		"vat_rate": {"10"},
		"phones":   {"0537 11 22 33\r\n\r\n0661 00 00 00"},
		"currency": {"MAD"},
	})))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	c := svc.Company()
	assert.Equal(t, "Maghreb Global SARL", c.Name)
	assert.Equal(t, 10.0, c.VATRate)
	assert.Equal(t, []string{"0537 11 22 33", "0661 00 00 00"}, c.Phones)

	w = httptest.NewRecorder()
	h.Edit(w, jsonRequest(http.MethodGet, "/settings", ""))
	var got models.CompanyInfo
	decode(t, w, &got)
	assert.Equal(t, "MAD", got.Currency)
}

func TestLoginLogout(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	h := NewAuthHandler(config.AuthConfig{Username: "admin", PasswordHash: string(hash)})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form(map[string][]string{"username": {"admin"}, "password": {"nope"}})))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	h.Login(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Identifiants invalides")

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"admin","password":"s3cret"}`))
	req.Header.Set("Content-Type", "application/json")
	h.Login(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		next.AddCookie(c)
	}
	name, ok := auth.ParseSession(next)
	require.True(t, ok)
	assert.Equal(t, "admin", name)
	assert.True(t, h.Valid(name))
	assert.False(t, h.Valid("someone"))

	w = httptest.NewRecorder()
	h.Logout(w, next)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestLogin_NoHashConfigured(t *testing.T) {
	h := NewAuthHandler(config.AuthConfig{Username: "admin"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"admin","password":""}`))
	req.Header.Set("Content-Type", "application/json")
	h.Login(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
