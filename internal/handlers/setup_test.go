package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/maghrebglobal/backoffice/auth"
	"github.com/maghrebglobal/backoffice/internal/apiclient"
	"github.com/maghrebglobal/backoffice/internal/config"
	"github.com/maghrebglobal/backoffice/internal/models"
	"github.com/maghrebglobal/backoffice/internal/services"
	"github.com/maghrebglobal/backoffice/internal/store"
)

// remoteAPI is an in-process stand-in for the PHP API.
type remoteAPI struct {
	mu        sync.Mutex
	clients   []map[string]any
	products  []*models.Product
	inUse     map[models.ProductID]bool
	status    int
	documents int
	calls     []string
}

func (a *remoteAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	name := strings.TrimPrefix(r.URL.Path, "/api/")
	a.calls = append(a.calls, name)
	if a.status != 0 {
		w.WriteHeader(a.status)
		return
	}
	var body map[string]any
	if r.Method == http.MethodPost {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	switch name {
	case "clients.php":
		_ = json.NewEncoder(w).Encode(a.clients)
	case "add_client.php":
		body["id"] = len(a.clients) + 100
		a.clients = append(a.clients, body)
	case "delete_client.php":
		a.clients = removeClient(a.clients, body["id"])
	case "produits.php":
		_ = json.NewEncoder(w).Encode(a.products)
	case "add_produit.php":
		a.products = append(a.products, &models.Product{
			ID:      models.ProductID(fmt.Sprintf("%d", 20+len(a.products))),
			Name:    body["nom"].(string),
			PriceHT: body["prix_ht"].(float64),
		})
	case "update_produit.php":
		for _, p := range a.products {
			if string(p.ID) == jsonID(body["id"]) {
				p.Name = body["nom"].(string)
				p.PriceHT = body["prix_ht"].(float64)
			}
		}
	case "delete_produit.php":
		id := models.ProductID(jsonID(body["id"]))
		if a.inUse[id] {
			w.WriteHeader(http.StatusConflict)
			return
		}
		kept := a.products[:0]
		for _, p := range a.products {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		a.products = kept
	case "add_facture.php":
		a.documents++
		_ = json.NewEncoder(w).Encode(map[string]any{"id": a.documents, "facture_number": fmt.Sprintf("FAC-2024-%03d", a.documents)})
	case "add_bl.php":
		a.documents++
		_ = json.NewEncoder(w).Encode(map[string]any{"id": a.documents})
	case "generate_facture_pdf.php", "generate_bl_pdf.php":
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-remote"))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (a *remoteAPI) setStatus(code int) {
	a.mu.Lock()
	a.status = code
	a.mu.Unlock()
}

func (a *remoteAPI) called(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, c := range a.calls {
		if c == name {
			return true
		}
	}
	return false
}

func removeClient(clients []map[string]any, id any) []map[string]any {
	out := clients[:0]
	for _, c := range clients {
		if jsonID(c["id"]) != jsonID(id) {
			out = append(out, c)
		}
	}
	return out
}

func jsonID(v any) string {
	b, _ := json.Marshal(v)
	return strings.Trim(string(b), `"`)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Use a unique in-memory database per test to avoid cross-test collisions.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return db
}

// setupService wires a Backoffice to a fake API and an in-memory cache, and
// runs a first sync.
func setupService(t *testing.T) (*services.Backoffice, *remoteAPI) {
	t.Helper()
	api := &remoteAPI{
		clients: []map[string]any{
			{"id": 1, "name": "Atlas Distribution", "ice": "001122334455667", "telephone": "0600000000", "adresse": "Casablanca"},
			{"id": "2", "name": "Rif Négoce", "ice": "", "telephone": "", "adresse": ""},
		},
		products: []*models.Product{
			{ID: "10", Name: "Huile", PriceHT: 100},
			{ID: "11", Name: "Farine", PriceHT: 48.5},
		},
		inUse: map[models.ProductID]bool{"10": true},
	}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	client := apiclient.New(config.APIConfig{BaseURL: srv.URL + "/api", Key: "test-key", Timeout: 5 * time.Second}, nil)
	cache, err := store.New(setupTestDB(t), nil)
	require.NoError(t, err)

	now := func() time.Time { return time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC) }
	svc := services.New(client, cache, nil, services.WithClock(now))
	require.NoError(t, svc.Sync(t.Context()))
	return svc, api
}

func operatorRequest(method, target string, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		if strings.HasPrefix(body, "{") {
			req.Header.Set("Content-Type", "application/json")
		} else {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	return req.WithContext(auth.WithOperator(req.Context(), "admin"))
}

func jsonRequest(method, target, body string) *http.Request {
	req := operatorRequest(method, target, body)
	req.Header.Set("Accept", "application/json")
	return req
}

func form(values map[string][]string) string {
	return url.Values(values).Encode()
}
