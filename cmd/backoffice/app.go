package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/maghrebglobal/backoffice/auth"
	"github.com/maghrebglobal/backoffice/i18n"
	"github.com/maghrebglobal/backoffice/internal/config"
	"github.com/maghrebglobal/backoffice/internal/handlers"
	"github.com/maghrebglobal/backoffice/internal/logger"
	"github.com/maghrebglobal/backoffice/internal/services"
	"github.com/maghrebglobal/backoffice/view"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux *http.ServeMux
	svc *services.Backoffice
	log *zap.Logger

	auth      *handlers.AuthHandler
	dashboard *handlers.DashboardHandler
	clients   *handlers.ClientHandler
	products  *handlers.ProductHandler
	documents *handlers.DocumentHandler
	trash     *handlers.TrashHandler
	company   *handlers.CompanyHandler
}

// NewApp creates a new application with all routes configured.
func NewApp(svc *services.Backoffice, cfg config.AuthConfig, log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	app := &App{
		mux:       http.NewServeMux(),
		svc:       svc,
		log:       log,
		auth:      handlers.NewAuthHandler(cfg),
		dashboard: handlers.NewDashboardHandler(svc),
		clients:   handlers.NewClientHandler(svc),
		products:  handlers.NewProductHandler(svc),
		documents: handlers.NewDocumentHandler(svc),
		trash:     handlers.NewTrashHandler(svc),
		company:   handlers.NewCompanyHandler(svc),
	}
	auth.SetSecret(cfg.SessionSecret)
	// a session issued for another operator name is dropped
	auth.SetOperatorVerifier(func(_ context.Context, operator string) bool {
		return app.auth.Valid(operator)
	})
	view.SetThemeResolver(func(r *http.Request) string { return view.ThemeFromContext(r.Context()) })
	view.SetDefaultsProvider(func(*http.Request) map[string]any {
		return map[string]any{"TrashCount": svc.TrashCount()}
	})
	app.setupRoutes()
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Apply global middleware: request log + auth context + preferences (language, theme)
	handler := logger.Middleware(a.log, auth.Middleware(withPreferences(a.mux)))
	handler.ServeHTTP(w, r)
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes() {
	// Public routes
	a.mux.HandleFunc("GET /login", a.auth.Login)
	a.mux.HandleFunc("POST /login", a.auth.Login)
	a.mux.HandleFunc("GET /logout", a.auth.Logout)
	a.mux.HandleFunc("POST /logout", a.auth.Logout)

	// Dashboard
	a.mux.Handle("GET /{$}", a.requireAuth(a.dashboard.Show))
	a.mux.Handle("POST /sync", a.requireAuth(a.dashboard.Sync))

	// Clients
	a.mux.Handle("GET /clients", a.requireAuth(a.clients.List))
	a.mux.Handle("GET /clients/new", a.requireAuth(a.clients.New))
	a.mux.Handle("POST /clients", a.requireAuth(a.clients.Create))
	a.mux.Handle("POST /clients/{id}/delete", a.requireAuth(a.clients.Delete))
	a.mux.Handle("DELETE /clients/{id}", a.requireAuth(a.clients.Destroy))

	// Products
	a.mux.Handle("GET /products", a.requireAuth(a.products.List))
	a.mux.Handle("POST /products", a.requireAuth(a.products.Create))
	a.mux.Handle("GET /products/{id}/edit", a.requireAuth(a.products.Edit))
	a.mux.Handle("POST /products/{id}", a.requireAuth(a.products.Update))
	a.mux.Handle("POST /products/{id}/delete", a.requireAuth(a.products.Delete))
	a.mux.Handle("DELETE /products/{id}", a.requireAuth(a.products.Destroy))

	// Documents
	a.mux.Handle("GET /invoices/new", a.requireAuth(a.documents.NewInvoice))
	a.mux.Handle("POST /invoices", a.requireAuth(a.documents.CreateInvoice))
	a.mux.Handle("GET /delivery-slips/new", a.requireAuth(a.documents.NewDeliverySlip))
	a.mux.Handle("POST /delivery-slips", a.requireAuth(a.documents.CreateDeliverySlip))
	a.mux.Handle("GET /history", a.requireAuth(a.documents.History))
	a.mux.Handle("POST /documents/{id}/trash", a.requireAuth(a.documents.Trash))
	a.mux.Handle("GET /documents/{id}/pdf", a.requireAuth(a.documents.PDF))
	a.mux.Handle("GET /documents/{id}/print", a.requireAuth(a.documents.Print))

	// Trash
	a.mux.Handle("GET /trash", a.requireAuth(a.trash.List))
	a.mux.Handle("POST /trash/{kind}/{id}/restore", a.requireAuth(a.trash.Restore))
	a.mux.Handle("POST /trash/{kind}/{id}/purge", a.requireAuth(a.trash.Purge))

	// Company Settings
	a.mux.Handle("GET /settings", a.requireAuth(a.company.Edit))
	a.mux.Handle("POST /settings", a.requireAuth(a.company.Update))

	// Static files
	a.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))
}

// requireAuth wraps a handler to require a logged-in operator.
func (a *App) requireAuth(h http.HandlerFunc) http.Handler {
	return auth.RequireAuth(h)
}

// withPreferences injects language and theme preferences (query > cookie >
// Accept-Language). Query-provided values are persisted in cookies.
func withPreferences(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := r.Header.Get("Accept-Language")
		if c, err := r.Cookie("lang"); err == nil && c.Value != "" {
			lang = c.Value
		}
		if q := r.URL.Query().Get("lang"); q != "" {
			lang = q
			setPreference(w, "lang", q)
		}
		theme := "system"
		if c, err := r.Cookie("theme"); err == nil && c.Value != "" {
			theme = c.Value
		}
		if q := r.URL.Query().Get("theme"); view.ValidTheme(q) {
			theme = q
			setPreference(w, "theme", q)
		}
		// unsupported languages fall back to French
		ctx := i18n.WithLang(r.Context(), i18n.DetectLanguage(lang))
		ctx = view.WithTheme(ctx, theme)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func setPreference(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   86400 * 365,
		HttpOnly: true,
	})
}
