// Package services holds the back-office state: the client, product and
// document collections, the company settings, and the operations the HTTP
// handlers and the CLI run against them.
package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/maghrebglobal/backoffice/internal/apiclient"
	"github.com/maghrebglobal/backoffice/internal/models"
	"github.com/maghrebglobal/backoffice/internal/trash"
	"github.com/maghrebglobal/backoffice/validation"
)

// ErrNotFound is returned when an id matches no entity of the requested kind.
var ErrNotFound = errors.New("not found")

// InvalidError carries form violations (values are i18n codes).
type InvalidError struct {
	Violations validation.Violations
}

func (e *InvalidError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for field, code := range e.Violations {
		parts = append(parts, field+": "+code)
	}
	return "invalid input (" + strings.Join(parts, ", ") + ")"
}

// Violations extracts form violations from err, nil when err is not an InvalidError.
func Violations(err error) validation.Violations {
	var inv *InvalidError
	if errors.As(err, &inv) {
		return inv.Violations
	}
	return nil
}

// API is the subset of the remote API used by the back-office.
type API interface {
	ListClients(ctx context.Context) ([]*models.Client, error)
	AddClient(ctx context.Context, in apiclient.ClientInput) error
	DeleteClient(ctx context.Context, id string) error
	ListProducts(ctx context.Context) ([]*models.Product, error)
	SaveProduct(ctx context.Context, in apiclient.ProductInput) error
	DeleteProduct(ctx context.Context, id models.ProductID) error
	CreateInvoice(ctx context.Context, req apiclient.DocumentRequest) (apiclient.DocumentCreated, error)
	CreateDeliverySlip(ctx context.Context, req apiclient.DocumentRequest) (apiclient.DocumentCreated, error)
	DocumentPDF(ctx context.Context, doc *models.Document) ([]byte, string, error)
}

// Cache is the durable local mirror of the collections.
type Cache interface {
	SaveClients(ctx context.Context, clients []*models.Client) error
	LoadClients(ctx context.Context) ([]*models.Client, error)
	SaveProducts(ctx context.Context, products []*models.Product) error
	LoadProducts(ctx context.Context) ([]*models.Product, error)
	SaveDocuments(ctx context.Context, docs []*models.Document) error
	LoadDocuments(ctx context.Context) ([]*models.Document, error)
	SaveCompany(ctx context.Context, info models.CompanyInfo) error
	LoadCompany(ctx context.Context) (models.CompanyInfo, error)
}

// Option configures a Backoffice.
type Option func(*Backoffice)

// WithClock overrides the time source used for tombstones and document dates.
func WithClock(now func() time.Time) Option {
	return func(b *Backoffice) { b.now = now }
}

// WithIDGenerator overrides the generator of local document ids.
func WithIDGenerator(gen func() string) Option {
	return func(b *Backoffice) { b.newID = gen }
}

// Backoffice owns the in-memory collections. Collections are never mutated
// in place: every change builds a new slice and swaps it in under the lock.
type Backoffice struct {
	api   API
	cache Cache
	log   *zap.Logger
	now   func() time.Time
	newID func() string

	mu        sync.RWMutex
	clients   []*models.Client
	products  []*models.Product
	documents []*models.Document
	company   models.CompanyInfo
}

// New creates the service. cache may be nil, in which case nothing is persisted.
func New(api API, cache Cache, log *zap.Logger, opts ...Option) *Backoffice {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Backoffice{
		api:     api,
		cache:   cache,
		log:     log,
		now:     time.Now,
		newID:   uuid.NewString,
		company: models.DefaultCompany(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Bootstrap rehydrates the collections and the company settings from the
// local cache. It does not touch the network.
func (b *Backoffice) Bootstrap(ctx context.Context) error {
	if b.cache == nil {
		return nil
	}
	clients, err := b.cache.LoadClients(ctx)
	if err != nil {
		return errors.Wrap(err, "load cached clients")
	}
	products, err := b.cache.LoadProducts(ctx)
	if err != nil {
		return errors.Wrap(err, "load cached products")
	}
	docs, err := b.cache.LoadDocuments(ctx)
	if err != nil {
		return errors.Wrap(err, "load cached documents")
	}
	company, err := b.cache.LoadCompany(ctx)
	if err != nil {
		return errors.Wrap(err, "load company settings")
	}

	b.mu.Lock()
	b.clients, b.products, b.documents, b.company = clients, products, docs, company
	b.mu.Unlock()

	b.log.Info("state restored from cache",
		zap.Int("clients", len(clients)),
		zap.Int("products", len(products)),
		zap.Int("documents", len(docs)))
	return nil
}

// Sync fetches clients and products from the API. On failure the cached
// collection is kept; an empty product cache falls back to the default
// catalog. The returned error combines both failures.
func (b *Backoffice) Sync(ctx context.Context) error {
	return errors.CombineErrors(b.refreshClients(ctx), b.refreshProducts(ctx))
}

func (b *Backoffice) refreshClients(ctx context.Context) error {
	remote, err := b.api.ListClients(ctx)
	if err != nil {
		b.log.Warn("client sync failed, keeping cache", zap.Error(err))
		return err
	}
	b.mu.Lock()
	b.clients = carryTombstones[string](remote, b.clients)
	snapshot := b.clients
	b.mu.Unlock()
	b.persistClients(ctx, snapshot)
	return nil
}

func (b *Backoffice) refreshProducts(ctx context.Context) error {
	remote, err := b.api.ListProducts(ctx)
	if err != nil {
		b.log.Warn("product sync failed, keeping cache", zap.Error(err))
		b.mu.Lock()
		if len(b.products) == 0 {
			b.products = models.DefaultProducts()
		}
		b.mu.Unlock()
		return err
	}
	b.mu.Lock()
	b.products = carryTombstones[models.ProductID](remote, b.products)
	snapshot := b.products
	b.mu.Unlock()
	b.persistProducts(ctx, snapshot)
	return nil
}

// carryTombstones returns remote with the tombstones of local entities that
// share an id. Local entities missing from remote are dropped.
func carryTombstones[I comparable, T trash.Entity[I, T]](remote, local []T) []T {
	tombs := make(map[I]*time.Time)
	for _, e := range local {
		if lo.IsNil(e) {
			continue
		}
		if ts := e.GetDeletedAt(); ts != nil {
			if _, seen := tombs[e.GetID()]; !seen {
				tombs[e.GetID()] = ts
			}
		}
	}
	out := make([]T, 0, len(remote))
	for _, e := range remote {
		if lo.IsNil(e) {
			continue
		}
		if ts, ok := tombs[e.GetID()]; ok {
			e = e.WithDeletedAt(ts)
		}
		out = append(out, e)
	}
	return out
}

// Company returns the company settings.
func (b *Backoffice) Company() models.CompanyInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.company
}

// UpdateCompany validates and stores new company settings.
func (b *Backoffice) UpdateCompany(ctx context.Context, info models.CompanyInfo) error {
	v := validation.Violations{}
	validation.Required("name", info.Name, v)
	validation.RangeFloat("vatRate", info.VATRate, 0, 100, v)
	if !v.Empty() {
		return &InvalidError{Violations: v}
	}
	phones := make([]string, 0, len(info.Phones))
	for _, p := range info.Phones {
		if p = strings.TrimSpace(p); p != "" {
			phones = append(phones, p)
		}
	}
	info.Phones = phones

	b.mu.Lock()
	b.company = info
	b.mu.Unlock()

	if b.cache != nil {
		if err := b.cache.SaveCompany(ctx, info); err != nil {
			return errors.Wrap(err, "save company settings")
		}
	}
	return nil
}

func (b *Backoffice) persistClients(ctx context.Context, clients []*models.Client) {
	if b.cache == nil {
		return
	}
	if err := b.cache.SaveClients(ctx, clients); err != nil {
		b.log.Error("cache write failed", zap.String("kind", "clients"), zap.Error(err))
	}
}

func (b *Backoffice) persistProducts(ctx context.Context, products []*models.Product) {
	if b.cache == nil {
		return
	}
	if err := b.cache.SaveProducts(ctx, products); err != nil {
		b.log.Error("cache write failed", zap.String("kind", "products"), zap.Error(err))
	}
}

func (b *Backoffice) persistDocuments(ctx context.Context, docs []*models.Document) {
	if b.cache == nil {
		return
	}
	if err := b.cache.SaveDocuments(ctx, docs); err != nil {
		b.log.Error("cache write failed", zap.String("kind", "documents"), zap.Error(err))
	}
}

func containsFold(s, term string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(term))
}
