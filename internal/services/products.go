package services

import (
	"context"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/maghrebglobal/backoffice/internal/apiclient"
	"github.com/maghrebglobal/backoffice/internal/models"
	"github.com/maghrebglobal/backoffice/internal/trash"
	"github.com/maghrebglobal/backoffice/validation"
)

// ActiveProducts returns the catalog outside the trash.
func (b *Backoffice) ActiveProducts() []*models.Product {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return trash.ListActive(b.products)
}

// SearchProducts filters active products by name or category.
func (b *Backoffice) SearchProducts(term string) []*models.Product {
	active := b.ActiveProducts()
	term = strings.TrimSpace(term)
	if term == "" {
		return active
	}
	return lo.Filter(active, func(p *models.Product, _ int) bool {
		return containsFold(p.Name, term) || containsFold(p.Category, term) || containsFold(p.Label(), term)
	})
}

// Product returns a product by id, trashed ones included.
func (b *Backoffice) Product(id models.ProductID) (*models.Product, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return trash.Find(b.products, id)
}

// SaveProduct adds a product, or updates it when in.ID is set, then reloads
// the catalog.
func (b *Backoffice) SaveProduct(ctx context.Context, in apiclient.ProductInput) error {
	in.Name = strings.TrimSpace(in.Name)
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	if in.PriceHT < 0 {
		v["priceHT"] = "must_be_positive"
	}
	if !v.Empty() {
		return &InvalidError{Violations: v}
	}
	if in.Format != nil && strings.TrimSpace(*in.Format) == "" {
		in.Format = nil
	}
	if err := b.api.SaveProduct(ctx, in); err != nil {
		return err
	}
	if err := b.refreshProducts(ctx); err != nil {
		b.log.Warn("product saved but reload failed", zap.Error(err))
	}
	return nil
}

// DeleteProduct deletes a product remotely then reloads the catalog. A
// product still used by a document yields an apiclient.ErrConflict error.
func (b *Backoffice) DeleteProduct(ctx context.Context, id models.ProductID) error {
	if err := b.api.DeleteProduct(ctx, id); err != nil {
		return err
	}
	if err := b.refreshProducts(ctx); err != nil {
		b.log.Warn("product deleted but reload failed", zap.Error(err))
	}
	return nil
}

// TrashProduct moves a product to the trash.
func (b *Backoffice) TrashProduct(ctx context.Context, id models.ProductID) error {
	b.mu.Lock()
	if _, ok := trash.Find(b.products, id); !ok {
		b.mu.Unlock()
		return ErrNotFound
	}
	b.products = trash.SoftDelete(b.products, id, b.now())
	snapshot := b.products
	b.mu.Unlock()
	b.persistProducts(ctx, snapshot)
	return nil
}
