package services

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/maghrebglobal/backoffice/internal/models"
	"github.com/maghrebglobal/backoffice/internal/trash"
)

// Kind names a trash tab.
type Kind string

const (
	KindClients       Kind = "clients"
	KindInvoices      Kind = "invoices"
	KindDeliverySlips Kind = "delivery"
	KindProducts      Kind = "products"
)

// Kinds lists the trash tabs in display order.
var Kinds = []Kind{KindClients, KindInvoices, KindDeliverySlips, KindProducts}

// ErrUnknownKind is returned for a trash tab that does not exist.
var ErrUnknownKind = errors.New("unknown trash kind")

// ParseKind validates a trash tab name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownKind, "%q", s)
}

// TrashView groups the trashed entities per tab.
type TrashView struct {
	Clients       []*models.Client   `json:"clients"`
	Invoices      []*models.Document `json:"invoices"`
	DeliverySlips []*models.Document `json:"delivery"`
	Products      []*models.Product  `json:"products"`
}

// Count returns the number of entities in the trash.
func (v TrashView) Count() int {
	return len(v.Clients) + len(v.Invoices) + len(v.DeliverySlips) + len(v.Products)
}

// Len returns the number of entities in one tab.
func (v TrashView) Len(k Kind) int {
	switch k {
	case KindClients:
		return len(v.Clients)
	case KindInvoices:
		return len(v.Invoices)
	case KindDeliverySlips:
		return len(v.DeliverySlips)
	case KindProducts:
		return len(v.Products)
	}
	return 0
}

// Trash returns the trashed entities grouped per tab.
func (b *Backoffice) Trash() TrashView {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return TrashView{
		Clients:       trash.ListTrashed(b.clients, nil),
		Invoices:      trash.ListTrashed(b.documents, (*models.Document).IsInvoice),
		DeliverySlips: trash.ListTrashed(b.documents, (*models.Document).IsDeliverySlip),
		Products:      trash.ListTrashed(b.products, nil),
	}
}

// TrashCount is the badge count of the trash.
func (b *Backoffice) TrashCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return trash.CountTrashed(b.clients) + trash.CountTrashed(b.products) + trash.CountTrashed(b.documents)
}

// Restore takes an entity out of the trash.
func (b *Backoffice) Restore(ctx context.Context, kind Kind, id string) error {
	switch kind {
	case KindClients:
		b.mu.Lock()
		if !isTrashed(b.clients, id) {
			b.mu.Unlock()
			return ErrNotFound
		}
		b.clients = trash.Restore(b.clients, id)
		snapshot := b.clients
		b.mu.Unlock()
		b.persistClients(ctx, snapshot)
	case KindProducts:
		pid := models.ProductID(id)
		b.mu.Lock()
		if !isTrashed(b.products, pid) {
			b.mu.Unlock()
			return ErrNotFound
		}
		b.products = trash.Restore(b.products, pid)
		snapshot := b.products
		b.mu.Unlock()
		b.persistProducts(ctx, snapshot)
	case KindInvoices, KindDeliverySlips:
		b.mu.Lock()
		if !isTrashedDocument(b.documents, kind, id) {
			b.mu.Unlock()
			return ErrNotFound
		}
		b.documents = trash.Restore(b.documents, id)
		snapshot := b.documents
		b.mu.Unlock()
		b.persistDocuments(ctx, snapshot)
	default:
		return ErrUnknownKind
	}
	return nil
}

// Purge deletes a trashed entity for good. Clients and products are
// deleted remotely first; documents only exist locally once created.
func (b *Backoffice) Purge(ctx context.Context, kind Kind, id string) error {
	switch kind {
	case KindClients:
		b.mu.RLock()
		ok := isTrashed(b.clients, id)
		b.mu.RUnlock()
		if !ok {
			return ErrNotFound
		}
		if err := b.api.DeleteClient(ctx, id); err != nil {
			return err
		}
		b.mu.Lock()
		b.clients = trash.Purge(b.clients, id)
		snapshot := b.clients
		b.mu.Unlock()
		b.persistClients(ctx, snapshot)
	case KindProducts:
		pid := models.ProductID(id)
		b.mu.RLock()
		ok := isTrashed(b.products, pid)
		b.mu.RUnlock()
		if !ok {
			return ErrNotFound
		}
		if err := b.api.DeleteProduct(ctx, pid); err != nil {
			return err
		}
		b.mu.Lock()
		b.products = trash.Purge(b.products, pid)
		snapshot := b.products
		b.mu.Unlock()
		b.persistProducts(ctx, snapshot)
	case KindInvoices, KindDeliverySlips:
		b.mu.Lock()
		if !isTrashedDocument(b.documents, kind, id) {
			b.mu.Unlock()
			return ErrNotFound
		}
		b.documents = trash.Purge(b.documents, id)
		snapshot := b.documents
		b.mu.Unlock()
		b.persistDocuments(ctx, snapshot)
	default:
		return ErrUnknownKind
	}
	return nil
}

// isTrashed reports whether the first entity with id is tombstoned. With
// duplicate ids only the first match counts, as in the registry, so a
// trashed copy behind an active one is not found.
func isTrashed[I comparable, T trash.Entity[I, T]](entities []T, id I) bool {
	e, ok := trash.Find(entities, id)
	return ok && e.GetDeletedAt() != nil
}

// isTrashedDocument is isTrashed narrowed to the document kind of the tab.
func isTrashedDocument(docs []*models.Document, kind Kind, id string) bool {
	d, ok := trash.Find(docs, id)
	if !ok || d.DeletedAt == nil {
		return false
	}
	if kind == KindInvoices {
		return d.IsInvoice()
	}
	return d.IsDeliverySlip()
}
