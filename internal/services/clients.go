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

// ActiveClients returns the clients outside the trash.
func (b *Backoffice) ActiveClients() []*models.Client {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return trash.ListActive(b.clients)
}

// SearchClients filters active clients by name or ICE.
func (b *Backoffice) SearchClients(term string) []*models.Client {
	active := b.ActiveClients()
	term = strings.TrimSpace(term)
	if term == "" {
		return active
	}
	return lo.Filter(active, func(c *models.Client, _ int) bool {
		return containsFold(c.Name, term) || containsFold(c.ICE, term)
	})
}

// Client returns a client by id, trashed ones included.
func (b *Backoffice) Client(id string) (*models.Client, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return trash.Find(b.clients, id)
}

// CreateClient registers a client remotely then reloads the directory.
func (b *Backoffice) CreateClient(ctx context.Context, in apiclient.ClientInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.ICE = strings.TrimSpace(in.ICE)
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	if !v.Empty() {
		return &InvalidError{Violations: v}
	}
	if err := b.api.AddClient(ctx, in); err != nil {
		return err
	}
	if err := b.refreshClients(ctx); err != nil {
		b.log.Warn("client created but reload failed", zap.Error(err))
	}
	return nil
}

// DeleteClient deletes a client remotely then reloads the directory.
func (b *Backoffice) DeleteClient(ctx context.Context, id string) error {
	if err := b.api.DeleteClient(ctx, id); err != nil {
		return err
	}
	if err := b.refreshClients(ctx); err != nil {
		b.log.Warn("client deleted but reload failed", zap.Error(err))
	}
	return nil
}

// TrashClient moves a client to the trash.
func (b *Backoffice) TrashClient(ctx context.Context, id string) error {
	b.mu.Lock()
	if _, ok := trash.Find(b.clients, id); !ok {
		b.mu.Unlock()
		return ErrNotFound
	}
	b.clients = trash.SoftDelete(b.clients, id, b.now())
	snapshot := b.clients
	b.mu.Unlock()
	b.persistClients(ctx, snapshot)
	return nil
}
