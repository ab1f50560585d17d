// Package store is the durable local cache of the back-office. Each
// collection is stored as an ordered list of JSON snapshots so that the
// in-memory state (tombstones included) can be rebuilt at startup without
// the remote API.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/maghrebglobal/backoffice/internal/config"
	"github.com/maghrebglobal/backoffice/internal/models"
)

// Collection kinds.
const (
	KindClients   = "clients"
	KindProducts  = "products"
	KindDocuments = "documents"
)

// Entry is one cached entity. Position keeps the collection order.
type Entry struct {
	ID        uint   `gorm:"primaryKey"`
	Kind      string `gorm:"size:32;index:idx_entry_kind_pos,priority:1"`
	Position  int    `gorm:"index:idx_entry_kind_pos,priority:2"`
	EntityID  string `gorm:"size:128;index"`
	Payload   string `gorm:"type:text"`
	TrashedAt *time.Time
	UpdatedAt time.Time
}

// CompanySetting holds the company settings as a single JSON row.
type CompanySetting struct {
	ID        uint   `gorm:"primaryKey"`
	Payload   string `gorm:"type:text"`
	UpdatedAt time.Time
}

// Store wraps the cache database.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

// Open connects to the cache database selected by cfg and migrates it.
// PostgreSQL connections are retried a few times to let the server start.
func Open(cfg config.CacheConfig, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	gcfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}

	var (
		db  *gorm.DB
		err error
	)
	if cfg.IsPostgres() {
		dsn := NormalizeDSN(cfg.DSN)
		for i := 0; i < 5; i++ {
			db, err = gorm.Open(postgres.Open(dsn), gcfg)
			if err == nil {
				break
			}
			log.Warn("cache connection failed, retrying",
				zap.Int("attempt", i+1), zap.String("dsn", RedactDSN(dsn)), zap.Error(err))
			time.Sleep(2 * time.Second)
		}
	} else {
		db, err = gorm.Open(sqlite.Open(cfg.DSN), gcfg)
	}
	if err != nil {
		return nil, fmt.Errorf("cache connection failed: %w", err)
	}
	return New(db, log)
}

// New wraps an open gorm connection and migrates it.
func New(db *gorm.DB, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return &Store{db: db, log: log}, nil
}

// Migrate runs AutoMigrate for the cache tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Entry{}, &CompanySetting{}); err != nil {
		return fmt.Errorf("cache migration failed: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveClients replaces the cached client collection.
func (s *Store) SaveClients(ctx context.Context, clients []*models.Client) error {
	return replace(ctx, s, KindClients, clients, func(c *models.Client) (string, *time.Time) { return c.ID, c.DeletedAt })
}

// LoadClients returns the cached clients in their saved order.
func (s *Store) LoadClients(ctx context.Context) ([]*models.Client, error) {
	return load[models.Client](ctx, s, KindClients)
}

// SaveProducts replaces the cached catalog.
func (s *Store) SaveProducts(ctx context.Context, products []*models.Product) error {
	return replace(ctx, s, KindProducts, products, func(p *models.Product) (string, *time.Time) { return p.ID.String(), p.DeletedAt })
}

// LoadProducts returns the cached catalog in its saved order.
func (s *Store) LoadProducts(ctx context.Context) ([]*models.Product, error) {
	return load[models.Product](ctx, s, KindProducts)
}

// SaveDocuments replaces the cached documents.
func (s *Store) SaveDocuments(ctx context.Context, docs []*models.Document) error {
	return replace(ctx, s, KindDocuments, docs, func(d *models.Document) (string, *time.Time) { return d.ID, d.DeletedAt })
}

// LoadDocuments returns the cached documents in their saved order.
func (s *Store) LoadDocuments(ctx context.Context) ([]*models.Document, error) {
	return load[models.Document](ctx, s, KindDocuments)
}

// CountTrashed counts tombstoned entries of a kind.
func (s *Store) CountTrashed(ctx context.Context, kind string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Entry{}).
		Where("kind = ? AND trashed_at IS NOT NULL", kind).Count(&n).Error
	return n, err
}

// SaveCompany stores the company settings.
func (s *Store) SaveCompany(ctx context.Context, info models.CompanyInfo) error {
	b, err := json.Marshal(info)
	if err != nil {
		return err
	}
	row := CompanySetting{ID: 1, Payload: string(b)}
	return s.db.WithContext(ctx).Save(&row).Error
}

// LoadCompany returns the stored company settings, or the defaults when
// none were saved.
func (s *Store) LoadCompany(ctx context.Context) (models.CompanyInfo, error) {
	var rows []CompanySetting
	if err := s.db.WithContext(ctx).Where("id = ?", 1).Limit(1).Find(&rows).Error; err != nil {
		return models.CompanyInfo{}, err
	}
	if len(rows) == 0 {
		return models.DefaultCompany(), nil
	}
	var info models.CompanyInfo
	if err := json.Unmarshal([]byte(rows[0].Payload), &info); err != nil {
		return models.CompanyInfo{}, fmt.Errorf("decode company settings: %w", err)
	}
	return info, nil
}

func replace[T any](ctx context.Context, s *Store, kind string, items []*T, key func(*T) (string, *time.Time)) error {
	entries := make([]Entry, 0, len(items))
	for i, it := range items {
		if it == nil {
			continue
		}
		b, err := json.Marshal(it)
		if err != nil {
			return fmt.Errorf("encode %s #%d: %w", kind, i, err)
		}
		id, trashed := key(it)
		entries = append(entries, Entry{Kind: kind, Position: i, EntityID: id, Payload: string(b), TrashedAt: trashed})
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("kind = ?", kind).Delete(&Entry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.CreateInBatches(entries, 200).Error
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", kind, err)
	}
	s.log.Debug("cache saved", zap.String("kind", kind), zap.Int("count", len(entries)))
	return nil
}

func load[T any](ctx context.Context, s *Store, kind string) ([]*T, error) {
	var entries []Entry
	if err := s.db.WithContext(ctx).Where("kind = ?", kind).Order("position ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("load %s: %w", kind, err)
	}
	out := make([]*T, 0, len(entries))
	for _, e := range entries {
		v := new(T)
		if err := json.Unmarshal([]byte(e.Payload), v); err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", kind, e.EntityID, err)
		}
		out = append(out, v)
	}
	return out, nil
}
