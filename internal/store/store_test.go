package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/maghrebglobal/backoffice/internal/config"
	"github.com/maghrebglobal/backoffice/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	s, err := New(db, nil)
	require.NoError(t, err)
	return s
}

func TestStore_ClientsRoundTripKeepsTombstones(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	deleted := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	in := []*models.Client{
		{ID: "1", Name: "Atlas", ICE: "001", Address: "Rabat"},
		{ID: "2", Name: "Sahara", DeletedAt: &deleted},
		nil,
		{ID: "3", Name: "Rif"},
	}
	require.NoError(t, s.SaveClients(ctx, in))

	out, err := s.LoadClients(ctx)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{out[0].ID, out[1].ID, out[2].ID})
	assert.Equal(t, "Rabat", out[0].Address)
	assert.Nil(t, out[0].DeletedAt)
	require.NotNil(t, out[1].DeletedAt)
	assert.True(t, deleted.Equal(*out[1].DeletedAt))

	n, err := s.CountTrashed(ctx, KindClients)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStore_SaveReplacesCollection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveProducts(ctx, models.DefaultProducts()))
	require.NoError(t, s.SaveProducts(ctx, []*models.Product{{ID: "42", Name: "Thé", PriceHT: 30}}))

	out, err := s.LoadProducts(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, models.ProductID("42"), out[0].ID)

	require.NoError(t, s.SaveProducts(ctx, nil))
	out, err = s.LoadProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestStore_KindsAreIndependent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveClients(ctx, []*models.Client{{ID: "1", Name: "A"}}))
	require.NoError(t, s.SaveDocuments(ctx, []*models.Document{
		{ID: "d1", Type: models.DocTypeInvoice, Number: "F-1", Items: []models.LineItem{{ProductID: "7", Name: "Huile", Quantity: 2, PriceHT: 10}}, TotalHT: 20, TotalTVA: 4, TotalTTC: 24},
	}))
	require.NoError(t, s.SaveClients(ctx, nil))

	docs, err := s.LoadDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "F-1", docs[0].Number)
	assert.Equal(t, models.ProductID("7"), docs[0].Items[0].ProductID)
	assert.Equal(t, 24.0, docs[0].TotalTTC)
}

func TestStore_DuplicateIDsAreKept(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveClients(ctx, []*models.Client{{ID: "1", Name: "first"}, {ID: "1", Name: "second"}}))
	out, err := s.LoadClients(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0].Name)
}

func TestStore_CompanyDefaultsThenSaved(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	info, err := s.LoadCompany(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCompany(), info)

	info.Name = "Maghreb Global SARL"
	info.VATRate = 14
	require.NoError(t, s.SaveCompany(ctx, info))
	require.NoError(t, s.SaveCompany(ctx, info))

	got, err := s.LoadCompany(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Maghreb Global SARL", got.Name)
	assert.Equal(t, 14.0, got.VATRate)
}

func TestOpen_SQLite(t *testing.T) {
	s, err := Open(config.CacheConfig{Driver: "sqlite", DSN: "file:" + t.Name() + "?mode=memory&cache=shared"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.SaveClients(context.Background(), []*models.Client{{ID: "1"}}))
}

func TestNormalizeDSN(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"  'postgres://u:p@h/db'  ", "postgres://u:p@h/db"},
		{"host=h   user=u dbname=d", "host=h user=u dbname=d sslmode=disable"},
		{"host=h user=u sslmode=require", "host=h user=u sslmode=require"},
		{"garbage", "garbage"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeDSN(tt.in), tt.in)
	}
}

func TestRedactDSN(t *testing.T) {
	assert.Equal(t, "postgres://u:***@h:5432/db", RedactDSN("postgres://u:secret@h:5432/db"))
	assert.Equal(t, "postgres://h/db", RedactDSN("postgres://h/db"))
	assert.Equal(t, "host=h password=*** dbname=d", RedactDSN("host=h password=secret dbname=d"))
}
