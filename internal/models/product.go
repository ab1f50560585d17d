package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ProductID identifies a product. The remote API returns either JSON numbers
// or JSON strings; both decode to the same canonical text so that 7 and "7"
// compare equal.
type ProductID string

// UnmarshalJSON accepts both number and string encodings.
func (id *ProductID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ProductID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ProductID(n.String())
	return nil
}

// MarshalJSON emits integers as JSON numbers, everything else as strings.
func (id ProductID) MarshalJSON() ([]byte, error) {
	if n, ok := id.Int(); ok {
		return []byte(strconv.FormatInt(n, 10)), nil
	}
	return json.Marshal(string(id))
}

// Int returns the numeric form of the id when it is an integer.
func (id ProductID) Int() (int64, bool) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	return n, err == nil
}

func (id ProductID) String() string { return string(id) }

// Product is an article of the catalog. PriceHT is the unit price before tax.
type Product struct {
	ID          ProductID  `json:"id"`
	Name        string     `json:"name"`
	PriceHT     float64    `json:"priceHT"`
	Format      *string    `json:"format,omitempty"`
	FormatLabel string     `json:"format_label,omitempty"`
	Category    string     `json:"category,omitempty"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
}

func (p *Product) GetID() ProductID         { return p.ID }
func (p *Product) GetDeletedAt() *time.Time { return p.DeletedAt }

// WithDeletedAt returns a copy of the product carrying the given tombstone.
func (p *Product) WithDeletedAt(t *time.Time) *Product {
	cp := *p
	cp.DeletedAt = t
	return &cp
}

// Label returns the display label: the format label when present, else the raw format.
func (p *Product) Label() string {
	if p.FormatLabel != "" {
		return p.FormatLabel
	}
	if p.Format != nil {
		return *p.Format
	}
	return ""
}

// DefaultProducts is the catalog shown when neither the API nor the local
// cache can provide one.
func DefaultProducts() []*Product {
	litre, kilo := "1L", "25KG"
	return []*Product{
		{ID: "1", Name: "Huile de table", PriceHT: 15.5, Format: &litre, Category: "Alimentaire"},
		{ID: "2", Name: "Farine de blé", PriceHT: 120, Format: &kilo, Category: "Alimentaire"},
		{ID: "3", Name: "Sucre en morceaux", PriceHT: 48, Category: "Alimentaire"},
	}
}
