package models

import (
	"time"
)

// DocType distinguishes invoices from delivery slips. The values are the
// labels used on printed documents and in file names.
type DocType string

const (
	DocTypeInvoice      DocType = "Facture"
	DocTypeDeliverySlip DocType = "Bon de Livraison"
)

// Valid reports whether t is a known document kind.
func (t DocType) Valid() bool {
	return t == DocTypeInvoice || t == DocTypeDeliverySlip
}

// DocStatus is the lifecycle status of a document.
type DocStatus string

const (
	DocStatusDraft     DocStatus = "draft"
	DocStatusValidated DocStatus = "validated"
	DocStatusPaid      DocStatus = "paid"
	DocStatusCancelled DocStatus = "cancelled"
)

// Document is an invoice or a delivery slip. Number is assigned by the remote
// API and never rewritten locally.
type Document struct {
	ID         string     `json:"id"`
	Type       DocType    `json:"type"`
	Number     string     `json:"number"`
	Date       string     `json:"date"`
	ClientID   string     `json:"clientId"`
	ClientName string     `json:"clientName"`
	Items      []LineItem `json:"items"`
	TotalHT    float64    `json:"totalHT"`
	TotalTVA   float64    `json:"totalTVA"`
	TotalTTC   float64    `json:"totalTTC"`
	Status     DocStatus  `json:"status"`
	DeletedAt  *time.Time `json:"deletedAt,omitempty"`
}

func (d *Document) GetID() string            { return d.ID }
func (d *Document) GetDeletedAt() *time.Time { return d.DeletedAt }

// WithDeletedAt returns a copy of the document carrying the given tombstone.
// Items are shared with the original; they are never mutated in place.
func (d *Document) WithDeletedAt(t *time.Time) *Document {
	cp := *d
	cp.DeletedAt = t
	return &cp
}

// IsInvoice returns true for invoices.
func (d *Document) IsInvoice() bool {
	return d.Type == DocTypeInvoice
}

// IsDeliverySlip returns true for delivery slips (BL).
func (d *Document) IsDeliverySlip() bool {
	return d.Type == DocTypeDeliverySlip
}

// IssueDate parses Date, accepting plain dates and RFC3339 timestamps.
func (d *Document) IssueDate() (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, d.Date); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// LineItem is a document line. Name and PriceHT are copied from the product
// when the line is added and are not refreshed afterwards.
type LineItem struct {
	ProductID ProductID `json:"productId"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	PriceHT   float64   `json:"priceHT"`
}

// TotalHT returns the line total before tax.
func (item LineItem) TotalHT() float64 {
	return float64(item.Quantity) * item.PriceHT
}

// NewLineItem snapshots the product's current name and price.
func NewLineItem(p *Product, quantity int) LineItem {
	return LineItem{
		ProductID: p.ID,
		Name:      p.Name,
		Quantity:  quantity,
		PriceHT:   p.PriceHT,
	}
}
