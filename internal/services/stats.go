package services

import (
	"sort"

	"github.com/samber/lo"

	"github.com/maghrebglobal/backoffice/internal/billing"
	"github.com/maghrebglobal/backoffice/internal/models"
	"github.com/maghrebglobal/backoffice/internal/trash"
)

// Stats are the dashboard counters. Trashed entities are not counted.
type Stats struct {
	Revenue       float64 `json:"totalRevenue"`
	InvoiceCount  int     `json:"invoiceCount"`
	DeliveryCount int     `json:"deliveryCount"`
	ClientCount   int     `json:"clientCount"`
}

// MonthRevenue is the invoiced TTC amount of one month (YYYY-MM).
type MonthRevenue struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
}

// Stats computes the dashboard counters. Revenue is the sum of the TTC
// totals of active invoices.
func (b *Backoffice) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	docs := trash.ListActive(b.documents)
	invoices := lo.Filter(docs, func(d *models.Document, _ int) bool { return d.IsInvoice() })
	return Stats{
		Revenue:       billing.Round2(lo.SumBy(invoices, func(d *models.Document) float64 { return d.TotalTTC })),
		InvoiceCount:  len(invoices),
		DeliveryCount: lo.CountBy(docs, func(d *models.Document) bool { return d.IsDeliverySlip() }),
		ClientCount:   len(trash.ListActive(b.clients)),
	}
}

// RecentDocuments returns the n most recent active documents, newest first.
func (b *Backoffice) RecentDocuments(n int) []*models.Document {
	docs := lo.Reverse(b.ActiveDocuments())
	if n >= 0 && len(docs) > n {
		docs = docs[:n]
	}
	return docs
}

// MonthlyRevenue groups active invoices by issue month, oldest month first.
// Invoices with an unreadable date are skipped.
func (b *Backoffice) MonthlyRevenue() []MonthRevenue {
	totals := map[string]float64{}
	for _, d := range b.ActiveDocuments() {
		if !d.IsInvoice() {
			continue
		}
		t, ok := d.IssueDate()
		if !ok {
			continue
		}
		totals[t.Format("2006-01")] += d.TotalTTC
	}
	months := lo.Keys(totals)
	sort.Strings(months)
	return lo.Map(months, func(m string, _ int) MonthRevenue {
		return MonthRevenue{Month: m, Total: billing.Round2(totals[m])}
	})
}
