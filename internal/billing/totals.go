// Package billing computes document totals and renders amounts for invoices.
package billing

import (
	"github.com/maghrebglobal/backoffice/internal/models"
	"github.com/shopspring/decimal"
)

// Totals holds the financial aggregates of a document.
type Totals struct {
	HT  float64 `json:"totalHT"`
	VAT float64 `json:"totalTVA"`
	TTC float64 `json:"totalTTC"`
}

// ComputeTotals sums quantity × unit price over items and derives VAT and the
// tax-inclusive total. The HT sum is plain repeated addition; only the VAT is
// rounded, to cents, half-up.
//
// A zero or negative rate is accepted as is. Quantities and prices are not
// validated here.
func ComputeTotals(items []models.LineItem, vatRatePercent float64) Totals {
	if len(items) == 0 {
		return Totals{}
	}
	var ht float64
	for _, item := range items {
		ht += float64(item.Quantity) * item.PriceHT
	}
	vat := Round2(ht * vatRatePercent / 100)
	return Totals{HT: ht, VAT: vat, TTC: ht + vat}
}

// DeliveryTotals returns the totals carried by delivery slips, which record
// physical movement only.
func DeliveryTotals() Totals {
	return Totals{}
}

// Apply copies the totals onto a document.
func (t Totals) Apply(doc *models.Document) {
	doc.TotalHT = t.HT
	doc.TotalTVA = t.VAT
	doc.TotalTTC = t.TTC
}

// Rounded returns the totals rounded to cents, for display and persistence.
func (t Totals) Rounded() Totals {
	return Totals{HT: Round2(t.HT), VAT: Round2(t.VAT), TTC: Round2(t.TTC)}
}

// Round2 rounds x to two decimals, halves away from zero. The shortest
// decimal form of x is used, so 1.005 rounds to 1.01.
func Round2(x float64) float64 {
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}
