package billing

import (
	"math"
	"strings"
	"testing"

	"github.com/maghrebglobal/backoffice/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name  string
		items []models.LineItem
		rate  float64
		want  Totals
	}{
		{"empty", nil, 20, Totals{}},
		{"single line", []models.LineItem{{Quantity: 2, PriceHT: 100}}, 20, Totals{HT: 200, VAT: 40, TTC: 240}},
		{"zero rate", []models.LineItem{{Quantity: 3, PriceHT: 12.5}}, 0, Totals{HT: 37.5, VAT: 0, TTC: 37.5}},
		{"several lines", []models.LineItem{
			{Quantity: 1, PriceHT: 15.5},
			{Quantity: 4, PriceHT: 120},
			{Quantity: 10, PriceHT: 48},
		}, 20, Totals{HT: 975.5, VAT: 195.1, TTC: 1170.6}},
		{"vat rounded half-up", []models.LineItem{{Quantity: 1, PriceHT: 0.25}}, 10, Totals{HT: 0.25, VAT: 0.03, TTC: 0.28}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotals(tt.items, tt.rate)
			assert.InDelta(t, tt.want.HT, got.HT, 1e-9)
			assert.InDelta(t, tt.want.VAT, got.VAT, 1e-9)
			assert.InDelta(t, tt.want.TTC, got.TTC, 1e-9)
		})
	}
}

func TestComputeTotals_EmptyIsExactlyZero(t *testing.T) {
	for _, rate := range []float64{0, 7, 20, -5} {
		assert.Equal(t, Totals{}, ComputeTotals([]models.LineItem{}, rate))
	}
}

func TestComputeTotals_ZeroRateKeepsTTCEqualHT(t *testing.T) {
	items := []models.LineItem{{Quantity: 7, PriceHT: 3.33}, {Quantity: 2, PriceHT: 0.1}}
	got := ComputeTotals(items, 0)
	assert.Zero(t, got.VAT)
	assert.Equal(t, got.HT, got.TTC)
}

func TestComputeTotals_NegativeRateAccepted(t *testing.T) {
	got := ComputeTotals([]models.LineItem{{Quantity: 1, PriceHT: 100}}, -10)
	assert.InDelta(t, -10, got.VAT, 1e-9)
	assert.InDelta(t, 90, got.TTC, 1e-9)
}

func TestComputeTotals_NoDriftAcrossRecomputation(t *testing.T) {
	items := make([]models.LineItem, 0, 500)
	for i := 0; i < 500; i++ {
		items = append(items, models.LineItem{Quantity: 1 + i%7, PriceHT: 0.1 + float64(i%13)*0.01})
	}
	first := ComputeTotals(items, 20).Rounded()
	for i := 0; i < 50; i++ {
		again := ComputeTotals(items, 20).Rounded()
		assert.LessOrEqual(t, math.Abs(again.TTC-first.TTC), 0.01)
		assert.Equal(t, FormatAmount(first.TTC), FormatAmount(again.TTC))
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1.005, 1.01},
		{2.675, 2.68},
		{0.125, 0.13},
		{10, 10},
		{-1.005, -1.01},
		{199.994, 199.99},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round2(tt.in), "Round2(%v)", tt.in)
	}
}

func TestDeliveryTotalsAndApply(t *testing.T) {
	doc := &models.Document{TotalHT: 5, TotalTVA: 1, TotalTTC: 6}
	DeliveryTotals().Apply(doc)
	assert.Zero(t, doc.TotalHT)
	assert.Zero(t, doc.TotalTVA)
	assert.Zero(t, doc.TotalTTC)

	Totals{HT: 200, VAT: 40, TTC: 240}.Apply(doc)
	assert.Equal(t, 240.0, doc.TotalTTC)
}

func TestAmountToWords(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0, "Zéro dirhams pile"},
		{1, "Un dirhams pile"},
		{16, "Seize dirhams pile"},
		{17, "Dix-sept dirhams pile"},
		{21, "Vingt et un dirhams pile"},
		{35, "Trente-cinq dirhams pile"},
		{61, "Soixante et un dirhams pile"},
		{70, "Soixante-dix dirhams pile"},
		{71, "Soixante-onze dirhams pile"},
		{77, "Soixante-dix-sept dirhams pile"},
		{80, "Quatre-vingts dirhams pile"},
		{81, "Quatre-vingts et un dirhams pile"},
		{82, "Quatre-vingt-deux dirhams pile"},
		{91, "Quatre-vingt-onze dirhams pile"},
		{99, "Quatre-vingt-dix-neuf dirhams pile"},
		{100, "Cent dirhams pile"},
		{101, "Cent un dirhams pile"},
		{200, "Deux cents dirhams pile"},
		{250, "Deux cent cinquante dirhams pile"},
		{200.50, "Deux cents dirhams et cinquante centimes"},
		{1000, "Mille dirhams pile"},
		{2000, "Deux mille dirhams pile"},
		{1234.50, "Mille deux cent trente-quatre dirhams et cinquante centimes"},
		{80000, "Quatre-vingts mille dirhams pile"},
		{200000, "Deux cents mille dirhams pile"},
		{300400, "Trois cents mille quatre cents dirhams pile"},
		{181000, "Cent quatre-vingts et un mille dirhams pile"},
		{999999.99, "Neuf cent quatre-vingt-dix-neuf mille neuf cent quatre-vingt-dix-neuf dirhams et quatre-vingt-dix-neuf centimes"},
		{0.01, "Zéro dirhams et un centimes"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AmountToWords(tt.amount), "AmountToWords(%v)", tt.amount)
	}
}

func TestAmountToWords_CentsBoundary(t *testing.T) {
	// 10.995 must carry into the integer part instead of truncating to 99 cents.
	assert.Equal(t, "Onze dirhams pile", AmountToWords(10.995))
	assert.Equal(t, "Dix dirhams et dix centimes", AmountToWords(10.1))
	assert.Equal(t, "Dix dirhams et vingt-neuf centimes", AmountToWords(10.29))
}

func TestAmountToWords_MillionFallback(t *testing.T) {
	assert.Equal(t, "1000000 dirhams pile", AmountToWords(1_000_000))
	assert.Equal(t, "2500000 dirhams et vingt centimes", AmountToWords(2_500_000.20))
}

func TestAmountToWords_Negative(t *testing.T) {
	assert.Equal(t, "Moins cinq dirhams pile", AmountToWords(-5))
}

func TestFormatCurrency(t *testing.T) {
	got := FormatCurrency(1234.5, "")
	assert.True(t, strings.HasSuffix(got, " DH"), got)
	assert.Contains(t, got, "234,50")
	assert.True(t, strings.HasPrefix(got, "1"), got)

	assert.Equal(t, "0,00 EUR", FormatCurrency(0, "EUR"))
	assert.Equal(t, "1,01 DH", FormatCurrency(1.005, "DH"))
}
