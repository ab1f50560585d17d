package billing

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultCurrency is the currency symbol printed when none is configured.
const DefaultCurrency = "DH"

var frPrinter = message.NewPrinter(language.French)

// FormatCurrency formats amount with French grouping and exactly two
// decimals, followed by the currency symbol: 1234.5 gives "1 234,50 DH".
func FormatCurrency(amount float64, currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	return FormatAmount(amount) + " " + currency
}

// FormatAmount formats amount like FormatCurrency without the symbol.
func FormatAmount(amount float64) string {
	return frPrinter.Sprint(number.Decimal(Round2(amount),
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
}
