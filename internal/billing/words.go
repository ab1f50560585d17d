package billing

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// wordsLimit is the first integer part no longer spelled out.
const wordsLimit = 1_000_000

var (
	units = [...]string{"", "un", "deux", "trois", "quatre", "cinq", "six", "sept", "huit", "neuf"}
	teens = [...]string{"dix", "onze", "douze", "treize", "quatorze", "quinze", "seize", "dix-sept", "dix-huit", "dix-neuf"}
	tens  = [...]string{"", "dix", "vingt", "trente", "quarante", "cinquante", "soixante", "soixante", "quatre-vingt", "quatre-vingt"}
)

// AmountToWords renders amount in French for the legal total line of an
// invoice, e.g. 1234.50 gives "Mille deux cent trente-quatre dirhams et
// cinquante centimes".
//
// The amount is rounded to cents before being split. Integer parts of one
// million and above are written with digits.
func AmountToWords(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(2)
	negative := d.IsNegative()
	d = d.Abs()

	whole := d.Floor()
	cents := d.Sub(whole).Shift(2).Round(0).IntPart()

	var b strings.Builder
	if negative {
		b.WriteString("moins ")
	}
	b.WriteString(IntegerToWords(whole.IntPart()))
	b.WriteString(" dirhams")
	if cents > 0 {
		b.WriteString(" et ")
		b.WriteString(IntegerToWords(cents))
		b.WriteString(" centimes")
	} else {
		b.WriteString(" pile")
	}
	return capitalize(b.String())
}

// IntegerToWords spells out a non-negative integer below one million.
// Larger values come back as digits.
func IntegerToWords(n int64) string {
	switch {
	case n == 0:
		return "zéro"
	case n < 0:
		return "moins " + IntegerToWords(-n)
	case n >= wordsLimit:
		return strconv.FormatInt(n, 10)
	}
	return convert(n)
}

// convert spells 1..999999. The thousands group is spelled like any other
// number, so plurals are kept before "mille" ("deux cents mille").
func convert(n int64) string {
	switch {
	case n < 10:
		return units[n]
	case n < 20:
		return teens[n-10]
	case n < 100:
		return tensWords(n)
	case n < 1000:
		h, r := n/100, n%100
		s := "cent"
		if h > 1 {
			s = units[h] + " cent"
			if r == 0 {
				s += "s"
			}
		}
		if r == 0 {
			return s
		}
		return s + " " + convert(r)
	default:
		th, r := n/1000, n%1000
		s := "mille"
		if th > 1 {
			s = convert(th) + " mille"
		}
		if r == 0 {
			return s
		}
		return s + " " + convert(r)
	}
}

func tensWords(n int64) string {
	ten, unit := n/10, n%10
	if ten == 7 || ten == 9 {
		// 70-79 and 90-99 are built on 60 and 80 plus a teen.
		return tens[ten] + "-" + teens[unit]
	}
	switch unit {
	case 0:
		if ten == 8 {
			return "quatre-vingts"
		}
		return tens[ten]
	case 1:
		if ten == 8 {
			return "quatre-vingts et un"
		}
		return tens[ten] + " et un"
	}
	return tens[ten] + "-" + units[unit]
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
