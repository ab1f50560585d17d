// Package validation collects form violations keyed by field name. Values are
// i18n codes.
package validation

import (
	"strconv"
	"strings"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func PositiveFloat(field string, val float64, v Violations) {
	if val <= 0 {
		v[field] = "must_be_positive"
	}
}

func PositiveInt(field string, val int, v Violations) {
	if val <= 0 {
		v[field] = "must_be_positive"
	}
}

func RangeFloat(field string, val, minVal, maxVal float64, v Violations) {
	if val < minVal || val > maxVal {
		v[field] = "out_of_range"
	}
}

// ParseFloat parses a form number, accepting a decimal comma. On failure the
// field is flagged and 0 is returned.
func ParseFloat(field, raw string, v Violations) float64 {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		v[field] = "invalid_number"
		return 0
	}
	return f
}
