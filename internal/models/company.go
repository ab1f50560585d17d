package models

import "strings"

// CompanyInfo holds the issuing company's identity printed on documents.
type CompanyInfo struct {
	Name        string   `json:"name"`
	Activity    string   `json:"activity"`
	Address     string   `json:"address"`
	Phones      []string `json:"phones"`
	Email       string   `json:"email,omitempty"`
	ICE         string   `json:"ice"`
	RC          string   `json:"rc"`
	IF          string   `json:"if"`
	BankDetails string   `json:"bankDetails"`
	LogoURL     string   `json:"logoUrl,omitempty"`
	VATRate     float64  `json:"vatRate"`
	Currency    string   `json:"currency"`
}

// DefaultCompany returns the settings used until the operator saves their own.
func DefaultCompany() CompanyInfo {
	return CompanyInfo{
		Name:        "Maghreb Global",
		Activity:    "Import Export - Négoce",
		Address:     "Rabat, Maroc",
		Phones:      []string{"+212 5 37 00 00 00"},
		ICE:         "000000000000000",
		RC:          "00000",
		IF:          "00000000",
		BankDetails: "RIB: 000 000 0000000000000000 00",
		VATRate:     20,
		Currency:    "DH",
	}
}

// PhoneLine joins the phone numbers the way they are printed.
func (c CompanyInfo) PhoneLine() string {
	return strings.Join(c.Phones, " / ")
}

// CurrencyOrDefault returns the configured currency symbol, DH when unset.
func (c CompanyInfo) CurrencyOrDefault() string {
	if c.Currency == "" {
		return "DH"
	}
	return c.Currency
}
