package model

import "strings"

// USD is the pivot currency for cross rates.
const USD = "USD"

// Currency holds display attributes for a currency code. It is never used by the conversion math.
type Currency struct {
	Code   string
	Name   string
	Symbol string
	Flag   string
}

// SupportedCurrencies is the static metadata table offered by the currency pickers.
var SupportedCurrencies = []Currency{
	{Code: "RUB", Name: "Russian Ruble", Symbol: "₽", Flag: "🇷🇺"},
	{Code: "IDR", Name: "Indonesian Rupiah", Symbol: "Rp", Flag: "🇮🇩"},
	{Code: "USD", Name: "US Dollar", Symbol: "$", Flag: "🇺🇸"},
	{Code: "EUR", Name: "Euro", Symbol: "€", Flag: "🇪🇺"},
	{Code: "THB", Name: "Thai Baht", Symbol: "฿", Flag: "🇹🇭"},
	{Code: "TRY", Name: "Turkish Lira", Symbol: "₺", Flag: "🇹🇷"},
	{Code: "GEL", Name: "Georgian Lari", Symbol: "₾", Flag: "🇬🇪"},
	{Code: "AED", Name: "UAE Dirham", Symbol: "د.إ", Flag: "🇦🇪"},
}

// LookupCurrency returns the metadata for code. Unknown codes get a bare entry and false.
func LookupCurrency(code string) (Currency, bool) {
	code = NormalizeCode(code)
	for _, c := range SupportedCurrencies {
		if c.Code == code {
			return c, true
		}
	}
	return Currency{Code: code, Name: code, Symbol: code, Flag: "🏳"}, false
}

// NormalizeCode upper-cases and trims a currency code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValidCode reports whether code is a 3-letter currency identifier.
// Unknown but well-formed codes are valid; they simply fail rate resolution.
func IsValidCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
