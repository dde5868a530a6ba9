package model

import "strings"

// supportedCurrencies is the set of ISO 4217 codes the ledger accepts, plus
// GBX (pence sterling), which the broker reports for LSE-listed instruments.
var supportedCurrencies = map[string]bool{
	"AUD": true, "BGN": true, "CAD": true, "CHF": true, "CNY": true,
	"CZK": true, "DKK": true, "EUR": true, "GBP": true, "GBX": true,
	"HKD": true, "HUF": true, "ILS": true, "INR": true, "JPY": true,
	"MXN": true, "NOK": true, "NZD": true, "PLN": true, "RON": true,
	"SEK": true, "SGD": true, "TRY": true, "USD": true, "ZAR": true,
}

// NormalizeCurrency validates a raw currency code. It trims whitespace and
// surrounding quote characters (the export wraps some currency columns in
// quotes) and upper-cases the result. Unrecognized input yields "" so callers
// can apply their fallback chain instead of failing.
func NormalizeCurrency(raw string) string {
	code := strings.ToUpper(strings.Trim(strings.TrimSpace(raw), `"'`))
	if !supportedCurrencies[code] {
		return ""
	}
	return code
}
