package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRecord is one row of a broker export, as delivered by the
// source. Fields the export omits stay at their zero value. The raw Time
// string is kept as-is; ParseTime interprets it when an entry is built.
type TransactionRecord struct {
	Action           string          `json:"action"`
	Time             string          `json:"time"`
	ID               string          `json:"id,omitempty"`
	Total            decimal.Decimal `json:"total"`
	Currency         string          `json:"currency"`
	MerchantName     string          `json:"merchant_name,omitempty"`
	MerchantCategory string          `json:"merchant_category,omitempty"`
	ISIN             string          `json:"isin,omitempty"`
	Ticker           string          `json:"ticker,omitempty"`
	Name             string          `json:"name,omitempty"`
	Shares           decimal.Decimal `json:"shares,omitempty"`
	PricePerShare    decimal.Decimal `json:"price_per_share,omitempty"`
	ShareCurrency    string          `json:"share_currency,omitempty"`
	WithholdingTax   decimal.Decimal `json:"withholding_tax,omitempty"`
	Notes            string          `json:"notes,omitempty"`
}

// IsDividend reports whether the record is a dividend payment. Dividend
// actions look like "Dividend (Dividend)" or "Dividend (Dividends paid and
// interest charged)" and characteristically carry no natural id.
func (r TransactionRecord) IsDividend() bool {
	return strings.HasPrefix(r.Action, "Dividend")
}

// IsOrder reports whether the record is an investment order (e.g. "Market
// buy", "Limit sell"). Everything else, dividends included, is a cash
// movement.
func (r TransactionRecord) IsOrder() bool {
	action := strings.ToLower(r.Action)
	return strings.Contains(action, "buy") || strings.Contains(action, "sell")
}

// IsSell reports whether an order record is a sell. The sign of both the
// share quantity and the imported amount derive from this.
func (r TransactionRecord) IsSell() bool {
	return strings.Contains(strings.ToLower(r.Action), "sell")
}

// timeLayouts are the formats the export has been observed to use.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime interprets the record's raw timestamp. It accepts the layouts
// above plus numeric epoch seconds. Anything else is an error; callers treat
// that as a validation failure for the record.
func (r TransactionRecord) ParseTime() (time.Time, error) {
	raw := strings.TrimSpace(r.Time)
	if raw == "" {
		return time.Time{}, fmt.Errorf("record has no timestamp")
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", raw)
}
