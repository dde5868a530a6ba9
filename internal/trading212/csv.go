package trading212

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/brokersync/internal/model"
)

// Export column headers. Exports only contain the columns for the data
// categories that were requested, so rows are addressed by header name, not
// position.
const (
	colAction        = "Action"
	colTime          = "Time"
	colISIN          = "ISIN"
	colTicker        = "Ticker"
	colName          = "Name"
	colNotes         = "Notes"
	colID            = "ID"
	colShares        = "No. of shares"
	colPricePerShare = "Price / share"
	colPriceCurrency = "Currency (Price / share)"
	colTotal         = "Total"
	colTotalCurrency = "Currency (Total)"
	colWithholding   = "Withholding tax"
	colMerchantName  = "Merchant name"
	colMerchantCat   = "Merchant category"
)

// ParseCSV reads an export file into normalized transaction records. Decimal
// columns are parsed as arbitrary-precision decimals to keep money math free
// of float rounding; missing optional columns map to zero values.
func ParseCSV(r io.Reader) ([]model.TransactionRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading export CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	cols := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		cols[strings.TrimSpace(name)] = i
	}
	if _, ok := cols[colAction]; !ok {
		return nil, fmt.Errorf("export CSV has no %q column", colAction)
	}

	var records []model.TransactionRecord
	for i, row := range rows[1:] {
		rec, err := parseRow(cols, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(cols map[string]int, row []string) (model.TransactionRecord, error) {
	total, err := parseDecimal(field(cols, row, colTotal))
	if err != nil {
		return model.TransactionRecord{}, fmt.Errorf("parsing total: %w", err)
	}
	shares, err := parseDecimal(field(cols, row, colShares))
	if err != nil {
		return model.TransactionRecord{}, fmt.Errorf("parsing shares: %w", err)
	}
	price, err := parseDecimal(field(cols, row, colPricePerShare))
	if err != nil {
		return model.TransactionRecord{}, fmt.Errorf("parsing price/share: %w", err)
	}
	withholding, err := parseDecimal(field(cols, row, colWithholding))
	if err != nil {
		return model.TransactionRecord{}, fmt.Errorf("parsing withholding tax: %w", err)
	}

	return model.TransactionRecord{
		Action:           field(cols, row, colAction),
		Time:             field(cols, row, colTime),
		ID:               field(cols, row, colID),
		Total:            total,
		Currency:         trimQuotes(field(cols, row, colTotalCurrency)),
		MerchantName:     field(cols, row, colMerchantName),
		MerchantCategory: field(cols, row, colMerchantCat),
		ISIN:             field(cols, row, colISIN),
		Ticker:           field(cols, row, colTicker),
		Name:             field(cols, row, colName),
		Shares:           shares,
		PricePerShare:    price,
		ShareCurrency:    trimQuotes(field(cols, row, colPriceCurrency)),
		WithholdingTax:   withholding,
		Notes:            field(cols, row, colNotes),
	}, nil
}

// field returns the named column of a row, or "" when the export omits it.
func field(cols map[string]int, row []string, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseDecimal parses a decimal-bearing field. Empty and "Not available" map
// to zero rather than erroring.
func parseDecimal(raw string) (decimal.Decimal, error) {
	if raw == "" || strings.EqualFold(raw, "Not available") {
		return decimal.Decimal{}, nil
	}
	return decimal.NewFromString(raw)
}

// trimQuotes strips the quote characters the export wraps some currency
// codes in.
func trimQuotes(raw string) string {
	return strings.Trim(raw, `"'`)
}
