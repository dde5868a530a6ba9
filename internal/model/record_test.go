package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"2024-03-15T09:30:00Z", "2024-03-15T09:30:00Z"},
		{"2024-03-15 09:30:00", "2024-03-15T09:30:00Z"},
		{"2024-03-15T09:30:00", "2024-03-15T09:30:00Z"},
		{"2024-03-15", "2024-03-15T00:00:00Z"},
		{"1710495000", "2024-03-15T09:30:00Z"},
	}
	for _, tt := range tests {
		r := TransactionRecord{Time: tt.raw}
		got, err := r.ParseTime()
		require.NoError(t, err, "ParseTime(%q)", tt.raw)
		assert.Equal(t, tt.want, got.Format("2006-01-02T15:04:05Z"), "ParseTime(%q)", tt.raw)
	}
}

func TestParseTimeInvalid(t *testing.T) {
	for _, raw := range []string{"", "yesterday", "15/03/2024"} {
		r := TransactionRecord{Time: raw}
		_, err := r.ParseTime()
		assert.Error(t, err, "ParseTime(%q)", raw)
	}
}

func TestRecordClassificationHelpers(t *testing.T) {
	tests := []struct {
		action   string
		order    bool
		sell     bool
		dividend bool
	}{
		{"Market buy", true, false, false},
		{"Market sell", true, true, false},
		{"Limit buy", true, false, false},
		{"Limit sell", true, true, false},
		{"Deposit", false, false, false},
		{"Withdrawal", false, false, false},
		{"Card debit", false, false, false},
		{"Interest on cash", false, false, false},
		{"Dividend (Dividend)", false, false, true},
	}
	for _, tt := range tests {
		r := TransactionRecord{Action: tt.action}
		assert.Equal(t, tt.order, r.IsOrder(), "IsOrder(%q)", tt.action)
		assert.Equal(t, tt.sell, r.IsSell(), "IsSell(%q)", tt.action)
		assert.Equal(t, tt.dividend, r.IsDividend(), "IsDividend(%q)", tt.action)
	}
}

func TestExternalAccountID(t *testing.T) {
	assert.Equal(t, "12345_cash", ExternalAccountID(12345, KindCash))
	assert.Equal(t, "12345_investment", ExternalAccountID(12345, KindInvestment))
}

func TestNormalizeCurrency(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"EUR", "EUR"},
		{`"EUR"`, "EUR"},
		{" usd ", "USD"},
		{"GBX", "GBX"},
		{"", ""},
		{"DOGE", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeCurrency(tt.raw), "NormalizeCurrency(%q)", tt.raw)
	}
}
