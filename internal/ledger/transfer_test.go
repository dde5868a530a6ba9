package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/brokersync/internal/model"
)

var tradeDate = time.Date(2024, 3, 4, 14, 30, 0, 0, time.UTC)

func TestBuildTradeTransferBuy(t *testing.T) {
	legs, err := BuildTradeTransfer("EOF1", tradeDate, decimal.NewFromInt(100), "EUR", "Apple Inc.", 10, 20)
	require.NoError(t, err)

	// Buy: cash account funds the investment account.
	assert.Equal(t, int64(10), legs.Outflow.LedgerAccountID)
	assert.Equal(t, int64(20), legs.Inflow.LedgerAccountID)
	assert.Equal(t, "100", legs.Outflow.Amount.String())
	assert.Equal(t, "-100", legs.Inflow.Amount.String())
	assert.Equal(t, "EOF1_transfer_out", legs.Outflow.ExternalID)
	assert.Equal(t, "EOF1_transfer_in", legs.Inflow.ExternalID)
	assert.Equal(t, model.TransferConfirmed, legs.Transfer.Status)
	assert.Equal(t, "EUR", legs.Outflow.Currency)
}

func TestBuildTradeTransferSell(t *testing.T) {
	legs, err := BuildTradeTransfer("EOF2", tradeDate, decimal.NewFromInt(-250), "EUR", "Apple Inc.", 10, 20)
	require.NoError(t, err)

	// Sell: proceeds flow back from the investment account to cash.
	assert.Equal(t, int64(20), legs.Outflow.LedgerAccountID)
	assert.Equal(t, int64(10), legs.Inflow.LedgerAccountID)
	assert.Equal(t, "250", legs.Outflow.Amount.String())
	assert.Equal(t, "-250", legs.Inflow.Amount.String())
}

func TestBuildTradeTransferRejectsZeroAmount(t *testing.T) {
	_, err := BuildTradeTransfer("EOF3", tradeDate, decimal.Zero, "EUR", "x", 10, 20)
	assert.Error(t, err)
}

func TestBuildTradeTransferRequiresBothAccounts(t *testing.T) {
	_, err := BuildTradeTransfer("EOF4", tradeDate, decimal.NewFromInt(100), "EUR", "x", 10, 0)
	assert.Error(t, err)
	_, err = BuildTradeTransfer("EOF4", tradeDate, decimal.NewFromInt(100), "EUR", "x", 0, 20)
	assert.Error(t, err)
}

func TestValidatePair(t *testing.T) {
	valid, err := BuildTradeTransfer("EOF5", tradeDate, decimal.NewFromInt(50), "EUR", "x", 10, 20)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*TransferLegs)
	}{
		{"unbalanced", func(l *TransferLegs) { l.Inflow.Amount = decimal.NewFromInt(-49) }},
		{"outflow negative", func(l *TransferLegs) {
			l.Outflow.Amount = decimal.NewFromInt(-50)
			l.Inflow.Amount = decimal.NewFromInt(50)
		}},
		{"currency mismatch", func(l *TransferLegs) { l.Inflow.Currency = "USD" }},
		{"same account", func(l *TransferLegs) { l.Inflow.LedgerAccountID = l.Outflow.LedgerAccountID }},
		{"key mismatch", func(l *TransferLegs) { l.Inflow.ExternalID = "OTHER_transfer_in" }},
		{"missing suffix", func(l *TransferLegs) { l.Outflow.ExternalID = "EOF5" }},
	}
	for _, tt := range tests {
		legs := valid
		tt.mutate(&legs)
		assert.Error(t, ValidatePair(legs), tt.name)
	}

	assert.NoError(t, ValidatePair(valid))
}
