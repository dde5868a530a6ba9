package id

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/brokersync/internal/model"
)

func dividendRecord(isin, ts string, total int64) model.TransactionRecord {
	return model.TransactionRecord{
		Action: "Dividend (Dividend)",
		ISIN:   isin,
		Time:   ts,
		Total:  decimal.NewFromInt(total),
	}
}

func TestEffectiveNaturalID(t *testing.T) {
	r := model.TransactionRecord{Action: "Deposit", ID: "EOF1234567890"}
	ext, err := Effective(r)
	require.NoError(t, err)
	assert.Equal(t, "EOF1234567890", ext.Value)
	assert.False(t, ext.Synthesized)
}

func TestEffectiveDividendIsStable(t *testing.T) {
	a := dividendRecord("US0378331005", "2024-03-15 09:30:00", 12)
	b := dividendRecord("US0378331005", "2024-03-15 09:30:00", 12)

	extA, err := Effective(a)
	require.NoError(t, err)
	extB, err := Effective(b)
	require.NoError(t, err)

	assert.True(t, extA.Synthesized)
	assert.Equal(t, extA.Value, extB.Value)
}

func TestEffectiveDividendVariesByInput(t *testing.T) {
	base := dividendRecord("US0378331005", "2024-03-15 09:30:00", 12)
	baseExt, err := Effective(base)
	require.NoError(t, err)

	variants := []model.TransactionRecord{
		dividendRecord("US5949181045", "2024-03-15 09:30:00", 12),
		dividendRecord("US0378331005", "2024-03-16 09:30:00", 12),
		dividendRecord("US0378331005", "2024-03-15 09:30:00", 13),
	}
	for _, v := range variants {
		ext, err := Effective(v)
		require.NoError(t, err)
		assert.NotEqual(t, baseExt.Value, ext.Value)
	}
}

func TestEffectiveMissingIDFails(t *testing.T) {
	r := model.TransactionRecord{Action: "Deposit", Time: "2024-03-15 09:30:00"}
	_, err := Effective(r)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no external id")
}

func TestMerchantIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, Merchant("Acme Corp"), Merchant("acme corp"))
	assert.Equal(t, Merchant("  Acme Corp  "), Merchant("acme corp"))
	assert.NotEqual(t, Merchant("Acme Corp"), Merchant("Acme Inc"))
}

func TestTransferKeys(t *testing.T) {
	assert.Equal(t, "EOF1_transfer_out", TransferOut("EOF1"))
	assert.Equal(t, "EOF1_transfer_in", TransferIn("EOF1"))
}
