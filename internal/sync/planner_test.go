package sync

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/cleared-dev/brokersync/internal/model"
	"github.com/cleared-dev/brokersync/internal/store"
)

func TestComputeWindow(t *testing.T) {
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)
	lastSynced := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		hasRecords bool
		lastSynced *time.Time
		wantStart  time.Time
	}{
		{
			name:      "first sync requests a full year",
			wantStart: time.Date(2023, 3, 31, 12, 0, 0, 0, time.UTC),
		},
		{
			name:       "incremental sync overlaps a week before the last sync",
			hasRecords: true,
			lastSynced: &lastSynced,
			wantStart:  time.Date(2024, 3, 8, 9, 0, 0, 0, time.UTC),
		},
		{
			name:       "records without a sync time fall back to three months",
			hasRecords: true,
			wantStart:  time.Date(2023, 12, 31, 12, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := ComputeWindow(now, tt.hasRecords, tt.lastSynced)
			assert.True(t, start.Equal(tt.wantStart), "start = %s, want %s", start, tt.wantStart)
			assert.True(t, end.Equal(now))
		})
	}
}

func TestMergeNewRecords(t *testing.T) {
	existing := []store.StoredRecord{
		{EffectiveID: "EOF1", Record: model.TransactionRecord{ID: "EOF1", Action: "Deposit"}},
	}
	// EOF1 is already stored, EOF2 repeats within the batch, and the card
	// debit has no computable id at all.
	fetched := []model.TransactionRecord{
		{ID: "EOF1", Action: "Deposit"},
		{ID: "EOF2", Action: "Withdrawal"},
		{ID: "EOF2", Action: "Withdrawal"},
		{Action: "Card debit"},
		{ID: "EOF3", Action: "Deposit"},
	}

	fresh := MergeNewRecords(zerolog.Nop(), existing, fetched)
	assert.Len(t, fresh, 2)
	assert.Equal(t, "EOF2", fresh[0].EffectiveID)
	assert.Equal(t, "EOF3", fresh[1].EffectiveID)
}

func TestMergeNewRecordsWarnsOnUncomputableID(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	fresh := MergeNewRecords(log, nil, []model.TransactionRecord{
		{Action: "Card debit", Time: "2024-03-02 09:00:00"},
	})
	assert.Empty(t, fresh)
	assert.Contains(t, buf.String(), "no external id", "the drop leaves a trace")
}

func TestMergeNewRecordsSynthesizesDividendIDs(t *testing.T) {
	div := model.TransactionRecord{
		Action: "Dividend (Dividend)",
		Time:   "2024-03-15 10:00:00",
		ISIN:   "US0378331005",
	}

	fresh := MergeNewRecords(zerolog.Nop(), nil, []model.TransactionRecord{div})
	assert.Len(t, fresh, 1)
	assert.NotEmpty(t, fresh[0].EffectiveID)

	// The same dividend fetched again resolves to the same id and merges away.
	again := MergeNewRecords(zerolog.Nop(), fresh, []model.TransactionRecord{div})
	assert.Empty(t, again)
}
