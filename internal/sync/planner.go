package sync

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/brokersync/internal/id"
	"github.com/cleared-dev/brokersync/internal/model"
	"github.com/cleared-dev/brokersync/internal/store"
)

// resyncOverlapDays is subtracted from the last sync time on incremental
// syncs to catch records that settle late.
const resyncOverlapDays = 7

// ComputeWindow decides the time range for the next fetch. A first sync (no
// stored records) requests a full year, the API's maximum supported lookback.
// Incremental syncs start a week before the last successful sync, or three
// months back when that time is unknown.
func ComputeWindow(now time.Time, hasRecords bool, lastSyncedAt *time.Time) (start, end time.Time) {
	end = now
	if !hasRecords {
		return now.AddDate(-1, 0, 0), end
	}
	if lastSyncedAt != nil {
		return lastSyncedAt.AddDate(0, 0, -resyncOverlapDays), end
	}
	return now.AddDate(0, -3, 0), end
}

// MergeNewRecords returns the fetched records that are not already in the
// existing record store, paired with their effective ids, in fetch order.
// Records whose effective id cannot be computed are excluded with a warning:
// without an id there is nothing to key idempotent persistence on.
// Deterministic; the record store is never mutated here.
func MergeNewRecords(log zerolog.Logger, existing []store.StoredRecord, fetched []model.TransactionRecord) []store.StoredRecord {
	seen := make(map[string]bool, len(existing))
	for _, sr := range existing {
		seen[sr.EffectiveID] = true
	}

	var fresh []store.StoredRecord
	for _, rec := range fetched {
		ext, err := id.Effective(rec)
		if err != nil {
			log.Warn().Err(err).Str("action", rec.Action).Str("time", rec.Time).
				Msg("dropping record without a computable id")
			continue
		}
		if ext.Value == "" || seen[ext.Value] {
			continue
		}
		seen[ext.Value] = true
		fresh = append(fresh, store.StoredRecord{EffectiveID: ext.Value, Record: rec})
	}
	return fresh
}
