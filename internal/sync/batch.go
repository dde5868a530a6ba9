package sync

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/brokersync/internal/store"
)

// RecordError describes one record that failed during a batch pass.
type RecordError struct {
	Index    int
	RecordID string
	Message  string
}

// Result summarizes a batch pass over an account's record store. Skipped
// records count toward Total but neither Imported nor Failed.
type Result struct {
	Total    int
	Imported int
	Failed   int
	Errors   []RecordError
}

// Success reports whether every record either imported or was skipped.
func (r Result) Success() bool { return r.Failed == 0 }

// Runner processes an account's full record store through the classifier,
// isolating per-record failures so one bad record never aborts the batch.
type Runner struct {
	classifier *Classifier
	log        zerolog.Logger
}

// NewRunner creates a batch Runner over the given classifier.
func NewRunner(classifier *Classifier, log zerolog.Logger) *Runner {
	return &Runner{
		classifier: classifier,
		log:        log.With().Str("component", "batch").Logger(),
	}
}

// Run classifies every record in order and returns the aggregate result.
// Validation failures and processing failures are both isolated; they differ
// only in how they are reported.
func (r *Runner) Run(ctx ClassifyContext, records []store.StoredRecord) Result {
	res := Result{Total: len(records)}

	for i, sr := range records {
		imported, err := r.classifier.Classify(ctx, sr)
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, RecordError{
				Index:    i,
				RecordID: recordID(sr),
				Message:  err.Error(),
			})

			var verr *ValidationError
			if errors.As(err, &verr) {
				r.log.Warn().Err(err).Int("index", i).Str("record", recordID(sr)).
					Msg("record failed validation")
			} else {
				r.log.Error().Err(err).Int("index", i).Str("record", recordID(sr)).
					Msg("record processing failed")
			}
			continue
		}
		if imported {
			res.Imported++
		}
	}

	r.log.Info().Int("total", res.Total).Int("imported", res.Imported).
		Int("failed", res.Failed).Str("account", ctx.Owner.ExternalID).
		Msg("batch complete")
	return res
}

func recordID(sr store.StoredRecord) string {
	if sr.EffectiveID != "" {
		return sr.EffectiveID
	}
	if sr.Record.ID != "" {
		return sr.Record.ID
	}
	return "unknown"
}
