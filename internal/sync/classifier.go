package sync

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/brokersync/internal/ledger"
	"github.com/cleared-dev/brokersync/internal/model"
	"github.com/cleared-dev/brokersync/internal/store"
)

// EntryStore is the persistence surface the classifier writes through. All
// writes are find-or-create by key; *store.Store satisfies it.
type EntryStore interface {
	UpsertEntry(e model.LedgerEntry) (model.LedgerEntry, bool, error)
	UpsertTransfer(outflowEntryID, inflowEntryID int64, status string) (model.Transfer, bool, error)
	ResolveSecurity(ticker, isin, name string) (*model.Security, error)
	ResolveMerchant(name, category string) (*model.Merchant, error)
}

// AccountPair carries both sides of a connection. Transfer synthesis only
// happens when both sides are linked to local accounts.
type AccountPair struct {
	Cash       model.BrokerAccount
	Investment model.BrokerAccount
}

// ClassifyContext is the per-account context a batch pass runs under.
type ClassifyContext struct {
	Owner model.BrokerAccount
	Pair  AccountPair
}

// Classifier turns a broker record into ledger entries. Classification is
// pure per record; persistence is idempotent by key, so reprocessing a record
// never duplicates anything.
type Classifier struct {
	entries         EntryStore
	log             zerolog.Logger
	skipActions     map[string]bool
	defaultCurrency string
}

// NewClassifier creates a Classifier. skipActions is the configurable
// action skip-list; records whose action matches are dropped with a log line.
func NewClassifier(entries EntryStore, defaultCurrency string, skipActions []string, log zerolog.Logger) *Classifier {
	skip := make(map[string]bool, len(skipActions))
	for _, a := range skipActions {
		skip[strings.ToLower(a)] = true
	}
	return &Classifier{
		entries:         entries,
		log:             log.With().Str("component", "classifier").Logger(),
		skipActions:     skip,
		defaultCurrency: defaultCurrency,
	}
}

// Classify processes one stored record. It reports whether an entry was
// imported; a false return with nil error means the record was deliberately
// skipped (unlinked account, skip-listed action, unresolvable security).
func (c *Classifier) Classify(ctx ClassifyContext, sr store.StoredRecord) (bool, error) {
	rec := sr.Record

	if !ctx.Owner.Linked() {
		c.log.Debug().Str("account", ctx.Owner.ExternalID).Str("record", sr.EffectiveID).
			Msg("skipping record for unlinked account")
		return false, nil
	}
	if c.skipActions[strings.ToLower(rec.Action)] {
		c.log.Debug().Str("action", rec.Action).Str("record", sr.EffectiveID).Msg("action on skip-list")
		return false, nil
	}

	date, err := rec.ParseTime()
	if err != nil {
		return false, Validationf("parsing record time: %w", err)
	}

	if rec.IsOrder() {
		return c.classifyOrder(ctx, sr, date)
	}
	return c.classifyCash(ctx, sr, date)
}

// classifyCash imports deposits, withdrawals, card movements, interest and
// dividends. The source reports positive = money in; the internal convention
// is positive = outflow, so the amount is negated on import.
func (c *Classifier) classifyCash(ctx ClassifyContext, sr store.StoredRecord, date time.Time) (bool, error) {
	rec := sr.Record

	name := rec.MerchantName
	if name == "" {
		name = rec.Action
	}

	var merchantID string
	merchant, err := c.entries.ResolveMerchant(rec.MerchantName, rec.MerchantCategory)
	if err != nil {
		// A failed merchant lookup downgrades to "no merchant"; the entry
		// still imports.
		c.log.Warn().Err(err).Str("merchant", rec.MerchantName).Msg("merchant resolution failed")
	} else if merchant != nil {
		merchantID = merchant.ID
	}

	entry := model.LedgerEntry{
		LedgerAccountID: ctx.Owner.LedgerAccountID,
		ExternalID:      sr.EffectiveID,
		Source:          model.EntrySource,
		Kind:            model.EntryCash,
		Date:            date,
		Amount:          rec.Total.Neg(),
		Currency:        c.currencyFor(rec, ctx.Owner),
		Name:            name,
		Notes:           buildNotes(rec),
		MerchantID:      merchantID,
	}

	if _, _, err := c.entries.UpsertEntry(entry); err != nil {
		return false, Processingf("importing cash entry %s: %w", sr.EffectiveID, err)
	}
	return true, nil
}

// classifyOrder imports buys and sells as trade entries and, when both sides
// of the connection are linked, synthesizes the paired transfer between the
// cash and investment accounts.
func (c *Classifier) classifyOrder(ctx ClassifyContext, sr store.StoredRecord, date time.Time) (bool, error) {
	rec := sr.Record

	security, err := c.entries.ResolveSecurity(rec.Ticker, rec.ISIN, rec.Name)
	if err != nil {
		return false, Processingf("resolving security %q: %w", rec.Ticker, err)
	}
	if security == nil {
		// A trade without an identified security cannot be posted.
		c.log.Warn().Str("ticker", rec.Ticker).Str("record", sr.EffectiveID).
			Msg("skipping order with unresolvable security")
		return false, nil
	}

	// Buys are expenses (positive), sells income (negative). The source
	// reports order totals positive, so only sells are negated; the generic
	// cash inversion rule does not apply here.
	quantity := rec.Shares
	amount := rec.Total
	if rec.IsSell() {
		quantity = quantity.Neg()
		amount = amount.Neg()
	}

	name := rec.Name
	if name == "" {
		name = rec.Action
	}
	currency := c.currencyFor(rec, ctx.Owner)

	entry := model.LedgerEntry{
		LedgerAccountID: ctx.Owner.LedgerAccountID,
		ExternalID:      sr.EffectiveID,
		Source:          model.EntrySource,
		Kind:            model.EntryTrade,
		Date:            date,
		Amount:          amount,
		Currency:        currency,
		Name:            name,
		Notes:           buildNotes(rec),
		Quantity:        quantity,
		PricePerShare:   rec.PricePerShare,
		PriceCurrency:   model.NormalizeCurrency(rec.ShareCurrency),
		SecurityID:      security.ID,
	}

	if _, _, err := c.entries.UpsertEntry(entry); err != nil {
		return false, Processingf("importing trade entry %s: %w", sr.EffectiveID, err)
	}

	c.synthesizeTransfer(ctx, sr.EffectiveID, date, amount, currency, name)
	return true, nil
}

// synthesizeTransfer creates the paired cash<->investment postings for a
// trade. Failures here are logged and swallowed: the trade entry must persist
// even when a transfer leg cannot be written.
func (c *Classifier) synthesizeTransfer(ctx ClassifyContext, effectiveID string, date time.Time, amount decimal.Decimal, currency, name string) {
	if !ctx.Pair.Cash.Linked() || !ctx.Pair.Investment.Linked() {
		return
	}

	legs, err := ledger.BuildTradeTransfer(effectiveID, date, amount, currency, name,
		ctx.Pair.Cash.LedgerAccountID, ctx.Pair.Investment.LedgerAccountID)
	if err != nil {
		c.log.Warn().Err(err).Str("record", effectiveID).Msg("transfer synthesis failed")
		return
	}

	outflow, _, err := c.entries.UpsertEntry(legs.Outflow)
	if err != nil {
		c.log.Warn().Err(err).Str("record", effectiveID).Msg("transfer outflow leg failed")
		return
	}
	inflow, _, err := c.entries.UpsertEntry(legs.Inflow)
	if err != nil {
		c.log.Warn().Err(err).Str("record", effectiveID).Msg("transfer inflow leg failed")
		return
	}
	if _, _, err := c.entries.UpsertTransfer(outflow.ID, inflow.ID, legs.Transfer.Status); err != nil {
		c.log.Warn().Err(err).Str("record", effectiveID).Msg("transfer link failed")
	}
}

// currencyFor applies the fallback chain: record currency, then the owning
// account's currency, then the configured default.
func (c *Classifier) currencyFor(rec model.TransactionRecord, owner model.BrokerAccount) string {
	if code := model.NormalizeCurrency(rec.Currency); code != "" {
		return code
	}
	c.log.Debug().Str("currency", rec.Currency).Msg("unrecognized record currency")
	if code := model.NormalizeCurrency(owner.Currency); code != "" {
		return code
	}
	return c.defaultCurrency
}

// buildNotes assembles the entry notes from the record's action, category and
// free-text notes.
func buildNotes(rec model.TransactionRecord) string {
	parts := []string{rec.Action}
	if rec.MerchantCategory != "" {
		parts = append(parts, rec.MerchantCategory)
	}
	if rec.Notes != "" {
		parts = append(parts, rec.Notes)
	}
	if !rec.WithholdingTax.IsZero() {
		parts = append(parts, "withholding tax "+rec.WithholdingTax.String())
	}
	return strings.Join(parts, " / ")
}
