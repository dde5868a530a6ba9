package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/brokersync/internal/model"
	"github.com/cleared-dev/brokersync/internal/store"
	"github.com/cleared-dev/brokersync/internal/trading212"
)

// ExportClient is the broker API surface the syncer needs. *trading212.Client
// satisfies it; tests substitute a fake.
type ExportClient interface {
	FetchAccountInfo(ctx context.Context) (trading212.AccountInfo, error)
	FetchAccountCash(ctx context.Context) (trading212.AccountCash, error)
	FetchTransactions(ctx context.Context, from, to time.Time) ([]model.TransactionRecord, error)
}

// ClientFactory builds an ExportClient from a connection's credentials.
type ClientFactory func(apiKey, apiSecret string) ExportClient

// SyncResult summarizes one sync run over a connection.
type SyncResult struct {
	Success              bool
	AccountsCreated      int
	AccountsUpdated      int
	TransactionsImported int
	RecordsFailed        int
	Error                string
}

// Syncer runs the full pipeline for a connection: account discovery, window
// planning, export fetch, append-only merge, classification, reconciliation.
// Every persistence step is idempotent by key, so an interrupted run is safe
// to repeat.
type Syncer struct {
	store           *store.Store
	clients         ClientFactory
	defaultCurrency string
	skipActions     []string
	log             zerolog.Logger
	now             func() time.Time
}

// NewSyncer creates a Syncer. clients builds the API client per connection so
// each run uses that connection's own credentials.
func NewSyncer(st *store.Store, clients ClientFactory, defaultCurrency string, skipActions []string, log zerolog.Logger) *Syncer {
	return &Syncer{
		store:           st,
		clients:         clients,
		defaultCurrency: defaultCurrency,
		skipActions:     skipActions,
		log:             log.With().Str("component", "syncer").Logger(),
		now:             time.Now,
	}
}

// Sync runs one sync for the named connection. Credential rejections flip the
// connection to requires_update; any other failure leaves its state alone.
// The returned result always carries whatever counts were reached.
func (s *Syncer) Sync(ctx context.Context, connID string) (SyncResult, error) {
	conn, err := s.store.GetConnection(connID)
	if err != nil {
		return s.fail(SyncResult{}, err)
	}
	if conn == nil {
		return s.fail(SyncResult{}, fmt.Errorf("connection %s not found", connID))
	}
	log := s.log.With().Str("connection", conn.Name).Logger()

	client := s.clients(conn.APIKey, conn.APISecret)

	var res SyncResult

	info, err := client.FetchAccountInfo(ctx)
	if err != nil {
		return s.fail(res, s.handleAPIError(conn.ID, err, "fetching account info"))
	}
	cash, err := client.FetchAccountCash(ctx)
	if err != nil {
		return s.fail(res, s.handleAPIError(conn.ID, err, "fetching account cash"))
	}

	pair, err := s.discoverAccounts(conn.ID, info, cash, &res)
	if err != nil {
		return s.fail(res, err)
	}
	log.Info().Int64("remote_id", info.ID).Str("currency", info.CurrencyCode).
		Int("created", res.AccountsCreated).Msg("accounts discovered")

	cashRecords, err := s.store.StoredRecords(pair.Cash.ID)
	if err != nil {
		return s.fail(res, fmt.Errorf("loading cash records: %w", err))
	}
	investRecords, err := s.store.StoredRecords(pair.Investment.ID)
	if err != nil {
		return s.fail(res, fmt.Errorf("loading investment records: %w", err))
	}

	hasRecords := len(cashRecords) > 0 || len(investRecords) > 0
	from, to := ComputeWindow(s.now(), hasRecords, conn.LastSyncedAt)
	log.Info().Time("from", from).Time("to", to).Bool("incremental", hasRecords).Msg("sync window planned")

	fetched, err := client.FetchTransactions(ctx, from, to)
	if err != nil {
		return s.fail(res, s.handleAPIError(conn.ID, err, "fetching transactions"))
	}

	// Orders belong to the investment side; everything else, dividends
	// included, settles in cash.
	var toCash, toInvest []model.TransactionRecord
	for _, rec := range fetched {
		if rec.IsOrder() {
			toInvest = append(toInvest, rec)
		} else {
			toCash = append(toCash, rec)
		}
	}

	if err := s.appendFresh(pair.Cash.ID, cashRecords, toCash); err != nil {
		return s.fail(res, err)
	}
	if err := s.appendFresh(pair.Investment.ID, investRecords, toInvest); err != nil {
		return s.fail(res, err)
	}

	classifier := NewClassifier(s.store, s.defaultCurrency, s.skipActions, log)
	runner := NewRunner(classifier, log)
	reconciler := NewReconciler(s.store, s.defaultCurrency, log)

	for _, acct := range []model.BrokerAccount{pair.Cash, pair.Investment} {
		records, err := s.store.StoredRecords(acct.ID)
		if err != nil {
			return s.fail(res, fmt.Errorf("reloading records for %s: %w", acct.ExternalID, err))
		}
		batch := runner.Run(ClassifyContext{Owner: acct, Pair: pair}, records)
		res.TransactionsImported += batch.Imported
		res.RecordsFailed += batch.Failed

		if err := reconciler.Reconcile(acct); err != nil {
			return s.fail(res, err)
		}
	}

	if err := s.store.SetConnectionStatus(conn.ID, model.ConnectionActive); err != nil {
		return s.fail(res, err)
	}
	if err := s.store.StampConnectionSynced(conn.ID, s.now()); err != nil {
		return s.fail(res, err)
	}

	res.Success = res.RecordsFailed == 0
	log.Info().Int("imported", res.TransactionsImported).Int("failed", res.RecordsFailed).
		Bool("success", res.Success).Msg("sync complete")
	return res, nil
}

// discoverAccounts upserts the cash and investment sides of the remote
// account, refreshing their balance snapshots.
func (s *Syncer) discoverAccounts(connID string, info trading212.AccountInfo, cash trading212.AccountCash, res *SyncResult) (AccountPair, error) {
	var pair AccountPair

	sides := []model.BrokerAccount{
		{
			ConnectionID:     connID,
			ExternalID:       model.ExternalAccountID(info.ID, model.KindCash),
			Kind:             model.KindCash,
			Currency:         info.CurrencyCode,
			Balance:          cash.Free,
			AvailableBalance: cash.Free,
		},
		{
			ConnectionID:     connID,
			ExternalID:       model.ExternalAccountID(info.ID, model.KindInvestment),
			Kind:             model.KindInvestment,
			Currency:         info.CurrencyCode,
			Balance:          cash.Invested,
			AvailableBalance: cash.Invested,
		},
	}

	for _, side := range sides {
		acct, created, err := s.store.UpsertBrokerAccount(side)
		if err != nil {
			return AccountPair{}, fmt.Errorf("upserting %s account: %w", side.Kind, err)
		}
		if created {
			res.AccountsCreated++
		} else {
			res.AccountsUpdated++
		}
		switch acct.Kind {
		case model.KindCash:
			pair.Cash = acct
		case model.KindInvestment:
			pair.Investment = acct
		}
	}
	return pair, nil
}

// appendFresh merges fetched records against the existing store and appends
// only the new ones.
func (s *Syncer) appendFresh(brokerAccountID int64, existing []store.StoredRecord, fetched []model.TransactionRecord) error {
	fresh := MergeNewRecords(s.log, existing, fetched)
	if len(fresh) == 0 {
		return nil
	}
	if err := s.store.AppendRecords(brokerAccountID, fresh); err != nil {
		return fmt.Errorf("appending records: %w", err)
	}
	return nil
}

// handleAPIError flips the connection to requires_update on credential
// rejections and wraps everything else with context.
func (s *Syncer) handleAPIError(connID string, err error, action string) error {
	if trading212.IsAuthError(err) {
		if serr := s.store.SetConnectionStatus(connID, model.ConnectionRequiresUpdate); serr != nil {
			s.log.Error().Err(serr).Str("connection", connID).Msg("marking connection requires_update failed")
		}
		return fmt.Errorf("%s: credentials rejected: %w", action, err)
	}
	return fmt.Errorf("%s: %w", action, err)
}

// fail records the error on the result and passes it through.
func (s *Syncer) fail(res SyncResult, err error) (SyncResult, error) {
	res.Success = false
	res.Error = err.Error()
	return res, err
}
