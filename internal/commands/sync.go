package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/brokersync/internal/sync"
	"github.com/cleared-dev/brokersync/internal/synclog"
	"github.com/cleared-dev/brokersync/internal/trading212"
)

func newSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync <connection>",
		Short: "Fetch and reconcile a connection's activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()
			return runSync(cmd, rt, args[0])
		},
	}
}

func runSync(cmd *cobra.Command, rt *runtime, connArg string) error {
	conn, err := findConnection(rt.store, connArg)
	if err != nil {
		return err
	}

	factory := func(apiKey, apiSecret string) sync.ExportClient {
		return trading212.New(rt.cfg.API.BaseURL, apiKey, apiSecret, rt.log)
	}
	syncer := sync.NewSyncer(rt.store, factory, rt.cfg.Sync.DefaultCurrency, rt.cfg.Sync.SkipActions, rt.log)

	res, syncErr := syncer.Sync(cmd.Context(), conn.ID)

	// The run lands in the log whether it succeeded or not.
	entry := synclog.Entry{
		Timestamp:       time.Now(),
		Connection:      conn.Name,
		AccountsCreated: res.AccountsCreated,
		AccountsUpdated: res.AccountsUpdated,
		Imported:        res.TransactionsImported,
		Failed:          res.RecordsFailed,
		Error:           res.Error,
	}
	if err := synclog.Append(rt.cfg.DataDir(), []synclog.Entry{entry}); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to write sync log: %v\n", err)
	}

	if syncErr != nil {
		return syncErr
	}

	fmt.Printf("Synced %s: %d imported, %d failed (%d accounts created, %d updated)\n",
		conn.Name, res.TransactionsImported, res.RecordsFailed, res.AccountsCreated, res.AccountsUpdated)
	if res.RecordsFailed > 0 {
		return fmt.Errorf("%d records failed; see the log above", res.RecordsFailed)
	}
	return nil
}
