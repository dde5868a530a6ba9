package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/brokersync/internal/buildinfo"
	"github.com/cleared-dev/brokersync/internal/config"
	"github.com/cleared-dev/brokersync/internal/logging"
	"github.com/cleared-dev/brokersync/internal/model"
	"github.com/cleared-dev/brokersync/internal/store"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "brokersync",
		Short:   "Reconcile brokerage activity into a local double-entry ledger",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "brokersync.yaml", "path to the config file")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newConnectCommand())
	rootCmd.AddCommand(newLinkCommand())
	rootCmd.AddCommand(newAccountsCommand())
	rootCmd.AddCommand(newSyncCommand())
	rootCmd.AddCommand(newStatusCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// runtime bundles what every data-touching subcommand needs. Callers must
// Close it.
type runtime struct {
	cfg   *config.Config
	log   zerolog.Logger
	store *store.Store
}

func (r *runtime) Close() {
	if r.store != nil {
		r.store.Close()
	}
}

func setup(cmd *cobra.Command) (*runtime, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("run 'brokersync init' first: %w", err)
	}

	log := logging.Default(cfg.Log.Level)
	st, err := store.Open(cfg.Database.Path, log)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return &runtime{cfg: cfg, log: log, store: st}, nil
}

// findConnection resolves a connection by display name, falling back to id.
func findConnection(st *store.Store, nameOrID string) (*model.Connection, error) {
	conn, err := st.GetConnectionByName(nameOrID)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		if conn, err = st.GetConnection(nameOrID); err != nil {
			return nil, err
		}
	}
	if conn == nil {
		return nil, fmt.Errorf("connection %q not found", nameOrID)
	}
	return conn, nil
}
