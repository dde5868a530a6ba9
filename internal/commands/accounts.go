package commands

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/brokersync/internal/model"
	"github.com/cleared-dev/brokersync/internal/store"
)

func newAccountsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "accounts [connection]",
		Short: "List connections and their broker accounts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			var conns []model.Connection
			if len(args) > 0 {
				conn, err := findConnection(rt.store, args[0])
				if err != nil {
					return err
				}
				conns = []model.Connection{*conn}
			} else {
				if conns, err = rt.store.ListConnections(); err != nil {
					return err
				}
			}
			return printAccounts(rt.store, conns)
		},
	}
}

func printAccounts(st *store.Store, conns []model.Connection) error {
	if len(conns) == 0 {
		fmt.Println("No connections. Run 'brokersync connect' to add one.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	for _, conn := range conns {
		lastSynced := "never"
		if conn.LastSyncedAt != nil {
			lastSynced = conn.LastSyncedAt.Local().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\tlast synced %s\n", conn.Name, conn.Status, lastSynced)

		accounts, err := st.BrokerAccounts(conn.ID)
		if err != nil {
			return err
		}
		if len(accounts) == 0 {
			fmt.Fprintf(w, "  (no accounts discovered yet)\n")
			continue
		}
		for _, acct := range accounts {
			link := "unlinked"
			if acct.Linked() {
				lacct, err := st.GetLedgerAccount(acct.LedgerAccountID)
				if err != nil {
					return err
				}
				if lacct != nil {
					link = fmt.Sprintf("-> %s (%d)", lacct.Name, lacct.ID)
				}
			}
			fmt.Fprintf(w, "  %s\t%s %s\t%s\n", acct.ExternalID, acct.Balance.StringFixed(2), acct.Currency, link)
		}
	}
	return nil
}
