package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/brokersync/internal/model"
)

func newLinkCommand() *cobra.Command {
	var ledgerAccountID int64
	var ledgerAccountName string

	cmd := &cobra.Command{
		Use:   "link <connection> <external-id>",
		Short: "Link a broker account to a local ledger account",
		Long: "Link one side of a connection (by its external id, e.g. 20123_cash) to a\n" +
			"local ledger account. Unlinked broker accounts store records but never\n" +
			"post entries. Without --account a new ledger account is created.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()
			return runLink(rt, args[0], args[1], ledgerAccountID, ledgerAccountName)
		},
	}

	cmd.Flags().Int64Var(&ledgerAccountID, "account", 0, "existing ledger account id to link to")
	cmd.Flags().StringVar(&ledgerAccountName, "name", "", "name for a newly created ledger account")

	return cmd
}

func runLink(rt *runtime, connArg, externalID string, ledgerAccountID int64, name string) error {
	conn, err := findConnection(rt.store, connArg)
	if err != nil {
		return err
	}

	accounts, err := rt.store.BrokerAccounts(conn.ID)
	if err != nil {
		return err
	}

	var target *model.BrokerAccount
	var known []string
	for i := range accounts {
		known = append(known, accounts[i].ExternalID)
		if accounts[i].ExternalID == externalID {
			target = &accounts[i]
		}
	}
	if target == nil {
		if len(known) == 0 {
			return fmt.Errorf("connection %q has no discovered accounts yet; run 'brokersync sync %s' first", conn.Name, conn.Name)
		}
		return fmt.Errorf("no broker account %q on connection %q (have: %s)",
			externalID, conn.Name, strings.Join(known, ", "))
	}

	if ledgerAccountID == 0 {
		if name == "" {
			name = fmt.Sprintf("Trading 212 %s", target.Kind)
		}
		currency := model.NormalizeCurrency(target.Currency)
		if currency == "" {
			currency = rt.cfg.Sync.DefaultCurrency
		}
		lacct, err := rt.store.CreateLedgerAccount(name, currency)
		if err != nil {
			return err
		}
		ledgerAccountID = lacct.ID
	} else {
		lacct, err := rt.store.GetLedgerAccount(ledgerAccountID)
		if err != nil {
			return err
		}
		if lacct == nil {
			return fmt.Errorf("ledger account %d not found", ledgerAccountID)
		}
	}

	if err := rt.store.LinkBrokerAccount(target.ID, ledgerAccountID); err != nil {
		return err
	}

	fmt.Printf("Linked %s to ledger account %d\n", externalID, ledgerAccountID)
	fmt.Printf("Run 'brokersync sync %s' to import its history.\n", conn.Name)
	return nil
}
