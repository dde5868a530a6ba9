package commands

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/brokersync/internal/synclog"
)

func newStatusCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show connection health and recent sync runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()
			return runStatus(rt, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 5, "number of recent sync runs to show")

	return cmd
}

func runStatus(rt *runtime, limit int) error {
	conns, err := rt.store.ListConnections()
	if err != nil {
		return err
	}
	if len(conns) == 0 {
		fmt.Println("No connections. Run 'brokersync connect' to add one.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, conn := range conns {
		lastSynced := "never"
		if conn.LastSyncedAt != nil {
			lastSynced = conn.LastSyncedAt.Local().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\tlast synced %s\n", conn.Name, conn.Status, lastSynced)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	entries, err := synclog.Read(rt.cfg.DataDir())
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	fmt.Println("\nRecent syncs:")
	lw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, e := range entries {
		outcome := "ok"
		if e.Error != "" {
			outcome = e.Error
		} else if e.Failed > 0 {
			outcome = fmt.Sprintf("%d failed", e.Failed)
		}
		fmt.Fprintf(lw, "%s\t%s\t%d imported\t%s\n",
			e.Timestamp.Local().Format(time.RFC3339), e.Connection, e.Imported, outcome)
	}
	return lw.Flush()
}
