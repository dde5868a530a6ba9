package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/brokersync/internal/config"
	"github.com/cleared-dev/brokersync/internal/model"
)

func newConnectCommand() *cobra.Command {
	var apiKey string
	var apiSecret string

	cmd := &cobra.Command{
		Use:   "connect <name>",
		Short: "Register a brokerage connection",
		Long: "Register a brokerage connection under a display name. Credentials come\n" +
			"from the flags, or from " + config.EnvAPIKey + " / " + config.EnvAPISecret + " when omitted.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()
			return runConnect(rt, args[0], apiKey, apiSecret)
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key")
	cmd.Flags().StringVar(&apiSecret, "api-secret", "", "API secret")

	return cmd
}

func runConnect(rt *runtime, name, apiKey, apiSecret string) error {
	if apiKey == "" {
		apiKey = rt.cfg.API.Key
	}
	if apiSecret == "" {
		apiSecret = rt.cfg.API.Secret
	}
	if apiKey == "" || apiSecret == "" {
		return fmt.Errorf("missing credentials: pass --api-key/--api-secret or set %s/%s",
			config.EnvAPIKey, config.EnvAPISecret)
	}

	existing, err := rt.store.GetConnectionByName(name)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("connection %q already exists", name)
	}

	conn := model.Connection{
		ID:        uuid.NewString(),
		Name:      name,
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if err := rt.store.CreateConnection(conn); err != nil {
		return err
	}

	fmt.Printf("Registered connection %s (%s)\n", name, conn.ID)
	fmt.Println("Run 'brokersync sync' to discover its accounts, then 'brokersync link' to start importing.")
	return nil
}
