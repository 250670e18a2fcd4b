package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/notemarket/notemarket/internal/daemon"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("config", "c", "", "Path to config.toml")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the marketplace backend",
	Long: `Start the HTTP API and the wallet ledger. The platform commission
account named in [platform].account_id is created on first start.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := daemon.LoadConfig(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return daemon.Run(ctx, cfg)
}
