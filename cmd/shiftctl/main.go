// Command shiftctl runs ledger maintenance and exports from the shell.
package main

import (
	"fmt"
	"os"

	"shiftcost-backend/internal/config"
	"shiftcost-backend/internal/logging"
	"shiftcost-backend/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	services *server.Services
	logger   *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "shiftctl",
	Short: "Shift reconciliation and costing maintenance",
	Long: `shiftctl works on the same database as the API server.

Available commands:
  window  - Show the trading window of a business date
  rebuild - Recompute the consumable ledger over a date range
  export  - Write ledger or reconciliation exports`,
	SilenceUsage: true,
}

// needsServices opens the database before a command runs.
func needsServices(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err = logging.New(cfg.IsDevelopment(), cfg.LogLevel)
	if err != nil {
		return err
	}
	for _, w := range cfg.Warnings {
		logger.Debug(w)
	}
	services, err = server.New(cfg, logger)
	return err
}

func closeServices(*cobra.Command, []string) error {
	if services == nil {
		return nil
	}
	_ = logger.Sync()
	return services.Close()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(windowCmd, rebuildCmd, exportCmd)
}
