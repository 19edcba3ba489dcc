// budgetshopctl carries the admin tasks of a Budget Shop deployment:
// migrations, demo data, spreadsheet backfills and account creation.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"budgetshop/internal/cli"
	"budgetshop/internal/config"
	"budgetshop/internal/log"
)

var (
	cfg    *config.Config
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "budgetshopctl",
	Short: "Budget Shop administration commands",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg, logger = cli.Bootstrap(log.ComponentCLI)
	},
	SilenceUsage: true,
}

func main() {
	ctx, stop := cli.SignalContext()
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
