package main

import (
	"github.com/spf13/cobra"

	"budgetshop/internal/cli"
	"budgetshop/internal/seed"
)

var (
	flagSeedUsers  int
	flagSeedMonths int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the store with demo data",
	Long:  "Creates demo accounts with default categories, expense history, budgets, a recurring expense and a shopping list. Data goes through the regular services, so seeded records obey the same rules as API writes.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		res := cli.OpenStore(ctx, cfg, logger)
		defer res.Cleanup()

		sum, err := seed.Run(ctx, res.Store, seed.Config{
			Users:      flagSeedUsers,
			Months:     flagSeedMonths,
			BcryptCost: cfg.BcryptCost,
		})
		if err != nil {
			return err
		}

		cmd.Printf("Seeded %d users, %d categories, %d expenses, %d budgets, %d lists, %d items\n",
			sum.Users, sum.Categories, sum.Expenses, sum.Budgets, sum.Lists, sum.Items)
		cmd.Printf("Every account logs in with password %q\n", seed.Password)
		return nil
	},
}

func init() {
	seedCmd.Flags().IntVar(&flagSeedUsers, "users", 3, "demo accounts to create")
	seedCmd.Flags().IntVar(&flagSeedMonths, "months", 3, "months of expense history")
	rootCmd.AddCommand(seedCmd)
}
