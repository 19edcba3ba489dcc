package main

import (
	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/cobra"

	"budgetshop/internal/cli"
	"budgetshop/internal/services"
	"budgetshop/internal/taxonomy"
)

var (
	flagUserEmail string
	flagUserName  string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account with a generated password",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		res := cli.OpenStore(ctx, cfg, logger)
		defer res.Cleanup()

		password := gofakeit.Password(true, true, true, false, false, 16)
		auth := services.NewAuthService(res.Store, cfg.BcryptCost)
		user, err := auth.Register(ctx, flagUserEmail, flagUserName, password)
		if err != nil {
			return err
		}

		categories := services.NewCategoryService(res.Store, nil)
		if _, err := taxonomy.Install(ctx, categories, user.ID); err != nil {
			logger.Warn("Failed to install default categories",
				"user_id", user.ID, "error", err)
		}

		cmd.Printf("Created user %d <%s>\n", user.ID, user.Email)
		cmd.Printf("Password: %s\n", password)
		return nil
	},
}

func init() {
	userCreateCmd.Flags().StringVar(&flagUserEmail, "email", "", "login email (required)")
	userCreateCmd.Flags().StringVar(&flagUserName, "name", "", "display name (required)")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("name")
	userCmd.AddCommand(userCreateCmd)
	rootCmd.AddCommand(userCmd)
}
