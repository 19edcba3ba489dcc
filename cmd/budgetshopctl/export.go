package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"budgetshop/internal/cli"
	"budgetshop/internal/sheets"
	"budgetshop/internal/sheets/google"
	"budgetshop/internal/store"
)

var (
	flagExportEmail string
	flagExportYear  int
	flagExportMonth int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Backfill one month of a user's expenses to the spreadsheet",
	Long:  "Re-appends every expense of the given month to the configured Google spreadsheet and marks the rows synced. Expenses are user-scoped, so the backfill is too.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.SheetsEnabled() {
			return errors.New("GOOGLE_SPREADSHEET_ID is not configured")
		}

		ctx := cmd.Context()
		res := cli.OpenStore(ctx, cfg, logger)
		defer res.Cleanup()

		user, err := res.Store.UserByEmail(ctx, flagExportEmail)
		if err != nil {
			return fmt.Errorf("resolve user %s: %w", flagExportEmail, err)
		}

		expenses, err := res.Store.Expenses(ctx, user.ID, store.ExpenseFilter{
			Year:  flagExportYear,
			Month: flagExportMonth,
		})
		if err != nil {
			return fmt.Errorf("list expenses: %w", err)
		}
		if len(expenses) == 0 {
			cmd.Printf("No expenses for %s in %04d-%02d\n",
				user.Email, flagExportYear, flagExportMonth)
			return nil
		}

		writer, err := google.New(ctx, google.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetBase:       cfg.GoogleSheetName,
			OAuthClientFile: cfg.GoogleOAuthClientFile,
			OAuthClientJSON: cfg.GoogleOAuthClientJSON,
			OAuthTokenFile:  cfg.GoogleOAuthTokenFile,
			OAuthTokenJSON:  cfg.GoogleOAuthTokenJSON,
		})
		if err != nil {
			return fmt.Errorf("sheets client: %w", err)
		}

		// The store lists newest first; the sheet wants chronological order.
		exported := 0
		for i := len(expenses) - 1; i >= 0; i-- {
			e := expenses[i]
			categoryName := ""
			if cat, err := res.Store.CategoryByID(ctx, user.ID, e.CategoryID); err == nil {
				categoryName = cat.Name
			}
			if _, err := writer.Append(ctx, sheets.RowFor(e, categoryName)); err != nil {
				return fmt.Errorf("append expense %d: %w", e.ID, err)
			}
			if err := res.Store.MarkSynced(ctx, e.ID); err != nil {
				logger.Warn("Failed to mark expense synced", "expense_id", e.ID, "error", err)
			}
			exported++
		}

		cmd.Printf("Exported %d expenses for %s (%04d-%02d)\n",
			exported, user.Email, flagExportYear, flagExportMonth)
		return nil
	},
}

func init() {
	now := time.Now()
	exportCmd.Flags().StringVar(&flagExportEmail, "email", "", "account to export (required)")
	exportCmd.Flags().IntVar(&flagExportYear, "year", now.Year(), "year to export")
	exportCmd.Flags().IntVar(&flagExportMonth, "month", int(now.Month()), "month to export (1-12)")
	_ = exportCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(exportCmd)
}
