package main

import (
	"context"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"budgetshop/internal/cli"
	"budgetshop/internal/log"
	"budgetshop/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentRecurring)

	ctx, stop := cli.SignalContext()
	defer stop()

	res := cli.OpenStore(ctx, cfg, logger)
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Store cleanup failed", "error", err)
		}
	}()

	// No broker here: materialized expenses reach the spreadsheet
	// through the export worker's pending sweep.
	summaries := services.NewSummaryService(res.Store)
	expenses := services.NewExpenseService(res.Store, nil, summaries)
	recurring := services.NewRecurringService(res.Store, expenses)
	budgets := services.NewBudgetService(res.Store, summaries)
	auth := services.NewAuthService(res.Store, cfg.BcryptCost)

	materialize := func() {
		count, err := recurring.ProcessDue(ctx, time.Now())
		if err != nil {
			logger.Error("Recurring materialization failed", "error", err)
			return
		}
		if count > 0 {
			logger.Info("Materialized recurring expenses", "count", count)
		}
	}

	sched := cron.New()
	if _, err := sched.AddFunc(cfg.RecurringSpec, materialize); err != nil {
		logger.Error("Invalid RECURRING_CRON spec",
			"spec", cfg.RecurringSpec, "error", err)
		os.Exit(1)
	}

	// Window maintenance runs shortly after midnight, once the day the
	// old windows closed on is over.
	if _, err := sched.AddFunc("5 0 * * *", func() {
		count, err := budgets.RolloverExpired(ctx, time.Now())
		if err != nil {
			logger.Error("Budget rollover failed", "error", err)
			return
		}
		if count > 0 {
			logger.Info("Rolled over expired budgets", "count", count)
		}
	}); err != nil {
		logger.Error("Failed to schedule budget rollover", "error", err)
		os.Exit(1)
	}

	if _, err := sched.AddFunc("15 0 * * *", func() {
		count, err := auth.SweepExpiredSessions(ctx, time.Now())
		if err != nil {
			logger.Error("Session sweep failed", "error", err)
			return
		}
		if count > 0 {
			logger.Info("Swept expired sessions", "count", count)
		}
	}); err != nil {
		logger.Error("Failed to schedule session sweep", "error", err)
		os.Exit(1)
	}

	// Catch up immediately: a worker that was down over a due date
	// should not wait for the next tick.
	materialize()

	sched.Start()
	logger.Info("Recurring worker started", "spec", cfg.RecurringSpec)

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	jobsDone := sched.Stop()
	select {
	case <-jobsDone.Done():
		logger.Info("Recurring worker stopped")
	case <-time.After(30 * time.Second):
		logger.Warn("Shutdown timeout reached with jobs still running")
	}
}
