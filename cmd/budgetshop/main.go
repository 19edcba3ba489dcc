package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetshop/internal/cli"
	"budgetshop/internal/event"
	apphttp "budgetshop/internal/http"
	"budgetshop/internal/log"
	"budgetshop/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp)

	ctx, stop := cli.SignalContext()
	defer stop()

	res := cli.OpenStore(ctx, cfg, logger)
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Store cleanup failed", "error", err)
		}
	}()

	// The broker is optional: without it expenses stay sync-pending
	// until a worker sweep picks them up.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := event.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without event publishing", "error", err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("Connected to AMQP broker",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	summaries := services.NewSummaryService(res.Store)
	expenses := services.NewExpenseService(res.Store, publisher, summaries)
	svc := apphttp.Services{
		Auth:          services.NewAuthService(res.Store, cfg.BcryptCost),
		Categories:    services.NewCategoryService(res.Store, summaries),
		Expenses:      expenses,
		Recurring:     services.NewRecurringService(res.Store, expenses),
		Budgets:       services.NewBudgetService(res.Store, summaries),
		Shopping:      services.NewShoppingService(res.Store, expenses),
		Summaries:     summaries,
		Notifications: services.NewNotificationService(res.Store),
	}

	srv := apphttp.New(cfg, res.Store, logger, svc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting HTTP server",
			"addr", srv.Addr,
			"env", cfg.AppEnv,
			"backend", cfg.DBBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		// Cancelled by a shutdown signal or by the listener failing.
		<-gctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
