// Package worker consumes expense events and keeps the export pipeline
// and budget alerts moving. It is the long-running half of the system:
// the API records and publishes, the worker exports to the spreadsheet,
// marks sync state and raises budget notifications.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"budgetshop/internal/core"
	"budgetshop/internal/event"
	"budgetshop/internal/sheets"
	"budgetshop/internal/store"
)

// Config tunes the periodic pending sweep.
type Config struct {
	// PollInterval is how often the sweep looks for unsynced expenses.
	PollInterval time.Duration
	// BatchSize caps expenses handled per sweep pass. The startup check
	// uses five times this.
	BatchSize int
}

func DefaultConfig() Config {
	return Config{
		PollInterval: 30 * time.Second,
		BatchSize:    10,
	}
}

// Worker processes expense events and sweeps unsynced rows. The sheet
// writer may be nil; export is then skipped and rows stay pending, but
// budget alerts still fire.
type Worker struct {
	store  store.Store
	sheets sheets.ExpenseWriter
	config Config

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func New(st store.Store, writer sheets.ExpenseWriter, config Config) *Worker {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultConfig().PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	return &Worker{store: st, sheets: writer, config: config}
}

// HandleEvent dispatches one broker event. A non-nil return means the
// delivery should be redelivered; export failures are not that - they
// are marked on the row and retried by the sweep.
func (w *Worker) HandleEvent(ctx context.Context, ev *event.ExpenseEvent) error {
	switch ev.Kind {
	case event.KindExpenseRecorded:
		return w.handleRecorded(ctx, ev)
	case event.KindExpenseDeleted:
		return w.handleDeleted(ctx, ev)
	default:
		slog.WarnContext(ctx, "Unknown event kind, dropping",
			"kind", ev.Kind, "expense_id", ev.ID)
		return nil
	}
}

func (w *Worker) handleRecorded(ctx context.Context, ev *event.ExpenseEvent) error {
	slog.InfoContext(ctx, "Processing recorded event",
		"expense_id", ev.ID, "version", ev.Version)

	e, err := w.store.ExpenseByID(ctx, ev.UserID, ev.ID)
	if errors.Is(err, store.ErrNotFound) {
		slog.InfoContext(ctx, "Expense gone before processing, skipping", "expense_id", ev.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load expense: %w", err)
	}

	// A newer event is in flight for this row; let it do the export.
	if e.Version != ev.Version {
		slog.InfoContext(ctx, "Expense changed since event, skipping stale delivery",
			"expense_id", ev.ID,
			"event_version", ev.Version,
			"current_version", e.Version)
		return nil
	}

	if w.sheets != nil {
		if err := w.exportExpense(ctx, e); err != nil {
			slog.ErrorContext(ctx, "Failed to export expense",
				"expense_id", e.ID, "error", err)
		}
	}

	w.checkBudgets(ctx, e)
	return nil
}

// handleDeleted only logs: the spreadsheet export is append-only, and
// budget usage cannot cross a threshold by shrinking.
func (w *Worker) handleDeleted(ctx context.Context, ev *event.ExpenseEvent) error {
	slog.InfoContext(ctx, "Expense deleted, sheet rows are kept",
		"expense_id", ev.ID,
		"amount_cents", ev.AmountCents,
		"date", ev.Date)
	return nil
}

// exportExpense appends one row and records the outcome on the expense.
func (w *Worker) exportExpense(ctx context.Context, e core.Expense) error {
	categoryName := ""
	if cat, err := w.store.CategoryByID(ctx, e.UserID, e.CategoryID); err == nil {
		categoryName = cat.Name
	}

	ref, err := w.sheets.Append(ctx, sheets.RowFor(e, categoryName))
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, e.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error",
				"expense_id", e.ID, "error", markErr)
		}
		return fmt.Errorf("append to sheet: %w", err)
	}

	if err := w.store.MarkSynced(ctx, e.ID); err != nil {
		// The export itself worked, leave it at a log.
		slog.ErrorContext(ctx, "Failed to mark as synced",
			"expense_id", e.ID, "error", err)
	}

	slog.InfoContext(ctx, "Exported expense",
		"expense_id", e.ID,
		"sheets_ref", ref,
		"amount_cents", e.Amount.Cents)
	return nil
}

// checkBudgets raises warning and exceeded notifications for budgets
// the expense counts against. The dedup key keeps it at one alert per
// budget window and kind.
func (w *Worker) checkBudgets(ctx context.Context, e core.Expense) {
	budgets, err := w.store.BudgetsForUser(ctx, e.UserID, true)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load budgets for alerts",
			"user_id", e.UserID, "error", err)
		return
	}

	for _, b := range budgets {
		if b.CategoryID != 0 && b.CategoryID != e.CategoryID {
			continue
		}
		if !b.Contains(e.Date) {
			continue
		}

		spent, err := w.store.SpentBetween(ctx, e.UserID, b.CategoryID, b.StartDate, b.EndDate)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to compute budget usage",
				"budget_id", b.ID, "error", err)
			continue
		}
		status := b.Status(core.Money{Cents: spent})

		label := "Overall budget"
		if b.CategoryID != 0 {
			label = "Budget"
			if cat, err := w.store.CategoryByID(ctx, e.UserID, b.CategoryID); err == nil {
				label = fmt.Sprintf("Budget for %s", cat.Name)
			}
		}

		var kind core.NotificationKind
		var message string
		switch {
		case status.UsedBP > core.ExceedThresholdBP:
			kind = core.NotifyBudgetExceeded
			message = fmt.Sprintf("%s exceeded: spent %s of %s", label, status.Spent, b.Amount)
		case status.UsedBP >= core.WarnThresholdBP:
			kind = core.NotifyBudgetWarning
			message = fmt.Sprintf("%s at %d%%: spent %s of %s", label, status.UsedBP/100, status.Spent, b.Amount)
		default:
			continue
		}

		n := core.Notification{
			UserID:   e.UserID,
			Kind:     kind,
			Message:  message,
			DedupKey: core.BudgetDedupKey(b.ID, b.StartDate, kind),
		}
		err = w.store.CreateNotification(ctx, &n)
		if errors.Is(err, store.ErrDuplicate) {
			continue
		}
		if err != nil {
			slog.ErrorContext(ctx, "Failed to create budget notification",
				"budget_id", b.ID, "error", err)
			continue
		}
		slog.InfoContext(ctx, "Raised budget alert",
			"budget_id", b.ID,
			"kind", kind,
			"used_bp", status.UsedBP)
	}
}

// ProcessPending exports one batch of unsynced expenses. This is the
// backup path for events lost while the broker or worker was down.
func (w *Worker) ProcessPending(ctx context.Context) error {
	if w.sheets == nil {
		return nil
	}

	pending, err := w.store.PendingSyncExpenses(ctx, w.config.BatchSize)
	if err != nil {
		return fmt.Errorf("list pending expenses: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending expenses", "count", len(pending))
	for _, e := range pending {
		if err := w.exportExpense(ctx, e); err != nil {
			slog.ErrorContext(ctx, "Failed to export pending expense",
				"expense_id", e.ID, "error", err)
		}
	}
	return nil
}

// StartupCheck drains a larger pending backlog once, before the
// periodic sweep takes over.
func (w *Worker) StartupCheck(ctx context.Context) error {
	if w.sheets == nil {
		slog.InfoContext(ctx, "No sheet writer configured, skipping startup export check")
		return nil
	}

	pending, err := w.store.PendingSyncExpenses(ctx, w.config.BatchSize*5)
	if err != nil {
		return fmt.Errorf("list pending expenses for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending expenses found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending expenses on startup, processing...",
		"count", len(pending))

	synced := 0
	failed := 0
	for _, e := range pending {
		if err := w.exportExpense(ctx, e); err != nil {
			slog.ErrorContext(ctx, "Failed to export expense during startup",
				"expense_id", e.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup export completed",
		"total", len(pending),
		"synced", synced,
		"errors", failed)
	return nil
}

// Start launches the periodic pending sweep.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return errors.New("worker already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})

	go w.runLoop(ctx, w.stopCh, w.doneCh)

	slog.InfoContext(ctx, "Export worker started",
		"poll_interval", w.config.PollInterval,
		"batch_size", w.config.BatchSize)
	return nil
}

// Stop halts the sweep and waits for the current pass to finish.
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	close(w.stopCh)
	doneCh := w.doneCh
	w.mu.Unlock()

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Export worker stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker shutdown: %w", ctx.Err())
	}
}

// IsRunning reports whether the sweep loop is active.
func (w *Worker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Worker) runLoop(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			if err := w.ProcessPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Pending export pass failed", "error", err)
			}
		}
	}
}
