package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"budgetshop/internal/core"
	"budgetshop/internal/store"
)

// RecurringService manages expense templates and materializes the due
// ones into real expenses.
type RecurringService struct {
	store    store.Store
	expenses *ExpenseService
}

func NewRecurringService(st store.Store, expenses *ExpenseService) *RecurringService {
	return &RecurringService{store: st, expenses: expenses}
}

func (s *RecurringService) Create(ctx context.Context, r core.RecurringExpense) (core.RecurringExpense, error) {
	r.Active = true
	if err := r.Validate(); err != nil {
		return core.RecurringExpense{}, err
	}
	if err := requireExpenseCategory(ctx, s.store, r.UserID, r.CategoryID); err != nil {
		return core.RecurringExpense{}, err
	}
	if err := s.store.CreateRecurring(ctx, &r); err != nil {
		return core.RecurringExpense{}, err
	}
	slog.InfoContext(ctx, "Created recurring template",
		"recurring_id", r.ID,
		"user_id", r.UserID,
		"frequency", r.Every)
	return r, nil
}

func (s *RecurringService) Get(ctx context.Context, userID, id int64) (core.RecurringExpense, error) {
	return s.store.RecurringByID(ctx, userID, id)
}

func (s *RecurringService) List(ctx context.Context, userID int64) ([]core.RecurringExpense, error) {
	return s.store.RecurringForUser(ctx, userID)
}

// Update edits a template. LastRun is owned by the materialization job
// and always preserved from the stored row.
func (s *RecurringService) Update(ctx context.Context, r core.RecurringExpense) (core.RecurringExpense, error) {
	existing, err := s.store.RecurringByID(ctx, r.UserID, r.ID)
	if err != nil {
		return core.RecurringExpense{}, err
	}
	r.LastRun = existing.LastRun
	if err := r.Validate(); err != nil {
		return core.RecurringExpense{}, err
	}
	if err := requireExpenseCategory(ctx, s.store, r.UserID, r.CategoryID); err != nil {
		return core.RecurringExpense{}, err
	}
	if err := s.store.UpdateRecurring(ctx, r); err != nil {
		return core.RecurringExpense{}, err
	}
	return r, nil
}

func (s *RecurringService) Delete(ctx context.Context, userID, id int64) error {
	return s.store.DeleteRecurring(ctx, userID, id)
}

// ProcessDue walks every active template and materializes the due ones
// as expenses dated today. Templates past their end date are
// deactivated. Each materialization leaves a deduplicated notification
// so a crashed run never notifies twice. Returns the number of expenses
// created.
func (s *RecurringService) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	active, err := s.store.ActiveRecurring(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active recurring: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring expenses",
		"total_active", len(active),
		"processing_date", now.Format("2006-01-02"))

	today := core.DateOf(now)
	processed := 0
	for _, r := range active {
		if r.StartDate.After(now) {
			continue
		}
		if !r.EndDate.IsZero() && r.EndDate.Before(today.Time) {
			r.Active = false
			if err := s.store.UpdateRecurring(ctx, r); err != nil {
				slog.ErrorContext(ctx, "Failed to deactivate ended template",
					"recurring_id", r.ID, "error", err)
			} else {
				slog.InfoContext(ctx, "Deactivated ended template",
					"recurring_id", r.ID, "end_date", r.EndDate.String())
			}
			continue
		}

		checker, err := GetDuenessChecker(r.Every)
		if err != nil {
			slog.ErrorContext(ctx, "Unknown repetition type",
				"recurring_id", r.ID, "every", r.Every)
			continue
		}
		if !checker.IsDue(r.LastRun.Time, now, r.StartDate) {
			continue
		}

		exp, err := s.expenses.Create(ctx, core.Expense{
			UserID:      r.UserID,
			CategoryID:  r.CategoryID,
			Date:        today,
			Description: r.Description,
			Amount:      r.Amount,
		})
		if err != nil {
			slog.ErrorContext(ctx, "Failed to create expense from template",
				"recurring_id", r.ID,
				"description", r.Description,
				"error", err)
			continue
		}

		r.LastRun = today
		if err := s.store.UpdateRecurring(ctx, r); err != nil {
			slog.ErrorContext(ctx, "Failed to update last run",
				"recurring_id", r.ID, "error", err)
			// Continue anyway - the expense exists, the next run may
			// double up but the dedup key still blocks a second
			// notification today.
		}
		s.notify(ctx, r, today)

		processed++
		slog.InfoContext(ctx, "Created expense from template",
			"recurring_id", r.ID,
			"expense_id", exp.ID,
			"amount_cents", r.Amount.Cents,
			"frequency", r.Every)
	}

	slog.InfoContext(ctx, "Recurring processing complete",
		"processed", processed,
		"total_checked", len(active))
	return processed, nil
}

func (s *RecurringService) notify(ctx context.Context, r core.RecurringExpense, day core.Date) {
	n := core.Notification{
		UserID:   r.UserID,
		Kind:     core.NotifyRecurringCreate,
		Message:  fmt.Sprintf("Recorded recurring expense %q (%s)", r.Description, r.Amount),
		DedupKey: fmt.Sprintf("recurring:%d:%s", r.ID, day.String()),
	}
	err := s.store.CreateNotification(ctx, &n)
	if err != nil && !errors.Is(err, store.ErrDuplicate) {
		slog.ErrorContext(ctx, "Failed to create notification",
			"recurring_id", r.ID, "error", err)
	}
}
