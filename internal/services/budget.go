package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"budgetshop/internal/core"
	"budgetshop/internal/store"
)

// BudgetService manages spending caps and their window rollover.
type BudgetService struct {
	store     store.Store
	summaries summaryInvalidator
}

func NewBudgetService(st store.Store, summaries summaryInvalidator) *BudgetService {
	return &BudgetService{store: st, summaries: summaries}
}

// Create stores a new active budget. A zero start date snaps the window
// to the current period; a zero end date derives it from the start.
func (s *BudgetService) Create(ctx context.Context, b core.Budget) (core.Budget, error) {
	if b.StartDate.IsZero() {
		b.StartDate, b.EndDate = b.Period.Window(core.DateOf(time.Now()))
	} else if b.EndDate.IsZero() {
		b.StartDate, b.EndDate = b.Period.Window(b.StartDate)
	}
	b.Active = true

	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if b.CategoryID != 0 {
		if err := requireExpenseCategory(ctx, s.store, b.UserID, b.CategoryID); err != nil {
			return core.Budget{}, err
		}
	}
	if err := s.store.CreateBudget(ctx, &b); err != nil {
		return core.Budget{}, err
	}
	s.invalidate(b.UserID)
	slog.InfoContext(ctx, "Created budget",
		"budget_id", b.ID,
		"user_id", b.UserID,
		"period", b.Period,
		"amount_cents", b.Amount.Cents)
	return b, nil
}

func (s *BudgetService) Update(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if b.CategoryID != 0 {
		if err := requireExpenseCategory(ctx, s.store, b.UserID, b.CategoryID); err != nil {
			return core.Budget{}, err
		}
	}
	if err := s.store.UpdateBudget(ctx, b); err != nil {
		return core.Budget{}, err
	}
	s.invalidate(b.UserID)
	return s.store.BudgetByID(ctx, b.UserID, b.ID)
}

func (s *BudgetService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteBudget(ctx, userID, id); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

// Get returns one budget with usage over its stored window.
func (s *BudgetService) Get(ctx context.Context, userID, id int64) (core.BudgetStatus, error) {
	b, err := s.store.BudgetByID(ctx, userID, id)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	statuses, err := statusesFor(ctx, s.store, userID, []core.Budget{b})
	if err != nil {
		return core.BudgetStatus{}, err
	}
	return statuses[0], nil
}

// List returns the user's budgets, each with usage over its own window.
func (s *BudgetService) List(ctx context.Context, userID int64, activeOnly bool) ([]core.BudgetStatus, error) {
	budgets, err := s.store.BudgetsForUser(ctx, userID, activeOnly)
	if err != nil {
		return nil, err
	}
	return statusesFor(ctx, s.store, userID, budgets)
}

// RolloverExpired advances every active budget whose window has closed:
// the old row is deactivated and a clone covering the next window is
// created. Windows are skipped forward when the job missed several
// periods. Returns the number of budgets rolled.
func (s *BudgetService) RolloverExpired(ctx context.Context, now time.Time) (int, error) {
	today := core.DateOf(now)
	expired, err := s.store.ExpiredActiveBudgets(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("list expired budgets: %w", err)
	}

	rolled := 0
	for _, b := range expired {
		start, end := b.Period.Next(b.StartDate)
		for end.Before(today.Time) {
			start, end = b.Period.Next(start)
		}

		// Deactivate first; one active budget per user+category+period.
		old := b
		old.Active = false
		if err := s.store.UpdateBudget(ctx, old); err != nil {
			slog.ErrorContext(ctx, "Failed to deactivate expired budget",
				"budget_id", b.ID, "error", err)
			continue
		}

		next := core.Budget{
			UserID:     b.UserID,
			CategoryID: b.CategoryID,
			Amount:     b.Amount,
			Period:     b.Period,
			StartDate:  start,
			EndDate:    end,
			Active:     true,
		}
		if err := s.store.CreateBudget(ctx, &next); err != nil {
			slog.ErrorContext(ctx, "Failed to create rolled budget",
				"budget_id", b.ID, "error", err)
			if rerr := s.store.UpdateBudget(ctx, b); rerr != nil {
				slog.ErrorContext(ctx, "Failed to reactivate budget after rollover error",
					"budget_id", b.ID, "error", rerr)
			}
			continue
		}

		s.invalidate(b.UserID)
		rolled++
		slog.InfoContext(ctx, "Rolled budget into next window",
			"budget_id", b.ID,
			"next_id", next.ID,
			"window_start", start.String(),
			"window_end", end.String())
	}

	if rolled > 0 || len(expired) > 0 {
		slog.InfoContext(ctx, "Budget rollover complete",
			"expired", len(expired), "rolled", rolled)
	}
	return rolled, nil
}

func (s *BudgetService) invalidate(userID int64) {
	if s.summaries != nil {
		s.summaries.Invalidate(userID)
	}
}
