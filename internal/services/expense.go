// Package services implements the Budget Shop use cases on top of the
// persistence port. Handlers and workers call services, never the store
// directly, so ownership checks, cache invalidation and event publishing
// happen in exactly one place.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"budgetshop/internal/core"
	"budgetshop/internal/event"
	"budgetshop/internal/store"
)

// ErrWrongCategoryKind is returned when an expense-side write points at
// an income category.
var ErrWrongCategoryKind = errors.New("category must be an expense category")

// EventPublisher pushes expense lifecycle events to the broker. The
// AMQP client implements it; tests use in-memory recorders.
type EventPublisher interface {
	Publish(ctx context.Context, ev *event.ExpenseEvent) error
}

// summaryInvalidator drops cached month summaries after a write.
type summaryInvalidator interface {
	Invalidate(userID int64)
}

// requireExpenseCategory verifies the category exists, belongs to the
// user and tracks spending rather than income.
func requireExpenseCategory(ctx context.Context, st store.Store, userID, categoryID int64) error {
	cat, err := st.CategoryByID(ctx, userID, categoryID)
	if errors.Is(err, store.ErrNotFound) {
		return core.ErrInvalidCategory
	}
	if err != nil {
		return fmt.Errorf("check category: %w", err)
	}
	if cat.Kind != core.KindExpense {
		return ErrWrongCategoryKind
	}
	return nil
}

// ExpenseService owns the expense lifecycle. Writes invalidate the
// summary cache and emit events; a publish failure never rolls back the
// stored row, the pending sweep re-exports it later.
type ExpenseService struct {
	store     store.Store
	events    EventPublisher
	summaries summaryInvalidator
}

// NewExpenseService wires the expense use cases. events and summaries
// may be nil; publishing and invalidation are then skipped.
func NewExpenseService(st store.Store, events EventPublisher, summaries summaryInvalidator) *ExpenseService {
	return &ExpenseService{store: st, events: events, summaries: summaries}
}

func (s *ExpenseService) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if err := requireExpenseCategory(ctx, s.store, e.UserID, e.CategoryID); err != nil {
		return core.Expense{}, err
	}
	if err := s.store.CreateExpense(ctx, &e); err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.invalidate(e.UserID)
	s.publish(ctx, event.NewRecordedEvent(e))
	slog.InfoContext(ctx, "Created expense",
		"expense_id", e.ID,
		"user_id", e.UserID,
		"amount_cents", e.Amount.Cents)
	return e, nil
}

func (s *ExpenseService) Get(ctx context.Context, userID, id int64) (core.Expense, error) {
	return s.store.ExpenseByID(ctx, userID, id)
}

func (s *ExpenseService) List(ctx context.Context, userID int64, f store.ExpenseFilter) ([]core.Expense, error) {
	return s.store.Expenses(ctx, userID, f)
}

// Update replaces the mutable fields of an expense and re-queues it for
// export. The returned expense carries the bumped version.
func (s *ExpenseService) Update(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if err := requireExpenseCategory(ctx, s.store, e.UserID, e.CategoryID); err != nil {
		return core.Expense{}, err
	}
	if err := s.store.UpdateExpense(ctx, e); err != nil {
		return core.Expense{}, err
	}
	updated, err := s.store.ExpenseByID(ctx, e.UserID, e.ID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("reload expense: %w", err)
	}
	s.invalidate(e.UserID)
	s.publish(ctx, event.NewRecordedEvent(updated))
	return updated, nil
}

// Delete soft-deletes an expense. The event carries a snapshot of the
// row because consumers can no longer read it back.
func (s *ExpenseService) Delete(ctx context.Context, userID, id int64) error {
	e, err := s.store.ExpenseByID(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.store.SoftDeleteExpense(ctx, userID, id); err != nil {
		return err
	}
	s.invalidate(userID)
	s.publish(ctx, event.NewDeletedEvent(e))
	slog.InfoContext(ctx, "Deleted expense", "expense_id", id, "user_id", userID)
	return nil
}

func (s *ExpenseService) invalidate(userID int64) {
	if s.summaries != nil {
		s.summaries.Invalidate(userID)
	}
}

func (s *ExpenseService) publish(ctx context.Context, ev *event.ExpenseEvent) {
	if s.events == nil {
		slog.WarnContext(ctx, "Event publisher not available, skipping publish",
			"kind", ev.Kind,
			"expense_id", ev.ID)
		return
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"kind", ev.Kind,
			"expense_id", ev.ID,
			"error", err)
	}
}
