package services

import (
	"context"
	"testing"

	"budgetshop/internal/core"
	"budgetshop/internal/event"
	"budgetshop/internal/store"
)

// fakePublisher records published events, optionally failing every call.
type fakePublisher struct {
	events []*event.ExpenseEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, ev *event.ExpenseEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

// fakeInvalidator counts summary invalidations per user.
type fakeInvalidator struct {
	calls map[int64]int
}

func newFakeInvalidator() *fakeInvalidator {
	return &fakeInvalidator{calls: make(map[int64]int)}
}

func (f *fakeInvalidator) Invalidate(userID int64) { f.calls[userID]++ }

// seedUser creates a user with one expense and one income category and
// returns their ids.
func seedUser(t *testing.T, st store.Store, email string) (userID, expenseCat, incomeCat int64) {
	t.Helper()
	ctx := context.Background()

	u := core.User{Email: email, Name: "Test User", PasswordHash: "unused"}
	if err := st.CreateUser(ctx, &u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	groceries := core.Category{UserID: u.ID, Name: "Groceries", Kind: core.KindExpense, Color: "#22c55e"}
	if err := st.CreateCategory(ctx, &groceries); err != nil {
		t.Fatalf("seed expense category: %v", err)
	}
	salary := core.Category{UserID: u.ID, Name: "Salary", Kind: core.KindIncome, Color: "#3b82f6"}
	if err := st.CreateCategory(ctx, &salary); err != nil {
		t.Fatalf("seed income category: %v", err)
	}
	return u.ID, groceries.ID, salary.ID
}
