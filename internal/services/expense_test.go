package services

import (
	"context"
	"errors"
	"testing"

	"budgetshop/internal/core"
	"budgetshop/internal/event"
	"budgetshop/internal/store"
	"budgetshop/internal/store/memory"
)

func TestExpenseService_Create(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	userID, groceries, _ := seedUser(t, st, "create@example.com")
	events := &fakePublisher{}
	inv := newFakeInvalidator()
	svc := NewExpenseService(st, events, inv)

	exp, err := svc.Create(ctx, core.Expense{
		UserID:      userID,
		CategoryID:  groceries,
		Date:        core.NewDate(2025, 3, 15),
		Description: "Weekly shop",
		Amount:      core.Money{Cents: 4250},
	})
	if err != nil {
		t.Fatalf("Create() returned error: %v", err)
	}
	if exp.ID == 0 {
		t.Error("expected assigned id")
	}
	if exp.SyncState != core.SyncPending {
		t.Errorf("expected sync state pending, got %q", exp.SyncState)
	}
	if exp.Version != 1 {
		t.Errorf("expected version 1, got %d", exp.Version)
	}

	if len(events.events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(events.events))
	}
	ev := events.events[0]
	if ev.Kind != event.KindExpenseRecorded {
		t.Errorf("expected kind %q, got %q", event.KindExpenseRecorded, ev.Kind)
	}
	if ev.ID != exp.ID || ev.UserID != userID || ev.Version != 1 {
		t.Errorf("event does not match expense: %+v", ev)
	}
	if inv.calls[userID] != 1 {
		t.Errorf("expected 1 invalidation, got %d", inv.calls[userID])
	}
}

func TestExpenseService_Create_Invalid(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	userID, groceries, salary := seedUser(t, st, "invalid@example.com")
	svc := NewExpenseService(st, nil, nil)

	good := core.Expense{
		UserID:      userID,
		CategoryID:  groceries,
		Date:        core.NewDate(2025, 3, 15),
		Description: "Coffee",
		Amount:      core.Money{Cents: 350},
	}

	tests := []struct {
		name    string
		mutate  func(e *core.Expense)
		wantErr error
	}{
		{
			name:    "zero amount",
			mutate:  func(e *core.Expense) { e.Amount.Cents = 0 },
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "empty description",
			mutate:  func(e *core.Expense) { e.Description = "   " },
			wantErr: core.ErrEmptyDescription,
		},
		{
			name:    "unknown category",
			mutate:  func(e *core.Expense) { e.CategoryID = 9999 },
			wantErr: core.ErrInvalidCategory,
		},
		{
			name:    "income category",
			mutate:  func(e *core.Expense) { e.CategoryID = salary },
			wantErr: ErrWrongCategoryKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := good
			tt.mutate(&e)
			if _, err := svc.Create(ctx, e); !errors.Is(err, tt.wantErr) {
				t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestExpenseService_Create_OtherUsersCategory(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	_, aliceCat, _ := seedUser(t, st, "alice@example.com")
	bobID, _, _ := seedUser(t, st, "bob@example.com")
	svc := NewExpenseService(st, nil, nil)

	_, err := svc.Create(ctx, core.Expense{
		UserID:      bobID,
		CategoryID:  aliceCat,
		Date:        core.NewDate(2025, 3, 15),
		Description: "Sneaky",
		Amount:      core.Money{Cents: 100},
	})
	if !errors.Is(err, core.ErrInvalidCategory) {
		t.Errorf("expected ErrInvalidCategory for foreign category, got %v", err)
	}
}

func TestExpenseService_Create_PublishFailureDoesNotRollBack(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	userID, groceries, _ := seedUser(t, st, "pubfail@example.com")
	events := &fakePublisher{err: errors.New("broker down")}
	svc := NewExpenseService(st, events, nil)

	exp, err := svc.Create(ctx, core.Expense{
		UserID:      userID,
		CategoryID:  groceries,
		Date:        core.NewDate(2025, 3, 15),
		Description: "Offline purchase",
		Amount:      core.Money{Cents: 999},
	})
	if err != nil {
		t.Fatalf("Create() returned error: %v", err)
	}

	stored, err := st.ExpenseByID(ctx, userID, exp.ID)
	if err != nil {
		t.Fatalf("expense not stored after publish failure: %v", err)
	}
	if stored.SyncState != core.SyncPending {
		t.Errorf("expected pending sync state, got %q", stored.SyncState)
	}
}

func TestExpenseService_Update(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	userID, groceries, _ := seedUser(t, st, "update@example.com")
	events := &fakePublisher{}
	svc := NewExpenseService(st, events, nil)

	exp, err := svc.Create(ctx, core.Expense{
		UserID:      userID,
		CategoryID:  groceries,
		Date:        core.NewDate(2025, 3, 15),
		Description: "Draft",
		Amount:      core.Money{Cents: 1000},
	})
	if err != nil {
		t.Fatalf("Create() returned error: %v", err)
	}

	exp.Description = "Corrected"
	exp.Amount = core.Money{Cents: 1200}
	updated, err := svc.Update(ctx, exp)
	if err != nil {
		t.Fatalf("Update() returned error: %v", err)
	}
	if updated.Version != 2 {
		t.Errorf("expected version 2 after update, got %d", updated.Version)
	}
	if updated.Description != "Corrected" {
		t.Errorf("expected updated description, got %q", updated.Description)
	}
	if updated.SyncState != core.SyncPending {
		t.Errorf("expected update to re-queue sync, got %q", updated.SyncState)
	}

	if len(events.events) != 2 {
		t.Fatalf("expected 2 published events, got %d", len(events.events))
	}
	if events.events[1].Version != 2 {
		t.Errorf("expected event version 2, got %d", events.events[1].Version)
	}
}

func TestExpenseService_Update_NotFound(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	userID, groceries, _ := seedUser(t, st, "updmissing@example.com")
	svc := NewExpenseService(st, nil, nil)

	_, err := svc.Update(ctx, core.Expense{
		ID:          42,
		UserID:      userID,
		CategoryID:  groceries,
		Date:        core.NewDate(2025, 3, 15),
		Description: "Ghost",
		Amount:      core.Money{Cents: 100},
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestExpenseService_Delete(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	userID, groceries, _ := seedUser(t, st, "delete@example.com")
	events := &fakePublisher{}
	svc := NewExpenseService(st, events, nil)

	exp, err := svc.Create(ctx, core.Expense{
		UserID:      userID,
		CategoryID:  groceries,
		Date:        core.NewDate(2025, 3, 15),
		Description: "Mistake",
		Amount:      core.Money{Cents: 500},
	})
	if err != nil {
		t.Fatalf("Create() returned error: %v", err)
	}

	if err := svc.Delete(ctx, userID, exp.ID); err != nil {
		t.Fatalf("Delete() returned error: %v", err)
	}
	if _, err := svc.Get(ctx, userID, exp.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected deleted expense to be gone, got %v", err)
	}

	if len(events.events) != 2 {
		t.Fatalf("expected 2 published events, got %d", len(events.events))
	}
	ev := events.events[1]
	if ev.Kind != event.KindExpenseDeleted {
		t.Errorf("expected kind %q, got %q", event.KindExpenseDeleted, ev.Kind)
	}
	if ev.CategoryID != groceries || ev.AmountCents != 500 || ev.Date != "2025-03-15" {
		t.Errorf("delete event missing snapshot: %+v", ev)
	}

	// Second delete of the same row is a 404, not a crash.
	if err := svc.Delete(ctx, userID, exp.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestExpenseService_List_Filters(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	userID, groceries, _ := seedUser(t, st, "list@example.com")
	svc := NewExpenseService(st, nil, nil)

	dates := []core.Date{
		core.NewDate(2025, 2, 28),
		core.NewDate(2025, 3, 1),
		core.NewDate(2025, 3, 31),
	}
	for i, d := range dates {
		_, err := svc.Create(ctx, core.Expense{
			UserID:      userID,
			CategoryID:  groceries,
			Date:        d,
			Description: "Item",
			Amount:      core.Money{Cents: int64(100 * (i + 1))},
		})
		if err != nil {
			t.Fatalf("Create() returned error: %v", err)
		}
	}

	march, err := svc.List(ctx, userID, store.ExpenseFilter{Year: 2025, Month: 3})
	if err != nil {
		t.Fatalf("List() returned error: %v", err)
	}
	if len(march) != 2 {
		t.Errorf("expected 2 expenses in March, got %d", len(march))
	}

	all, err := svc.List(ctx, userID, store.ExpenseFilter{})
	if err != nil {
		t.Fatalf("List() returned error: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 expenses total, got %d", len(all))
	}
}
