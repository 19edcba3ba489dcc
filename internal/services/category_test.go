package services

import (
	"context"
	"errors"
	"testing"

	"budgetshop/internal/core"
	"budgetshop/internal/store"
	"budgetshop/internal/store/memory"
)

func TestCategoryService_Create(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	userID, _, _ := seedUser(t, st, "cats@example.com")
	svc := NewCategoryService(st, nil)

	c, err := svc.Create(ctx, core.Category{UserID: userID, Name: "Transport", Kind: core.KindExpense, Color: "#f97316"})
	if err != nil {
		t.Fatalf("Create() returned error: %v", err)
	}
	if c.ID == 0 {
		t.Error("expected assigned id")
	}

	// Name uniqueness is per user.
	if _, err := svc.Create(ctx, core.Category{UserID: userID, Name: "Transport", Kind: core.KindExpense}); !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
	otherID, _, _ := seedUser(t, st, "other-cats@example.com")
	if _, err := svc.Create(ctx, core.Category{UserID: otherID, Name: "Transport", Kind: core.KindExpense}); err != nil {
		t.Errorf("same name for another user should work, got %v", err)
	}
}

func TestCategoryService_Create_Invalid(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	userID, _, _ := seedUser(t, st, "badcat@example.com")
	svc := NewCategoryService(st, nil)

	if _, err := svc.Create(ctx, core.Category{UserID: userID, Name: "", Kind: core.KindExpense}); !errors.Is(err, core.ErrEmptyName) {
		t.Errorf("empty name: got %v, want ErrEmptyName", err)
	}
	if _, err := svc.Create(ctx, core.Category{UserID: userID, Name: "X", Kind: "savings"}); err == nil {
		t.Error("expected error for unknown kind")
	}
	if _, err := svc.Create(ctx, core.Category{UserID: userID, Name: "X", Kind: core.KindExpense, Color: "red"}); !errors.Is(err, core.ErrInvalidColor) {
		t.Errorf("bad color: got %v, want ErrInvalidColor", err)
	}
}

func TestCategoryService_Update_InvalidatesSummaries(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	userID, groceries, _ := seedUser(t, st, "renames@example.com")
	inv := newFakeInvalidator()
	svc := NewCategoryService(st, inv)

	c, err := svc.Get(ctx, userID, groceries)
	if err != nil {
		t.Fatalf("Get() returned error: %v", err)
	}
	c.Name = "Food"
	updated, err := svc.Update(ctx, c)
	if err != nil {
		t.Fatalf("Update() returned error: %v", err)
	}
	if updated.Name != "Food" {
		t.Errorf("expected renamed category, got %q", updated.Name)
	}
	if inv.calls[userID] != 1 {
		t.Errorf("expected rename to invalidate summaries, got %d calls", inv.calls[userID])
	}
}

func TestCategoryService_Delete(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	userID, groceries, salary := seedUser(t, st, "delcat@example.com")
	svc := NewCategoryService(st, nil)

	spend := core.Expense{UserID: userID, CategoryID: groceries, Date: core.NewDate(2025, 3, 1), Description: "Shop", Amount: core.Money{Cents: 100}}
	if err := st.CreateExpense(ctx, &spend); err != nil {
		t.Fatalf("seed expense: %v", err)
	}

	if err := svc.Delete(ctx, userID, groceries); !errors.Is(err, store.ErrReferenced) {
		t.Errorf("expected ErrReferenced for used category, got %v", err)
	}
	if err := svc.Delete(ctx, userID, salary); err != nil {
		t.Errorf("unused category should delete, got %v", err)
	}
	if _, err := svc.Get(ctx, userID, salary); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
