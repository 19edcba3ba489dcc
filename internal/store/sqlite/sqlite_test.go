package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"budgetshop/internal/core"
	"budgetshop/internal/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrationsAndPing(t *testing.T) {
	s := openTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestUserRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u := core.User{Email: "Ada@Example.com", Name: "Ada", PasswordHash: "hash"}
	if err := s.CreateUser(ctx, &u); err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == 0 {
		t.Fatalf("id not assigned")
	}

	dup := core.User{Email: "ada@example.com", Name: "Twin", PasswordHash: "hash"}
	if err := s.CreateUser(ctx, &dup); !errors.Is(err, store.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	got, err := s.UserByEmail(ctx, "ADA@example.com")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.ID != u.ID || got.Email != "ada@example.com" {
		t.Fatalf("got %+v", got)
	}

	if _, err := s.UserByID(ctx, 999); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExpenseLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u := core.User{Email: "a@example.com", Name: "A", PasswordHash: "h"}
	if err := s.CreateUser(ctx, &u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	c := core.Category{UserID: u.ID, Name: "Food", Kind: core.KindExpense}
	if err := s.CreateCategory(ctx, &c); err != nil {
		t.Fatalf("create category: %v", err)
	}

	e := core.Expense{UserID: u.ID, CategoryID: c.ID, Date: core.NewDate(2025, 3, 14), Description: "groceries", Amount: core.Money{Cents: 4599}, Note: "weekly run"}
	if err := s.CreateExpense(ctx, &e); err != nil {
		t.Fatalf("create expense: %v", err)
	}

	got, err := s.ExpenseByID(ctx, u.ID, e.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Date.String() != "2025-03-14" || got.Amount.Cents != 4599 || got.SyncState != core.SyncPending || got.Version != 1 {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	got.Description = "groceries + snacks"
	if err := s.UpdateExpense(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err = s.ExpenseByID(ctx, u.ID, e.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Version != 2 || got.SyncState != core.SyncPending {
		t.Fatalf("update should bump version and reset sync: %+v", got)
	}

	march, err := s.Expenses(ctx, u.ID, store.ExpenseFilter{Year: 2025, Month: 3})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(march) != 1 {
		t.Fatalf("expected 1 march expense, got %d", len(march))
	}
	april, err := s.Expenses(ctx, u.ID, store.ExpenseFilter{Year: 2025, Month: 4})
	if err != nil {
		t.Fatalf("list april: %v", err)
	}
	if len(april) != 0 {
		t.Fatalf("expected empty april, got %d", len(april))
	}

	spent, err := s.SpentBetween(ctx, u.ID, c.ID, core.NewDate(2025, 3, 1), core.NewDate(2025, 3, 31))
	if err != nil {
		t.Fatalf("spent: %v", err)
	}
	if spent != 4599 {
		t.Fatalf("expected 4599, got %d", spent)
	}

	if err := s.SoftDeleteExpense(ctx, u.ID, e.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := s.ExpenseByID(ctx, u.ID, e.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("deleted expense visible: %v", err)
	}
	if err := s.SoftDeleteExpense(ctx, u.ID, e.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("double delete should be ErrNotFound, got %v", err)
	}
}

func TestCategoryConstraints(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u := core.User{Email: "a@example.com", Name: "A", PasswordHash: "h"}
	if err := s.CreateUser(ctx, &u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	c := core.Category{UserID: u.ID, Name: "Food", Kind: core.KindExpense}
	if err := s.CreateCategory(ctx, &c); err != nil {
		t.Fatalf("create category: %v", err)
	}

	dup := core.Category{UserID: u.ID, Name: "food", Kind: core.KindExpense}
	if err := s.CreateCategory(ctx, &dup); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("case-insensitive dup should fail, got %v", err)
	}

	e := core.Expense{UserID: u.ID, CategoryID: c.ID, Date: core.NewDate(2025, 1, 1), Description: "x", Amount: core.Money{Cents: 100}}
	if err := s.CreateExpense(ctx, &e); err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if err := s.DeleteCategory(ctx, u.ID, c.ID); !errors.Is(err, store.ErrReferenced) {
		t.Fatalf("expected ErrReferenced, got %v", err)
	}
	if err := s.SoftDeleteExpense(ctx, u.ID, e.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if err := s.DeleteCategory(ctx, u.ID, c.ID); err != nil {
		t.Fatalf("delete after dereference: %v", err)
	}
}

func TestBudgetActiveUnique(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u := core.User{Email: "a@example.com", Name: "A", PasswordHash: "h"}
	if err := s.CreateUser(ctx, &u); err != nil {
		t.Fatalf("create user: %v", err)
	}

	b := core.Budget{UserID: u.ID, CategoryID: 0, Amount: core.Money{Cents: 100000}, Period: core.BudgetMonthly,
		StartDate: core.NewDate(2025, 3, 1), EndDate: core.NewDate(2025, 3, 31), Active: true}
	if err := s.CreateBudget(ctx, &b); err != nil {
		t.Fatalf("create budget: %v", err)
	}

	dup := b
	dup.ID = 0
	if err := s.CreateBudget(ctx, &dup); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("second active budget should fail, got %v", err)
	}

	dup.Active = false
	if err := s.CreateBudget(ctx, &dup); err != nil {
		t.Fatalf("inactive duplicate should be allowed: %v", err)
	}

	expired, err := s.ExpiredActiveBudgets(ctx, core.NewDate(2025, 4, 1))
	if err != nil {
		t.Fatalf("expired: %v", err)
	}
	if len(expired) != 1 || expired[0].ID != b.ID {
		t.Fatalf("expected active budget expired, got %+v", expired)
	}
}

func TestShoppingItemsOwnership(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	owner := core.User{Email: "a@example.com", Name: "A", PasswordHash: "h"}
	stranger := core.User{Email: "b@example.com", Name: "B", PasswordHash: "h"}
	for _, u := range []*core.User{&owner, &stranger} {
		if err := s.CreateUser(ctx, u); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}

	l := core.ShoppingList{UserID: owner.ID, Name: "Weekly"}
	if err := s.CreateList(ctx, &l); err != nil {
		t.Fatalf("create list: %v", err)
	}
	i := core.ShoppingItem{ListID: l.ID, Name: "Milk", Quantity: 2}
	if err := s.CreateItem(ctx, &i); err != nil {
		t.Fatalf("create item: %v", err)
	}

	if _, err := s.ItemByID(ctx, stranger.ID, i.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("stranger should not see item, got %v", err)
	}
	if err := s.DeleteItem(ctx, stranger.ID, i.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("stranger should not delete item, got %v", err)
	}

	// Deleting the list cascades to items.
	if err := s.DeleteList(ctx, owner.ID, l.ID); err != nil {
		t.Fatalf("delete list: %v", err)
	}
	if _, err := s.ItemByID(ctx, owner.ID, i.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("item should cascade with list, got %v", err)
	}
}

func TestNotificationDedup(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u := core.User{Email: "a@example.com", Name: "A", PasswordHash: "h"}
	if err := s.CreateUser(ctx, &u); err != nil {
		t.Fatalf("create user: %v", err)
	}

	key := core.BudgetDedupKey(1, core.NewDate(2025, 3, 1), core.NotifyBudgetWarning)
	n := core.Notification{UserID: u.ID, Kind: core.NotifyBudgetWarning, Message: "warn", DedupKey: key}
	if err := s.CreateNotification(ctx, &n); err != nil {
		t.Fatalf("create: %v", err)
	}
	again := core.Notification{UserID: u.ID, Kind: core.NotifyBudgetWarning, Message: "warn", DedupKey: key}
	if err := s.CreateNotification(ctx, &again); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// Empty dedup keys never collide.
	for range 2 {
		free := core.Notification{UserID: u.ID, Kind: core.NotifySystem, Message: "hello"}
		if err := s.CreateNotification(ctx, &free); err != nil {
			t.Fatalf("create undeduped: %v", err)
		}
	}

	if _, err := s.MarkAllRead(ctx, u.ID); err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	unread, err := s.Notifications(ctx, u.ID, store.NotificationFilter{UnreadOnly: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(unread) != 0 {
		t.Fatalf("expected none unread, got %d", len(unread))
	}
}
