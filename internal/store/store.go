// Package store defines the persistence ports for Budget Shop and the
// errors every backend maps its driver failures onto.
package store

import (
	"context"
	"errors"
	"time"

	"budgetshop/internal/core"
)

var (
	// ErrNotFound is returned when a row does not exist or belongs to
	// another user. Handlers translate it to 404 without leaking which.
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken is returned on registration with a known address.
	ErrEmailTaken = errors.New("email already registered")

	// ErrDuplicate is returned on unique violations: category names,
	// overlapping active budgets, notification dedup keys.
	ErrDuplicate = errors.New("duplicate")

	// ErrReferenced is returned when deleting a row other rows point at.
	ErrReferenced = errors.New("still referenced")
)

// ExpenseFilter narrows expense listings. Zero values mean "any".
type ExpenseFilter struct {
	Year       int
	Month      int // 1-12, requires Year
	CategoryID int64
	Limit      int
	Offset     int
}

// NotificationFilter narrows notification listings.
type NotificationFilter struct {
	UnreadOnly bool
	Limit      int
}

type UserStore interface {
	CreateUser(ctx context.Context, u *core.User) error
	UserByEmail(ctx context.Context, email string) (core.User, error)
	UserByID(ctx context.Context, id int64) (core.User, error)
}

type SessionStore interface {
	CreateSession(ctx context.Context, s core.Session) error
	SessionByToken(ctx context.Context, token string) (core.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type CategoryStore interface {
	CreateCategory(ctx context.Context, c *core.Category) error
	Categories(ctx context.Context, userID int64) ([]core.Category, error)
	CategoryByID(ctx context.Context, userID, id int64) (core.Category, error)
	UpdateCategory(ctx context.Context, c core.Category) error
	// DeleteCategory fails with ErrReferenced while expenses, recurring
	// templates, budgets or lists still point at the category.
	DeleteCategory(ctx context.Context, userID, id int64) error
	CountCategories(ctx context.Context, userID int64) (int64, error)
}

type ExpenseStore interface {
	CreateExpense(ctx context.Context, e *core.Expense) error
	ExpenseByID(ctx context.Context, userID, id int64) (core.Expense, error)
	Expenses(ctx context.Context, userID int64, f ExpenseFilter) ([]core.Expense, error)
	UpdateExpense(ctx context.Context, e core.Expense) error
	SoftDeleteExpense(ctx context.Context, userID, id int64) error

	// SpentBetween sums live expense cents in [from, to], optionally
	// narrowed to one category (0 means all).
	SpentBetween(ctx context.Context, userID, categoryID int64, from, to core.Date) (int64, error)
	SumByCategory(ctx context.Context, userID int64, from, to core.Date) ([]core.CategoryAmount, error)

	// Export pipeline. PendingSyncExpenses spans all users.
	PendingSyncExpenses(ctx context.Context, limit int) ([]core.Expense, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

type RecurringStore interface {
	CreateRecurring(ctx context.Context, r *core.RecurringExpense) error
	RecurringByID(ctx context.Context, userID, id int64) (core.RecurringExpense, error)
	RecurringForUser(ctx context.Context, userID int64) ([]core.RecurringExpense, error)
	// ActiveRecurring spans all users, for the materialization worker.
	ActiveRecurring(ctx context.Context) ([]core.RecurringExpense, error)
	UpdateRecurring(ctx context.Context, r core.RecurringExpense) error
	DeleteRecurring(ctx context.Context, userID, id int64) error
}

type BudgetStore interface {
	CreateBudget(ctx context.Context, b *core.Budget) error
	BudgetByID(ctx context.Context, userID, id int64) (core.Budget, error)
	BudgetsForUser(ctx context.Context, userID int64, activeOnly bool) ([]core.Budget, error)
	// ExpiredActiveBudgets spans all users, for the rollover job.
	ExpiredActiveBudgets(ctx context.Context, asOf core.Date) ([]core.Budget, error)
	UpdateBudget(ctx context.Context, b core.Budget) error
	DeleteBudget(ctx context.Context, userID, id int64) error
}

type ShoppingStore interface {
	CreateList(ctx context.Context, l *core.ShoppingList) error
	ListByID(ctx context.Context, userID, id int64) (core.ShoppingList, error)
	ListsForUser(ctx context.Context, userID int64, includeArchived bool) ([]core.ShoppingList, error)
	UpdateList(ctx context.Context, l core.ShoppingList) error
	DeleteList(ctx context.Context, userID, id int64) error

	CreateItem(ctx context.Context, i *core.ShoppingItem) error
	// ItemByID resolves ownership through the item's list.
	ItemByID(ctx context.Context, userID, id int64) (core.ShoppingItem, error)
	ItemsForList(ctx context.Context, listID int64) ([]core.ShoppingItem, error)
	UpdateItem(ctx context.Context, i core.ShoppingItem) error
	DeleteItem(ctx context.Context, userID, id int64) error
}

type NotificationStore interface {
	// CreateNotification returns ErrDuplicate when the dedup key is
	// already present for the user.
	CreateNotification(ctx context.Context, n *core.Notification) error
	Notifications(ctx context.Context, userID int64, f NotificationFilter) ([]core.Notification, error)
	MarkRead(ctx context.Context, userID, id int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	DeleteNotification(ctx context.Context, userID, id int64) error
}

// Store is the composed persistence port every backend implements.
type Store interface {
	UserStore
	SessionStore
	CategoryStore
	ExpenseStore
	RecurringStore
	BudgetStore
	ShoppingStore
	NotificationStore

	Ping(ctx context.Context) error
	Close() error
}
