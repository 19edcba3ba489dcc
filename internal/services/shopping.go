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

// ErrNoPurchasePrice is returned when a purchase names no price and the
// item has no estimate to fall back on.
var ErrNoPurchasePrice = errors.New("no purchase price and no estimate to fall back on")

// ShoppingService manages lists and items. Purchasing an item on a
// category-linked list records the spend through the expense service.
type ShoppingService struct {
	store    store.Store
	expenses *ExpenseService
}

func NewShoppingService(st store.Store, expenses *ExpenseService) *ShoppingService {
	return &ShoppingService{store: st, expenses: expenses}
}

func (s *ShoppingService) CreateList(ctx context.Context, l core.ShoppingList) (core.ShoppingList, error) {
	if err := l.Validate(); err != nil {
		return core.ShoppingList{}, err
	}
	if l.CategoryID != 0 {
		if err := requireExpenseCategory(ctx, s.store, l.UserID, l.CategoryID); err != nil {
			return core.ShoppingList{}, err
		}
	}
	if err := s.store.CreateList(ctx, &l); err != nil {
		return core.ShoppingList{}, err
	}
	slog.InfoContext(ctx, "Created shopping list", "list_id", l.ID, "user_id", l.UserID)
	return l, nil
}

func (s *ShoppingService) Lists(ctx context.Context, userID int64, includeArchived bool) ([]core.ShoppingList, error) {
	return s.store.ListsForUser(ctx, userID, includeArchived)
}

// ListWithItems loads one list and its items ordered by position.
func (s *ShoppingService) ListWithItems(ctx context.Context, userID, id int64) (core.ShoppingList, []core.ShoppingItem, error) {
	l, err := s.store.ListByID(ctx, userID, id)
	if err != nil {
		return core.ShoppingList{}, nil, err
	}
	items, err := s.store.ItemsForList(ctx, l.ID)
	if err != nil {
		return core.ShoppingList{}, nil, fmt.Errorf("list items: %w", err)
	}
	return l, items, nil
}

// UpdateList edits name, linked category and archive flag.
func (s *ShoppingService) UpdateList(ctx context.Context, l core.ShoppingList) (core.ShoppingList, error) {
	if err := l.Validate(); err != nil {
		return core.ShoppingList{}, err
	}
	if l.CategoryID != 0 {
		if err := requireExpenseCategory(ctx, s.store, l.UserID, l.CategoryID); err != nil {
			return core.ShoppingList{}, err
		}
	}
	if err := s.store.UpdateList(ctx, l); err != nil {
		return core.ShoppingList{}, err
	}
	return s.store.ListByID(ctx, l.UserID, l.ID)
}

// DeleteList removes a list and its items.
func (s *ShoppingService) DeleteList(ctx context.Context, userID, id int64) error {
	return s.store.DeleteList(ctx, userID, id)
}

func (s *ShoppingService) AddItem(ctx context.Context, userID int64, item core.ShoppingItem) (core.ShoppingItem, error) {
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	if err := item.Validate(); err != nil {
		return core.ShoppingItem{}, err
	}
	if _, err := s.store.ListByID(ctx, userID, item.ListID); err != nil {
		return core.ShoppingItem{}, err
	}
	if err := s.store.CreateItem(ctx, &item); err != nil {
		return core.ShoppingItem{}, err
	}
	return item, nil
}

// UpdateItem edits name, quantity, estimate and position. Items never
// move across lists; purchase state and the recorded expense are never
// touched here.
func (s *ShoppingService) UpdateItem(ctx context.Context, userID int64, item core.ShoppingItem) (core.ShoppingItem, error) {
	existing, err := s.store.ItemByID(ctx, userID, item.ID)
	if err != nil {
		return core.ShoppingItem{}, err
	}
	existing.Name = item.Name
	existing.Quantity = item.Quantity
	existing.EstimatedPrice = item.EstimatedPrice
	existing.Position = item.Position
	if err := existing.Validate(); err != nil {
		return core.ShoppingItem{}, err
	}
	if err := s.store.UpdateItem(ctx, existing); err != nil {
		return core.ShoppingItem{}, err
	}
	return existing, nil
}

func (s *ShoppingService) DeleteItem(ctx context.Context, userID, id int64) error {
	return s.store.DeleteItem(ctx, userID, id)
}

// Purchase marks an item bought. The paid price wins, falling back to
// the estimate; with neither the purchase is rejected. When the list is
// linked to a category the spend is recorded as an expense first, so an
// already-purchased item is returned unchanged rather than double
// charged.
func (s *ShoppingService) Purchase(ctx context.Context, userID, itemID int64, paid core.Money, day core.Date) (core.ShoppingItem, error) {
	item, err := s.store.ItemByID(ctx, userID, itemID)
	if err != nil {
		return core.ShoppingItem{}, err
	}
	if item.Purchased {
		return item, nil
	}

	if paid.Cents < 0 {
		return core.ShoppingItem{}, core.ErrInvalidAmount
	}
	price := paid
	if price.Cents == 0 {
		price = item.EstimatedPrice
	}
	if price.Cents <= 0 {
		return core.ShoppingItem{}, ErrNoPurchasePrice
	}
	if day.IsZero() {
		day = core.DateOf(time.Now())
	}

	list, err := s.store.ListByID(ctx, userID, item.ListID)
	if err != nil {
		return core.ShoppingItem{}, err
	}
	if list.CategoryID != 0 {
		description := item.Name
		if item.Quantity > 1 {
			description = fmt.Sprintf("%s x%d", item.Name, item.Quantity)
		}
		exp, err := s.expenses.Create(ctx, core.Expense{
			UserID:      userID,
			CategoryID:  list.CategoryID,
			Date:        day,
			Description: description,
			Amount:      price,
		})
		if err != nil {
			return core.ShoppingItem{}, fmt.Errorf("record purchase expense: %w", err)
		}
		item.ExpenseID = exp.ID
	}

	item.Purchased = true
	item.PurchasedPrice = price
	if err := s.store.UpdateItem(ctx, item); err != nil {
		return core.ShoppingItem{}, fmt.Errorf("mark purchased: %w", err)
	}
	slog.InfoContext(ctx, "Purchased item",
		"item_id", item.ID,
		"list_id", item.ListID,
		"price_cents", price.Cents,
		"expense_id", item.ExpenseID)
	return item, nil
}
