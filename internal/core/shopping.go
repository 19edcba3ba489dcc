package core

import (
	"strings"
	"time"
)

type (
	// ShoppingList groups items to buy. When CategoryID is set, purchases
	// from the list are recorded as expenses under that category.
	ShoppingList struct {
		ID         int64     `json:"id"`
		UserID     int64     `json:"user_id"`
		Name       string    `json:"name"`
		CategoryID int64     `json:"category_id"` // 0 means no linked category
		Archived   bool      `json:"archived"`
		CreatedAt  time.Time `json:"created_at"`
	}

	ShoppingItem struct {
		ID             int64     `json:"id"`
		ListID         int64     `json:"list_id"`
		Name           string    `json:"name"`
		Quantity       int       `json:"quantity"`
		EstimatedPrice Money     `json:"estimated_price_cents"` // zero when unknown
		Purchased      bool      `json:"purchased"`
		PurchasedPrice Money     `json:"purchased_price_cents"` // zero until purchased
		ExpenseID      int64     `json:"expense_id"`            // expense recorded at purchase, 0 if none
		Position       int       `json:"position"`
		CreatedAt      time.Time `json:"created_at"`
	}
)

func (l ShoppingList) Validate() error {
	name := strings.TrimSpace(l.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > 80 {
		return invalid("name too long (max 80 characters)")
	}
	if l.CategoryID < 0 {
		return ErrInvalidCategory
	}
	return nil
}

func (i ShoppingItem) Validate() error {
	name := strings.TrimSpace(i.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > 120 {
		return invalid("name too long (max 120 characters)")
	}
	if i.Quantity < 1 {
		return invalid("quantity must be at least 1")
	}
	if i.EstimatedPrice.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}
