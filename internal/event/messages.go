package event

import (
	"encoding/json"
	"time"

	"budgetshop/internal/core"
)

const (
	KindExpenseRecorded Kind = "expense.recorded"
	KindExpenseDeleted  Kind = "expense.deleted"
)

type Kind string

// ExpenseEvent is the message published for every expense write.
// Recorded events are deliberately thin: the worker re-reads the row so
// it always exports the latest version. Deleted events carry a snapshot
// because consumers must not depend on the soft-deleted row staying
// around.
type ExpenseEvent struct {
	Kind      Kind      `json:"kind"`
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`

	CategoryID  int64  `json:"category_id,omitempty"`
	AmountCents int64  `json:"amount_cents,omitempty"`
	Date        string `json:"date,omitempty"`
}

// NewRecordedEvent builds the thin message for a created or updated expense.
func NewRecordedEvent(e core.Expense) *ExpenseEvent {
	return &ExpenseEvent{
		Kind:      KindExpenseRecorded,
		ID:        e.ID,
		UserID:    e.UserID,
		Version:   e.Version,
		Timestamp: time.Now(),
	}
}

// NewDeletedEvent builds the snapshot message for a deleted expense.
func NewDeletedEvent(e core.Expense) *ExpenseEvent {
	return &ExpenseEvent{
		Kind:        KindExpenseDeleted,
		ID:          e.ID,
		UserID:      e.UserID,
		Version:     e.Version,
		Timestamp:   time.Now(),
		CategoryID:  e.CategoryID,
		AmountCents: e.Amount.Cents,
		Date:        e.Date.String(),
	}
}

// ToJSON converts the event to JSON bytes
func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates an event from JSON bytes
func FromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
