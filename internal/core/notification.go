package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	NotifyBudgetWarning   NotificationKind = "budget_warning"
	NotifyBudgetExceeded  NotificationKind = "budget_exceeded"
	NotifyRecurringCreate NotificationKind = "recurring_created"
	NotifySystem          NotificationKind = "system"
)

type (
	NotificationKind string

	Notification struct {
		ID        int64            `json:"id"`
		UserID    int64            `json:"user_id"`
		Kind      NotificationKind `json:"kind"`
		Message   string           `json:"message"`
		Read      bool             `json:"read"`
		DedupKey  string           `json:"-"` // empty disables dedup
		CreatedAt time.Time        `json:"created_at"`
	}
)

func (k NotificationKind) Validate() error {
	switch k {
	case NotifyBudgetWarning, NotifyBudgetExceeded, NotifyRecurringCreate, NotifySystem:
		return nil
	}
	return invalid("invalid notification kind")
}

func (n Notification) Validate() error {
	if err := n.Kind.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(n.Message) == "" {
		return invalid("empty message")
	}
	return nil
}

// BudgetDedupKey keys one alert per budget per window start per kind.
func BudgetDedupKey(budgetID int64, windowStart Date, kind NotificationKind) string {
	return fmt.Sprintf("%d:%s:%s", budgetID, windowStart.String(), kind)
}
