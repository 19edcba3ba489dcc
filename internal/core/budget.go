package core

import (
	"time"
)

const (
	BudgetMonthly BudgetPeriod = "monthly"
	BudgetYearly  BudgetPeriod = "yearly"
)

// Alert thresholds in basis points of the budget amount.
const (
	WarnThresholdBP   = 8000  // 80%
	ExceedThresholdBP = 10000 // 100%
)

type (
	BudgetPeriod string

	// Budget caps spending for one category (CategoryID 0 means all
	// categories) over a recurring window.
	Budget struct {
		ID         int64        `json:"id"`
		UserID     int64        `json:"user_id"`
		CategoryID int64        `json:"category_id"`
		Amount     Money        `json:"amount_cents"`
		Period     BudgetPeriod `json:"period"`
		StartDate  Date         `json:"start_date"`
		EndDate    Date         `json:"end_date"`
		Active     bool         `json:"active"`
		CreatedAt  time.Time    `json:"created_at"`
	}

	// BudgetStatus pairs a budget with spending observed in its current window.
	BudgetStatus struct {
		Budget    Budget `json:"budget"`
		Spent     Money  `json:"spent_cents"`
		Remaining Money  `json:"remaining_cents"`
		UsedBP    int64  `json:"used_bp"` // basis points; 10000 = fully used
	}
)

func (p BudgetPeriod) Validate() error {
	switch p {
	case BudgetMonthly, BudgetYearly:
		return nil
	}
	return invalid("invalid budget period")
}

func (b Budget) Validate() error {
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if err := b.Period.Validate(); err != nil {
		return err
	}
	if err := b.StartDate.Validate(); err != nil {
		return invalid("invalid start date: " + err.Error())
	}
	if err := b.EndDate.Validate(); err != nil {
		return invalid("invalid end date: " + err.Error())
	}
	if !b.EndDate.After(b.StartDate.Time) {
		return invalid("end date must be after start date")
	}
	if b.CategoryID < 0 {
		return ErrInvalidCategory
	}
	return nil
}

// Window returns the budget period containing start, for rollover math.
func (p BudgetPeriod) Window(start Date) (Date, Date) {
	switch p {
	case BudgetYearly:
		return NewDate(start.Year(), 1, 1), NewDate(start.Year(), 12, 31)
	default:
		first := NewDate(start.Year(), start.Month(), 1)
		last := Date{Time: first.AddDate(0, 1, -1)}
		return first, last
	}
}

// Next returns the window immediately after the given one.
func (p BudgetPeriod) Next(start Date) (Date, Date) {
	switch p {
	case BudgetYearly:
		return p.Window(Date{Time: start.AddDate(1, 0, 0)})
	default:
		first := NewDate(start.Year(), start.Month(), 1)
		return p.Window(Date{Time: first.AddDate(0, 1, 0)})
	}
}

// Status computes usage against spent cents. Amount is validated strictly
// positive, so the division is safe.
func (b Budget) Status(spent Money) BudgetStatus {
	remaining := b.Amount.Cents - spent.Cents
	if remaining < 0 {
		remaining = 0
	}
	return BudgetStatus{
		Budget:    b,
		Spent:     spent,
		Remaining: Money{Cents: remaining},
		UsedBP:    spent.Cents * 10000 / b.Amount.Cents,
	}
}

// Contains reports whether day falls inside the budget window.
func (b Budget) Contains(day Date) bool {
	return !day.Before(b.StartDate.Time) && !day.After(b.EndDate.Time)
}
