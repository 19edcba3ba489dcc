package services

import (
	"fmt"
	"time"

	"budgetshop/internal/core"
)

// DuenessChecker decides whether a recurring expense template should
// materialize an expense at the given instant.
type DuenessChecker interface {
	// IsDue reports whether a new expense is owed. lastExecution is the
	// zero time when the template has never run; startDate anchors
	// month-day and year-day targets.
	IsDue(lastExecution, now time.Time, startDate core.Date) bool
}

// DailyChecker fires at most once per calendar day.
type DailyChecker struct{}

func (DailyChecker) IsDue(lastExecution, now time.Time, _ core.Date) bool {
	if lastExecution.IsZero() {
		return true
	}
	return lastExecution.Format("2006-01-02") != now.Format("2006-01-02")
}

// WeeklyChecker fires when at least seven full days have elapsed.
type WeeklyChecker struct{}

func (WeeklyChecker) IsDue(lastExecution, now time.Time, _ core.Date) bool {
	if lastExecution.IsZero() {
		return true
	}
	return now.Sub(lastExecution).Hours()/24 >= 7
}

// MonthlyChecker fires once per calendar month on the start date's day,
// clamped to the last day of short months.
type MonthlyChecker struct{}

func (MonthlyChecker) IsDue(lastExecution, now time.Time, startDate core.Date) bool {
	if lastExecution.IsZero() {
		return true
	}
	if lastExecution.Year() == now.Year() && lastExecution.Month() == now.Month() {
		return false
	}
	targetDay := startDate.Day()
	lastDay := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location()).Day()
	if targetDay > lastDay {
		targetDay = lastDay
	}
	return now.Day() >= targetDay
}

// YearlyChecker fires once per calendar year on the start date's
// month and day, with the same short-month clamping as MonthlyChecker.
type YearlyChecker struct{}

func (YearlyChecker) IsDue(lastExecution, now time.Time, startDate core.Date) bool {
	if lastExecution.IsZero() {
		return true
	}
	if lastExecution.Year() == now.Year() {
		return false
	}
	targetMonth := time.Month(startDate.Month())
	if now.Month() < targetMonth {
		return false
	}
	if now.Month() > targetMonth {
		return true
	}
	targetDay := startDate.Day()
	lastDay := time.Date(now.Year(), targetMonth+1, 0, 0, 0, 0, 0, now.Location()).Day()
	if targetDay > lastDay {
		targetDay = lastDay
	}
	return now.Day() >= targetDay
}

var duenessCheckers = map[core.RepetitionType]DuenessChecker{
	core.Daily:   DailyChecker{},
	core.Weekly:  WeeklyChecker{},
	core.Monthly: MonthlyChecker{},
	core.Yearly:  YearlyChecker{},
}

// GetDuenessChecker returns the checker for a repetition type.
func GetDuenessChecker(every core.RepetitionType) (DuenessChecker, error) {
	checker, ok := duenessCheckers[every]
	if !ok {
		return nil, fmt.Errorf("no dueness checker for repetition type: %s", every)
	}
	return checker, nil
}

// RegisterDuenessChecker adds or replaces a checker. Not safe for
// concurrent use; call during initialization.
func RegisterDuenessChecker(every core.RepetitionType, checker DuenessChecker) {
	duenessCheckers[every] = checker
}
