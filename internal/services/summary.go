package services

import (
	"context"
	"fmt"
	"time"

	"budgetshop/internal/cache"
	"budgetshop/internal/core"
	"budgetshop/internal/store"
)

const (
	summaryCacheSize = 256
	summaryCacheTTL  = 5 * time.Minute
)

func summaryKey(userID int64, year, month int) string {
	return fmt.Sprintf("summary:%d:%d:%d", userID, year, month)
}

// statusesFor computes window usage for each budget.
func statusesFor(ctx context.Context, st store.Store, userID int64, budgets []core.Budget) ([]core.BudgetStatus, error) {
	out := make([]core.BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		spent, err := st.SpentBetween(ctx, userID, b.CategoryID, b.StartDate, b.EndDate)
		if err != nil {
			return nil, fmt.Errorf("spent for budget %d: %w", b.ID, err)
		}
		out = append(out, b.Status(core.Money{Cents: spent}))
	}
	return out, nil
}

// SummaryService aggregates the dashboard view for one month. Results
// are cached per user+month; every expense or budget write for a user
// drops all of that user's cached months.
type SummaryService struct {
	store store.Store
	cache *cache.LRUCache[core.MonthSummary]
}

func NewSummaryService(st store.Store) *SummaryService {
	return &SummaryService{
		store: st,
		cache: cache.NewLRUCache[core.MonthSummary](summaryCacheSize, summaryCacheTTL),
	}
}

// Cache exposes the summary cache for cleanup registration.
func (s *SummaryService) Cache() cache.Cleaner {
	return s.cache
}

// MonthSummary returns totals, per-category breakdown and budget usage
// for the given month. Budgets are included when their window overlaps
// the month.
func (s *SummaryService) MonthSummary(ctx context.Context, userID int64, year, month int) (core.MonthSummary, error) {
	if month < 1 || month > 12 {
		return core.MonthSummary{}, core.ErrInvalidMonth
	}

	key := summaryKey(userID, year, month)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	from := core.NewDate(year, month, 1)
	to := core.Date{Time: from.AddDate(0, 1, -1)}

	byCategory, err := s.store.SumByCategory(ctx, userID, from, to)
	if err != nil {
		return core.MonthSummary{}, fmt.Errorf("sum by category: %w", err)
	}
	expenses, err := s.store.Expenses(ctx, userID, store.ExpenseFilter{Year: year, Month: month})
	if err != nil {
		return core.MonthSummary{}, fmt.Errorf("list expenses: %w", err)
	}

	var total int64
	for _, ca := range byCategory {
		total += ca.Amount.Cents
	}

	budgets, err := s.store.BudgetsForUser(ctx, userID, true)
	if err != nil {
		return core.MonthSummary{}, fmt.Errorf("list budgets: %w", err)
	}
	overlapping := budgets[:0]
	for _, b := range budgets {
		if b.EndDate.Before(from.Time) || b.StartDate.After(to.Time) {
			continue
		}
		overlapping = append(overlapping, b)
	}
	statuses, err := statusesFor(ctx, s.store, userID, overlapping)
	if err != nil {
		return core.MonthSummary{}, err
	}

	summary := core.MonthSummary{
		Year:       year,
		Month:      month,
		Total:      core.Money{Cents: total},
		Count:      len(expenses),
		ByCategory: byCategory,
		Budgets:    statuses,
	}
	s.cache.Set(key, summary)
	return summary, nil
}

// Invalidate drops every cached month for the user.
func (s *SummaryService) Invalidate(userID int64) {
	s.cache.DeletePrefix(fmt.Sprintf("summary:%d:", userID))
}
