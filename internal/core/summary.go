package core

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	Amount     Money  `json:"amount_cents"`
}

// MonthSummary is the dashboard view for a specific year+month: totals,
// per-category breakdown and live budget usage.
type MonthSummary struct {
	Year       int              `json:"year"`
	Month      int              `json:"month"` // 1-12
	Total      Money            `json:"total_cents"`
	Count      int              `json:"count"`
	ByCategory []CategoryAmount `json:"by_category"`
	Budgets    []BudgetStatus   `json:"budgets"`
}
