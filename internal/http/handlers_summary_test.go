package http

import (
	"net/http"
	"testing"

	"budgetshop/internal/core"
)

func TestMonthSummary(t *testing.T) {
	s := newTestServer(t)
	token, _ := registerAndLogin(t, s, "sum@example.com")
	food := createCategory(t, s, token, "Food Out", "expense")
	fuel := createCategory(t, s, token, "Fuel", "expense")

	seed := []struct {
		cat   int64
		date  string
		cents int64
	}{
		{food.ID, "2026-04-02", 2000},
		{food.ID, "2026-04-15", 3000},
		{fuel.ID, "2026-04-20", 5000},
		{fuel.ID, "2026-05-01", 9999}, // outside the month
	}
	for _, e := range seed {
		w := doJSON(t, s, http.MethodPost, "/api/expenses", token, map[string]any{
			"category_id": e.cat, "date": e.date, "description": "seed", "amount_cents": e.cents,
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("seed = %d: %s", w.Code, w.Body.String())
		}
	}

	w := doRequest(t, s, http.MethodGet, "/api/summary?year=2026&month=4", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var sum core.MonthSummary
	decodeBody(t, w, &sum)

	if sum.Year != 2026 || sum.Month != 4 {
		t.Errorf("period = %d-%d, want 2026-4", sum.Year, sum.Month)
	}
	if sum.Total.Cents != 10000 {
		t.Errorf("total = %d cents, want 10000", sum.Total.Cents)
	}
	if sum.Count != 3 {
		t.Errorf("count = %d, want 3", sum.Count)
	}
	if len(sum.ByCategory) != 2 {
		t.Fatalf("by_category has %d entries, want 2", len(sum.ByCategory))
	}
	// Largest category first.
	if sum.ByCategory[0].CategoryID != fuel.ID || sum.ByCategory[0].Amount.Cents != 5000 {
		t.Errorf("top category = %+v", sum.ByCategory[0])
	}
}

func TestMonthSummary_ReflectsWrites(t *testing.T) {
	s := newTestServer(t)
	token, _ := registerAndLogin(t, s, "sumcache@example.com")
	cat := createCategory(t, s, token, "Snacks", "expense")

	w := doRequest(t, s, http.MethodGet, "/api/summary?year=2026&month=6", token, nil)
	var before core.MonthSummary
	decodeBody(t, w, &before)
	if before.Total.Cents != 0 {
		t.Fatalf("empty month total = %d, want 0", before.Total.Cents)
	}

	// The write must invalidate the cached summary.
	doJSON(t, s, http.MethodPost, "/api/expenses", token, map[string]any{
		"category_id": cat.ID, "date": "2026-06-10", "description": "Chips", "amount_cents": 300,
	})

	w = doRequest(t, s, http.MethodGet, "/api/summary?year=2026&month=6", token, nil)
	var after core.MonthSummary
	decodeBody(t, w, &after)
	if after.Total.Cents != 300 {
		t.Errorf("total after write = %d cents, want 300", after.Total.Cents)
	}
}

func TestMonthSummary_BadMonth(t *testing.T) {
	s := newTestServer(t)
	token, _ := registerAndLogin(t, s, "summonth@example.com")

	w := doRequest(t, s, http.MethodGet, "/api/summary?year=2026&month=13", token, nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %s", w.Code, w.Body.String())
	}
}
