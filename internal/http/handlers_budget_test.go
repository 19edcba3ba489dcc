package http

import (
	"fmt"
	"net/http"
	"testing"

	"budgetshop/internal/core"
)

func TestCreateBudget_WindowDefaults(t *testing.T) {
	s := newTestServer(t)
	token, _ := registerAndLogin(t, s, "bud@example.com")
	cat := createCategory(t, s, token, "Eating Out", "expense")

	w := doJSON(t, s, http.MethodPost, "/api/budgets", token, map[string]any{
		"category_id":  cat.ID,
		"amount_cents": 30000,
		"period":       "monthly",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var created core.Budget
	decodeBody(t, w, &created)
	if created.StartDate.IsZero() || created.EndDate.IsZero() {
		t.Errorf("window not snapped: %+v", created)
	}
	if created.StartDate.Day() != 1 {
		t.Errorf("start day = %d, want 1", created.StartDate.Day())
	}
	if !created.Active {
		t.Error("created budget not active")
	}
}

func TestCreateBudget_DuplicateActive(t *testing.T) {
	s := newTestServer(t)
	token, _ := registerAndLogin(t, s, "buddup@example.com")
	cat := createCategory(t, s, token, "Clothes", "expense")

	payload := map[string]any{
		"category_id": cat.ID, "amount_cents": 10000, "period": "monthly",
	}
	w := doJSON(t, s, http.MethodPost, "/api/budgets", token, payload)
	if w.Code != http.StatusCreated {
		t.Fatalf("first create = %d: %s", w.Code, w.Body.String())
	}
	w = doJSON(t, s, http.MethodPost, "/api/budgets", token, payload)
	if w.Code != http.StatusConflict {
		t.Fatalf("second create = %d, want 409: %s", w.Code, w.Body.String())
	}
}

func TestCreateBudget_Failures(t *testing.T) {
	s := newTestServer(t)
	token, _ := registerAndLogin(t, s, "budfail@example.com")
	income := createCategory(t, s, token, "Dividends", "income")

	tests := []struct {
		name     string
		payload  map[string]any
		wantCode int
	}{
		{
			name:     "bad period",
			payload:  map[string]any{"amount_cents": 1000, "period": "weekly"},
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "zero amount",
			payload:  map[string]any{"amount_cents": 0, "period": "monthly"},
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "income category",
			payload:  map[string]any{"category_id": income.ID, "amount_cents": 1000, "period": "monthly"},
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "end before start",
			payload:  map[string]any{"amount_cents": 1000, "period": "monthly", "start_date": "2026-05-01", "end_date": "2026-04-01"},
			wantCode: http.StatusUnprocessableEntity,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, s, http.MethodPost, "/api/budgets", token, tt.payload)
			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.wantCode, w.Body.String())
			}
		})
	}
}

func TestGetBudget_LiveStatus(t *testing.T) {
	s := newTestServer(t)
	token, _ := registerAndLogin(t, s, "budstat@example.com")
	cat := createCategory(t, s, token, "Groceries Cap", "expense")

	w := doJSON(t, s, http.MethodPost, "/api/budgets", token, map[string]any{
		"category_id":  cat.ID,
		"amount_cents": 20000,
		"period":       "monthly",
		"start_date":   "2026-07-01",
		"end_date":     "2026-07-31",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create budget = %d: %s", w.Code, w.Body.String())
	}
	var created core.Budget
	decodeBody(t, w, &created)

	doJSON(t, s, http.MethodPost, "/api/expenses", token, map[string]any{
		"category_id": cat.ID, "date": "2026-07-10", "description": "Weekly shop", "amount_cents": 5000,
	})

	w = doRequest(t, s, http.MethodGet, fmt.Sprintf("/api/budgets/%d", created.ID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get = %d: %s", w.Code, w.Body.String())
	}
	var status core.BudgetStatus
	decodeBody(t, w, &status)
	if status.Spent.Cents != 5000 {
		t.Errorf("spent = %d cents, want 5000", status.Spent.Cents)
	}
	if status.Remaining.Cents != 15000 {
		t.Errorf("remaining = %d cents, want 15000", status.Remaining.Cents)
	}
	if status.UsedBP != 2500 {
		t.Errorf("used_bp = %d, want 2500", status.UsedBP)
	}
}

func TestListBudgets_ActiveFilter(t *testing.T) {
	s := newTestServer(t)
	token, _ := registerAndLogin(t, s, "budlist@example.com")
	cat := createCategory(t, s, token, "Hobby Cap", "expense")

	w := doJSON(t, s, http.MethodPost, "/api/budgets", token, map[string]any{
		"category_id": cat.ID, "amount_cents": 5000, "period": "monthly",
		"start_date": "2026-01-01", "end_date": "2026-01-31",
	})
	var b core.Budget
	decodeBody(t, w, &b)

	// Deactivate it, then only the unfiltered listing should show it.
	w = doJSON(t, s, http.MethodPut, fmt.Sprintf("/api/budgets/%d", b.ID), token, map[string]any{
		"category_id": cat.ID, "amount_cents": 5000, "period": "monthly",
		"start_date": "2026-01-01", "end_date": "2026-01-31", "active": false,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update = %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(t, s, http.MethodGet, "/api/budgets?active=true", token, nil)
	var active []core.BudgetStatus
	decodeBody(t, w, &active)
	if len(active) != 0 {
		t.Errorf("active listing has %d budgets, want 0", len(active))
	}

	w = doRequest(t, s, http.MethodGet, "/api/budgets", token, nil)
	var all []core.BudgetStatus
	decodeBody(t, w, &all)
	if len(all) != 1 {
		t.Errorf("full listing has %d budgets, want 1", len(all))
	}
}

func TestDeleteBudget(t *testing.T) {
	s := newTestServer(t)
	token, _ := registerAndLogin(t, s, "buddel@example.com")

	w := doJSON(t, s, http.MethodPost, "/api/budgets", token, map[string]any{
		"amount_cents": 99900, "period": "yearly",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", w.Code, w.Body.String())
	}
	var b core.Budget
	decodeBody(t, w, &b)

	w = doRequest(t, s, http.MethodDelete, fmt.Sprintf("/api/budgets/%d", b.ID), token, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d: %s", w.Code, w.Body.String())
	}
	w = doRequest(t, s, http.MethodGet, fmt.Sprintf("/api/budgets/%d", b.ID), token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("get after delete = %d, want 404", w.Code)
	}
}
