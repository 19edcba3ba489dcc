package http

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"budgetshop/internal/core"
)

func TestRecurringCRUD(t *testing.T) {
	s := newTestServer(t)
	token, _ := registerAndLogin(t, s, "rec@example.com")
	cat := createCategory(t, s, token, "Housing", "expense")

	w := doJSON(t, s, http.MethodPost, "/api/recurring", token, map[string]any{
		"category_id":  cat.ID,
		"description":  "Monthly rent",
		"amount_cents": 85000,
		"every":        "monthly",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", w.Code, w.Body.String())
	}
	var created core.RecurringExpense
	decodeBody(t, w, &created)
	if !created.Active {
		t.Error("created template not active")
	}
	if created.StartDate.IsZero() {
		t.Error("start date not defaulted")
	}
	today := core.DateOf(time.Now())
	if created.StartDate.String() != today.String() {
		t.Errorf("start date = %s, want today %s", created.StartDate, today)
	}

	w = doRequest(t, s, http.MethodGet, "/api/recurring", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d: %s", w.Code, w.Body.String())
	}
	var templates []core.RecurringExpense
	decodeBody(t, w, &templates)
	if len(templates) != 1 {
		t.Fatalf("listed %d templates, want 1", len(templates))
	}

	w = doJSON(t, s, http.MethodPut, fmt.Sprintf("/api/recurring/%d", created.ID), token, map[string]any{
		"category_id":  cat.ID,
		"description":  "Monthly rent",
		"amount_cents": 90000,
		"every":        "monthly",
		"start_date":   created.StartDate.String(),
		"active":       false,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update = %d: %s", w.Code, w.Body.String())
	}
	var updated core.RecurringExpense
	decodeBody(t, w, &updated)
	if updated.Amount.Cents != 90000 {
		t.Errorf("amount = %d cents, want 90000", updated.Amount.Cents)
	}
	if updated.Active {
		t.Error("template still active after deactivation")
	}

	w = doRequest(t, s, http.MethodDelete, fmt.Sprintf("/api/recurring/%d", created.ID), token, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d: %s", w.Code, w.Body.String())
	}
	w = doRequest(t, s, http.MethodGet, fmt.Sprintf("/api/recurring/%d", created.ID), token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("get after delete = %d, want 404", w.Code)
	}
}

func TestCreateRecurring_DecimalAmount(t *testing.T) {
	s := newTestServer(t)
	token, _ := registerAndLogin(t, s, "recdec@example.com")
	cat := createCategory(t, s, token, "Streaming", "expense")

	w := doJSON(t, s, http.MethodPost, "/api/recurring", token, map[string]any{
		"category_id": cat.ID,
		"description": "Video subscription",
		"amount":      "9.99",
		"every":       "monthly",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", w.Code, w.Body.String())
	}
	var created core.RecurringExpense
	decodeBody(t, w, &created)
	if created.Amount.Cents != 999 {
		t.Errorf("amount = %d cents, want 999", created.Amount.Cents)
	}
}

func TestCreateRecurring_Failures(t *testing.T) {
	s := newTestServer(t)
	token, _ := registerAndLogin(t, s, "recfail@example.com")
	cat := createCategory(t, s, token, "Bills", "expense")
	income := createCategory(t, s, token, "Salary Extra", "income")

	tests := []struct {
		name    string
		payload map[string]any
	}{
		{
			name: "bad repetition type",
			payload: map[string]any{
				"category_id": cat.ID, "description": "Gym", "amount_cents": 3000, "every": "fortnightly",
			},
		},
		{
			name: "empty description",
			payload: map[string]any{
				"category_id": cat.ID, "description": "  ", "amount_cents": 3000, "every": "monthly",
			},
		},
		{
			name: "zero amount",
			payload: map[string]any{
				"category_id": cat.ID, "description": "Gym", "amount_cents": 0, "every": "monthly",
			},
		},
		{
			name: "income category",
			payload: map[string]any{
				"category_id": income.ID, "description": "Gym", "amount_cents": 3000, "every": "monthly",
			},
		},
		{
			name: "end before start",
			payload: map[string]any{
				"category_id": cat.ID, "description": "Gym", "amount_cents": 3000, "every": "monthly",
				"start_date": "2026-06-01", "end_date": "2026-05-01",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, s, http.MethodPost, "/api/recurring", token, tt.payload)
			if w.Code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestRecurringOwnership(t *testing.T) {
	s := newTestServer(t)
	owner, _ := registerAndLogin(t, s, "recowner@example.com")
	cat := createCategory(t, s, owner, "Insurance", "expense")

	w := doJSON(t, s, http.MethodPost, "/api/recurring", owner, map[string]any{
		"category_id": cat.ID, "description": "Car insurance", "amount_cents": 12000, "every": "yearly",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", w.Code, w.Body.String())
	}
	var created core.RecurringExpense
	decodeBody(t, w, &created)

	other, _ := registerAndLogin(t, s, "recother@example.com")
	w = doRequest(t, s, http.MethodGet, fmt.Sprintf("/api/recurring/%d", created.ID), other, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign get = %d, want 404", w.Code)
	}
	w = doRequest(t, s, http.MethodDelete, fmt.Sprintf("/api/recurring/%d", created.ID), other, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign delete = %d, want 404", w.Code)
	}

	w = doRequest(t, s, http.MethodGet, "/api/recurring", other, nil)
	var templates []core.RecurringExpense
	decodeBody(t, w, &templates)
	if len(templates) != 0 {
		t.Errorf("foreign listing has %d templates, want 0", len(templates))
	}
}
