package core

import (
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-09")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d.Year() != 2025 || d.Month() != 3 || d.Day() != 9 {
		t.Fatalf("got %v", d)
	}
	for _, bad := range []string{"", "2025/03/09", "09-03-2025", "2025-13-01"} {
		if _, err := ParseDate(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2025, 7, 31)
	b, err := d.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2025-07-31"` {
		t.Fatalf("got %s", b)
	}
	var back Date
	if err := back.UnmarshalJSON(b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(d.Time) {
		t.Fatalf("round trip mismatch: %v != %v", back, d)
	}

	var zero Date
	b, err = zero.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal zero: %v", err)
	}
	if string(b) != "null" {
		t.Fatalf("zero date should render null, got %s", b)
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestCategoryValidate(t *testing.T) {
	good := Category{Name: "Groceries", Kind: KindExpense, Color: "#1abc9c"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Category{
		{Name: "", Kind: KindExpense},
		{Name: "x", Kind: "savings"},
		{Name: "x", Kind: KindExpense, Color: "red"},
		{Name: "x", Kind: KindExpense, Color: "#12345"},
	}
	for i, c := range bads {
		if err := c.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Date:        NewDate(2025, 1, 1),
		Description: "ok",
		Amount:      Money{Cents: 100},
		CategoryID:  1,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{Date: Date{Time: time.Time{}}, Description: "a", Amount: Money{Cents: 1}, CategoryID: 1}, // zero date
		{Date: NewDate(2025, 1, 1), Description: "", Amount: Money{Cents: 1}, CategoryID: 1},
		{Date: NewDate(2025, 1, 1), Description: "a", Amount: Money{Cents: 0}, CategoryID: 1},
		{Date: NewDate(2025, 1, 1), Description: "a", Amount: Money{Cents: 1}, CategoryID: 0},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestRecurringExpenseValidate(t *testing.T) {
	good := RecurringExpense{
		StartDate:   NewDate(2025, 1, 31),
		Every:       Monthly,
		Description: "rent",
		Amount:      Money{Cents: 90000},
		CategoryID:  2,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	withEnd := good
	withEnd.EndDate = NewDate(2024, 12, 31) // before start
	if err := withEnd.Validate(); err == nil {
		t.Fatalf("expected error for end before start")
	}

	badEvery := good
	badEvery.Every = "fortnightly"
	if err := badEvery.Validate(); err == nil {
		t.Fatalf("expected error for repetition type")
	}
}

func TestUserValidate(t *testing.T) {
	good := User{Email: "a@example.com", Name: "Ada"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []User{
		{Email: "", Name: "x"},
		{Email: "no-at.example.com", Name: "x"},
		{Email: "@example.com", Name: "x"},
		{Email: "a@", Name: "x"},
		{Email: "a@example.com", Name: ""},
	}
	for i, u := range bads {
		if err := u.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	s := Session{ExpiresAt: now.Add(time.Hour)}
	if s.Expired(now) {
		t.Fatalf("session should still be live")
	}
	if !s.Expired(now.Add(2 * time.Hour)) {
		t.Fatalf("session should be expired")
	}
	if !s.Expired(s.ExpiresAt) {
		t.Fatalf("expiry instant counts as expired")
	}
}
