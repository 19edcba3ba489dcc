package core

import "testing"

func TestBudgetValidate(t *testing.T) {
	good := Budget{
		Amount:    Money{Cents: 50000},
		Period:    BudgetMonthly,
		StartDate: NewDate(2025, 4, 1),
		EndDate:   NewDate(2025, 4, 30),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Budget{
		{Amount: Money{Cents: 0}, Period: BudgetMonthly, StartDate: NewDate(2025, 4, 1), EndDate: NewDate(2025, 4, 30)},
		{Amount: Money{Cents: 1}, Period: "weekly", StartDate: NewDate(2025, 4, 1), EndDate: NewDate(2025, 4, 30)},
		{Amount: Money{Cents: 1}, Period: BudgetMonthly, StartDate: NewDate(2025, 4, 30), EndDate: NewDate(2025, 4, 1)},
		{Amount: Money{Cents: 1}, Period: BudgetMonthly, StartDate: NewDate(2025, 4, 1), EndDate: NewDate(2025, 4, 30), CategoryID: -1},
	}
	for i, b := range bads {
		if err := b.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestBudgetStatus(t *testing.T) {
	b := Budget{Amount: Money{Cents: 10000}}

	st := b.Status(Money{Cents: 8000})
	if st.UsedBP != 8000 {
		t.Fatalf("expected 8000bp, got %d", st.UsedBP)
	}
	if st.Remaining.Cents != 2000 {
		t.Fatalf("expected 2000 remaining, got %d", st.Remaining.Cents)
	}

	over := b.Status(Money{Cents: 12500})
	if over.UsedBP != 12500 {
		t.Fatalf("expected 12500bp, got %d", over.UsedBP)
	}
	if over.Remaining.Cents != 0 {
		t.Fatalf("overspent budget should clamp remaining to 0, got %d", over.Remaining.Cents)
	}
}

func TestBudgetPeriodWindow(t *testing.T) {
	first, last := BudgetMonthly.Window(NewDate(2025, 2, 14))
	if first.String() != "2025-02-01" || last.String() != "2025-02-28" {
		t.Fatalf("got %s..%s", first, last)
	}

	first, last = BudgetMonthly.Next(NewDate(2025, 1, 31))
	if first.String() != "2025-02-01" || last.String() != "2025-02-28" {
		t.Fatalf("next window got %s..%s", first, last)
	}

	first, last = BudgetYearly.Window(NewDate(2025, 6, 1))
	if first.String() != "2025-01-01" || last.String() != "2025-12-31" {
		t.Fatalf("yearly got %s..%s", first, last)
	}

	first, last = BudgetYearly.Next(NewDate(2025, 6, 1))
	if first.String() != "2026-01-01" || last.String() != "2026-12-31" {
		t.Fatalf("next yearly got %s..%s", first, last)
	}
}

func TestBudgetContains(t *testing.T) {
	b := Budget{StartDate: NewDate(2025, 4, 1), EndDate: NewDate(2025, 4, 30)}
	if !b.Contains(NewDate(2025, 4, 1)) || !b.Contains(NewDate(2025, 4, 30)) {
		t.Fatalf("window edges should be inside")
	}
	if b.Contains(NewDate(2025, 3, 31)) || b.Contains(NewDate(2025, 5, 1)) {
		t.Fatalf("outside days should be excluded")
	}
}
