package taxonomy

import (
	"context"
	"testing"

	"budgetshop/internal/core"
	"budgetshop/internal/services"
	"budgetshop/internal/store/memory"
)

func TestDefaults(t *testing.T) {
	cats, err := Defaults()
	if err != nil {
		t.Fatalf("Defaults: %v", err)
	}
	if len(cats) == 0 {
		t.Fatal("Defaults returned no categories")
	}

	seen := make(map[string]bool)
	hasExpense, hasIncome := false, false
	for i, c := range cats {
		if err := c.Validate(); err != nil {
			t.Errorf("category %q invalid: %v", c.Name, err)
		}
		if c.Position != i {
			t.Errorf("category %q position = %d, want %d", c.Name, c.Position, i)
		}
		if seen[c.Name] {
			t.Errorf("duplicate category name %q", c.Name)
		}
		seen[c.Name] = true
		switch c.Kind {
		case core.KindExpense:
			hasExpense = true
		case core.KindIncome:
			hasIncome = true
		}
	}
	if !hasExpense || !hasIncome {
		t.Errorf("defaults must cover both kinds, expense=%v income=%v", hasExpense, hasIncome)
	}
}

func TestInstall(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	u := core.User{Email: "new@example.com", Name: "New User", PasswordHash: "unused"}
	if err := st.CreateUser(ctx, &u); err != nil {
		t.Fatalf("create user: %v", err)
	}

	svc := services.NewCategoryService(st, nil)
	created, err := Install(ctx, svc, u.ID)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}

	defaults, err := Defaults()
	if err != nil {
		t.Fatalf("Defaults: %v", err)
	}
	if created != len(defaults) {
		t.Fatalf("Install created %d categories, want %d", created, len(defaults))
	}

	stored, err := st.Categories(ctx, u.ID)
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if len(stored) != len(defaults) {
		t.Fatalf("store holds %d categories, want %d", len(stored), len(defaults))
	}
	for _, c := range stored {
		if c.UserID != u.ID {
			t.Errorf("category %q user = %d, want %d", c.Name, c.UserID, u.ID)
		}
	}
}

func TestInstall_DuplicateStops(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	u := core.User{Email: "dup@example.com", Name: "Dup User", PasswordHash: "unused"}
	if err := st.CreateUser(ctx, &u); err != nil {
		t.Fatalf("create user: %v", err)
	}

	svc := services.NewCategoryService(st, nil)
	if _, err := Install(ctx, svc, u.ID); err != nil {
		t.Fatalf("first Install: %v", err)
	}
	if _, err := Install(ctx, svc, u.ID); err == nil {
		t.Fatal("second Install should fail on duplicate names")
	}
}
