// Package seed fills a store with demo data through the real services,
// so everything the API enforces also holds for generated records.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"budgetshop/internal/core"
	"budgetshop/internal/services"
	"budgetshop/internal/store"
	"budgetshop/internal/taxonomy"
)

// Password is the login password of every seeded account.
const Password = "budget-demo-1"

type Config struct {
	// Users is how many demo accounts to create.
	Users int
	// Months is how far back the expense history reaches.
	Months int
	// BcryptCost lets callers trade seeding speed for realism.
	BcryptCost int
}

func DefaultConfig() Config {
	return Config{Users: 3, Months: 3, BcryptCost: bcrypt.MinCost}
}

// Summary counts what a run created.
type Summary struct {
	Users      int
	Categories int
	Expenses   int
	Recurring  int
	Budgets    int
	Lists      int
	Items      int
}

func (s *Summary) add(other Summary) {
	s.Users += other.Users
	s.Categories += other.Categories
	s.Expenses += other.Expenses
	s.Recurring += other.Recurring
	s.Budgets += other.Budgets
	s.Lists += other.Lists
	s.Items += other.Items
}

type seeder struct {
	auth       *services.AuthService
	categories *services.CategoryService
	expenses   *services.ExpenseService
	recurring  *services.RecurringService
	budgets    *services.BudgetService
	shopping   *services.ShoppingService
}

// Run creates cfg.Users demo accounts, each with default categories,
// cfg.Months months of expenses, a recurring rent, monthly budgets and
// a part-purchased shopping list. Accounts are seeded concurrently;
// bcrypt dominates the cost at realistic settings.
func Run(ctx context.Context, st store.Store, cfg Config) (Summary, error) {
	if cfg.Users <= 0 {
		cfg.Users = DefaultConfig().Users
	}
	if cfg.Months <= 0 {
		cfg.Months = DefaultConfig().Months
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.MinCost
	}

	summaries := services.NewSummaryService(st)
	expenses := services.NewExpenseService(st, nil, summaries)
	s := seeder{
		auth:       services.NewAuthService(st, cfg.BcryptCost),
		categories: services.NewCategoryService(st, summaries),
		expenses:   expenses,
		recurring:  services.NewRecurringService(st, expenses),
		budgets:    services.NewBudgetService(st, summaries),
		shopping:   services.NewShoppingService(st, expenses),
	}

	results := make([]Summary, cfg.Users)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := 0; i < cfg.Users; i++ {
		g.Go(func() error {
			// Each goroutine gets its own faker; the package-level one
			// is not safe for concurrent use.
			return s.seedUser(gctx, gofakeit.New(0), cfg, &results[i])
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	var sum Summary
	for _, r := range results {
		sum.add(r)
	}
	return sum, nil
}

func (s seeder) seedUser(ctx context.Context, f *gofakeit.Faker, cfg Config, sum *Summary) error {
	user, err := s.registerUser(ctx, f)
	if err != nil {
		return err
	}
	sum.Users++

	installed, err := taxonomy.Install(ctx, s.categories, user.ID)
	if err != nil {
		return fmt.Errorf("install categories for %s: %w", user.Email, err)
	}
	sum.Categories += installed

	cats, err := s.categories.List(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	spendable := make([]core.Category, 0, len(cats))
	for _, c := range cats {
		if c.Kind == core.KindExpense {
			spendable = append(spendable, c)
		}
	}
	if len(spendable) == 0 {
		return fmt.Errorf("no expense categories for %s", user.Email)
	}

	if err := s.seedExpenses(ctx, f, user.ID, spendable, cfg.Months, sum); err != nil {
		return err
	}
	if err := s.seedRecurring(ctx, f, user.ID, spendable, sum); err != nil {
		return err
	}
	if err := s.seedBudgets(ctx, f, user.ID, spendable, sum); err != nil {
		return err
	}
	if err := s.seedShopping(ctx, f, user.ID, spendable, sum); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Seeded demo account", "email", user.Email, "user_id", user.ID)
	return nil
}

// registerUser retries on the off chance two fakers produce the same
// address.
func (s seeder) registerUser(ctx context.Context, f *gofakeit.Faker) (core.User, error) {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		email := strings.ToLower(f.Email())
		user, err := s.auth.Register(ctx, email, f.Name(), Password)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, store.ErrEmailTaken) {
			return core.User{}, fmt.Errorf("register %s: %w", email, err)
		}
		lastErr = err
	}
	return core.User{}, fmt.Errorf("register demo account: %w", lastErr)
}

func (s seeder) seedExpenses(ctx context.Context, f *gofakeit.Faker, userID int64, cats []core.Category, months int, sum *Summary) error {
	now := time.Now()
	for m := 0; m < months; m++ {
		month := now.AddDate(0, -m, 0)
		count := 8 + f.IntRange(0, 11)
		for i := 0; i < count; i++ {
			// Day capped at 28 so every month works; the current month
			// only gets days that already happened.
			day := f.IntRange(1, 28)
			if m == 0 && day > now.Day() {
				day = f.IntRange(1, now.Day())
			}
			cat := cats[f.IntRange(0, len(cats)-1)]
			_, err := s.expenses.Create(ctx, core.Expense{
				UserID:      userID,
				CategoryID:  cat.ID,
				Date:        core.NewDate(month.Year(), int(month.Month()), day),
				Description: f.ProductName(),
				Amount:      core.Money{Cents: int64(f.IntRange(150, 15000))},
			})
			if err != nil {
				return fmt.Errorf("seed expense: %w", err)
			}
			sum.Expenses++
		}
	}
	return nil
}

func (s seeder) seedRecurring(ctx context.Context, f *gofakeit.Faker, userID int64, cats []core.Category, sum *Summary) error {
	cat := pickCategory(f, cats, "Rent")
	now := time.Now()
	_, err := s.recurring.Create(ctx, core.RecurringExpense{
		UserID:      userID,
		CategoryID:  cat.ID,
		Description: "Monthly rent",
		Amount:      core.Money{Cents: 85000},
		Every:       core.Monthly,
		StartDate:   core.NewDate(now.Year(), int(now.Month()), 1),
		Active:      true,
	})
	if err != nil {
		return fmt.Errorf("seed recurring: %w", err)
	}
	sum.Recurring++
	return nil
}

func (s seeder) seedBudgets(ctx context.Context, f *gofakeit.Faker, userID int64, cats []core.Category, sum *Summary) error {
	_, err := s.budgets.Create(ctx, core.Budget{
		UserID: userID,
		Amount: core.Money{Cents: 250000},
		Period: core.BudgetMonthly,
	})
	if err != nil {
		return fmt.Errorf("seed overall budget: %w", err)
	}
	sum.Budgets++

	cat := pickCategory(f, cats, "Groceries")
	_, err = s.budgets.Create(ctx, core.Budget{
		UserID:     userID,
		CategoryID: cat.ID,
		Amount:     core.Money{Cents: 50000},
		Period:     core.BudgetMonthly,
	})
	if err != nil {
		return fmt.Errorf("seed category budget: %w", err)
	}
	sum.Budgets++
	return nil
}

func (s seeder) seedShopping(ctx context.Context, f *gofakeit.Faker, userID int64, cats []core.Category, sum *Summary) error {
	cat := pickCategory(f, cats, "Groceries")
	list, err := s.shopping.CreateList(ctx, core.ShoppingList{
		UserID:     userID,
		Name:       "Weekly groceries",
		CategoryID: cat.ID,
	})
	if err != nil {
		return fmt.Errorf("seed list: %w", err)
	}
	sum.Lists++

	count := 4 + f.IntRange(0, 3)
	for i := 0; i < count; i++ {
		item, err := s.shopping.AddItem(ctx, userID, core.ShoppingItem{
			ListID:         list.ID,
			Name:           f.Fruit(),
			Quantity:       f.IntRange(1, 3),
			EstimatedPrice: core.Money{Cents: int64(f.IntRange(100, 2000))},
			Position:       i,
		})
		if err != nil {
			return fmt.Errorf("seed item: %w", err)
		}
		sum.Items++

		// Buy roughly half the list so seeded data shows both states.
		if i%2 == 0 {
			_, err = s.shopping.Purchase(ctx, userID, item.ID, core.Money{}, core.Date{})
			if err != nil {
				return fmt.Errorf("seed purchase: %w", err)
			}
			sum.Expenses++
		}
	}
	return nil
}

// pickCategory prefers the named default category and falls back to a
// random one.
func pickCategory(f *gofakeit.Faker, cats []core.Category, name string) core.Category {
	for _, c := range cats {
		if c.Name == name {
			return c
		}
	}
	return cats[f.IntRange(0, len(cats)-1)]
}
