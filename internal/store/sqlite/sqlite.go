// Package sqlite is the default Store backed by modernc.org/sqlite.
// The database runs in WAL mode with foreign keys enforced; the schema
// is managed by embedded golang-migrate migrations.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"budgetshop/internal/core"
	"budgetshop/internal/store"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// DSN appends the pragmas every connection needs.
func DSN(dbPath string) string {
	return dbPath + "?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)"
}

func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", DSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// --- users ---

func (s *Store) CreateUser(ctx context.Context, u *core.User) error {
	u.Email = core.NormalizeEmail(u.Email)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, name, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.Email, u.Name, u.PasswordHash, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create user id: %w", err)
	}
	u.ID = id
	return nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (core.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE email = ?`,
		core.NormalizeEmail(email)))
}

func (s *Store) UserByID(ctx context.Context, id int64) (core.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE id = ?`, id))
}

func (s *Store) scanUser(row *sql.Row) (core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, store.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

// --- sessions ---

func (s *Store) CreateSession(ctx context.Context, sess core.Session) error {
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		sess.Token, sess.UserID, sess.ExpiresAt, sess.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *Store) SessionByToken(ctx context.Context, token string) (core.Session, error) {
	var sess core.Session
	err := s.db.QueryRowContext(ctx,
		`SELECT token, user_id, expires_at, created_at FROM sessions WHERE token = ?`, token).
		Scan(&sess.Token, &sess.UserID, &sess.ExpiresAt, &sess.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Session{}, store.ErrNotFound
	}
	if err != nil {
		return core.Session{}, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

func (s *Store) DeleteSession(ctx context.Context, token string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return requireAffected(res, "delete session")
}

func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions count: %w", err)
	}
	return n, nil
}

// --- categories ---

func (s *Store) CreateCategory(ctx context.Context, c *core.Category) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (user_id, name, kind, color, position, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.UserID, c.Name, string(c.Kind), c.Color, c.Position, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("create category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create category id: %w", err)
	}
	c.ID = id
	return nil
}

func (s *Store) Categories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, kind, color, position, created_at
		 FROM categories WHERE user_id = ? ORDER BY position, name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		var kind string
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &kind, &c.Color, &c.Position, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Kind = core.CategoryKind(kind)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) CategoryByID(ctx context.Context, userID, id int64) (core.Category, error) {
	var c core.Category
	var kind string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, kind, color, position, created_at
		 FROM categories WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&c.ID, &c.UserID, &c.Name, &kind, &c.Color, &c.Position, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, store.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	c.Kind = core.CategoryKind(kind)
	return c, nil
}

func (s *Store) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, kind = ?, color = ?, position = ? WHERE id = ? AND user_id = ?`,
		c.Name, string(c.Kind), c.Color, c.Position, c.ID, c.UserID)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("update category: %w", err)
	}
	return requireAffected(res, "update category")
}

func (s *Store) DeleteCategory(ctx context.Context, userID, id int64) error {
	var refs int64
	err := s.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(1) FROM expenses WHERE category_id = ? AND deleted_at IS NULL)
		      + (SELECT COUNT(1) FROM recurring_expenses WHERE category_id = ?)
		      + (SELECT COUNT(1) FROM budgets WHERE category_id = ?)
		      + (SELECT COUNT(1) FROM shopping_lists WHERE category_id = ?)`,
		id, id, id, id).Scan(&refs)
	if err != nil {
		return fmt.Errorf("count category references: %w", err)
	}
	if refs > 0 {
		return store.ErrReferenced
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireAffected(res, "delete category")
}

func (s *Store) CountCategories(ctx context.Context, userID int64) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM categories WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return n, nil
}

// --- expenses ---

const expenseColumns = `id, user_id, category_id, date, description, amount_cents, note, sync_state, version, created_at, updated_at, deleted_at`

func (s *Store) CreateExpense(ctx context.Context, e *core.Expense) error {
	nowTS := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = nowTS
	}
	e.UpdatedAt = nowTS
	if e.SyncState == "" {
		e.SyncState = core.SyncPending
	}
	if e.Version == 0 {
		e.Version = 1
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO expenses (user_id, category_id, date, description, amount_cents, note, sync_state, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.CategoryID, e.Date.String(), e.Description, e.Amount.Cents, e.Note,
		string(e.SyncState), e.Version, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create expense id: %w", err)
	}
	e.ID = id
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e         core.Expense
		date      string
		syncState string
		deletedAt sql.NullTime
	)
	err := row.Scan(&e.ID, &e.UserID, &e.CategoryID, &date, &e.Description, &e.Amount.Cents,
		&e.Note, &syncState, &e.Version, &e.CreatedAt, &e.UpdatedAt, &deletedAt)
	if err != nil {
		return core.Expense{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse expense date %q: %w", date, err)
	}
	e.Date = d
	e.SyncState = core.SyncState(syncState)
	if deletedAt.Valid {
		t := deletedAt.Time
		e.DeletedAt = &t
	}
	return e, nil
}

func (s *Store) ExpenseByID(ctx context.Context, userID, id int64) (core.Expense, error) {
	e, err := scanExpense(s.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ? AND user_id = ? AND deleted_at IS NULL`,
		id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, store.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (s *Store) Expenses(ctx context.Context, userID int64, f store.ExpenseFilter) ([]core.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE user_id = ? AND deleted_at IS NULL`
	args := []any{userID}

	if f.Year != 0 {
		from, to := yearRange(f.Year, f.Month)
		query += ` AND date >= ? AND date <= ?`
		args = append(args, from, to)
	}
	if f.CategoryID != 0 {
		query += ` AND category_id = ?`
		args = append(args, f.CategoryID)
	}
	query += ` ORDER BY date DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
		if f.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, f.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func yearRange(year, month int) (string, string) {
	if month != 0 {
		first := core.NewDate(year, month, 1)
		last := core.Date{Time: first.AddDate(0, 1, -1)}
		return first.String(), last.String()
	}
	return core.NewDate(year, 1, 1).String(), core.NewDate(year, 12, 31).String()
}

func (s *Store) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE expenses
		 SET category_id = ?, date = ?, description = ?, amount_cents = ?, note = ?,
		     sync_state = 'pending', version = version + 1, updated_at = ?
		 WHERE id = ? AND user_id = ? AND deleted_at IS NULL`,
		e.CategoryID, e.Date.String(), e.Description, e.Amount.Cents, e.Note,
		time.Now().UTC(), e.ID, e.UserID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireAffected(res, "update expense")
}

func (s *Store) SoftDeleteExpense(ctx context.Context, userID, id int64) error {
	nowTS := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE expenses SET deleted_at = ?, updated_at = ? WHERE id = ? AND user_id = ? AND deleted_at IS NULL`,
		nowTS, nowTS, id, userID)
	if err != nil {
		return fmt.Errorf("soft delete expense: %w", err)
	}
	return requireAffected(res, "soft delete expense")
}

func (s *Store) SpentBetween(ctx context.Context, userID, categoryID int64, from, to core.Date) (int64, error) {
	query := `SELECT COALESCE(SUM(amount_cents), 0) FROM expenses
	          WHERE user_id = ? AND deleted_at IS NULL AND date >= ? AND date <= ?`
	args := []any{userID, from.String(), to.String()}
	if categoryID != 0 {
		query += ` AND category_id = ?`
		args = append(args, categoryID)
	}
	var total int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum expenses: %w", err)
	}
	return total, nil
}

func (s *Store) SumByCategory(ctx context.Context, userID int64, from, to core.Date) ([]core.CategoryAmount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.category_id, COALESCE(c.name, ''), COALESCE(c.color, ''), SUM(e.amount_cents) AS total
		 FROM expenses e
		 LEFT JOIN categories c ON c.id = e.category_id
		 WHERE e.user_id = ? AND e.deleted_at IS NULL AND e.date >= ? AND e.date <= ?
		 GROUP BY e.category_id
		 ORDER BY total DESC, c.name`,
		userID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryAmount
	for rows.Next() {
		var ca core.CategoryAmount
		if err := rows.Scan(&ca.CategoryID, &ca.Name, &ca.Color, &ca.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		out = append(out, ca)
	}
	return out, rows.Err()
}

func (s *Store) PendingSyncExpenses(ctx context.Context, limit int) ([]core.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE deleted_at IS NULL AND sync_state != 'synced'
		 ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending sync expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) MarkSynced(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE expenses SET sync_state = 'synced' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark expense synced: %w", err)
	}
	return requireAffected(res, "mark expense synced")
}

func (s *Store) MarkSyncError(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE expenses SET sync_state = 'error' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark expense sync error: %w", err)
	}
	return requireAffected(res, "mark expense sync error")
}

// --- recurring ---

func (s *Store) CreateRecurring(ctx context.Context, r *core.RecurringExpense) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO recurring_expenses (user_id, category_id, description, amount_cents, every, start_date, end_date, last_run, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.UserID, r.CategoryID, r.Description, r.Amount.Cents, string(r.Every),
		r.StartDate.String(), nullDate(r.EndDate), nullDate(r.LastRun), r.Active)
	if err != nil {
		return fmt.Errorf("create recurring expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create recurring expense id: %w", err)
	}
	r.ID = id
	return nil
}

func nullDate(d core.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}

func scanRecurring(row rowScanner) (core.RecurringExpense, error) {
	var (
		r         core.RecurringExpense
		every     string
		startDate string
		endDate   sql.NullString
		lastRun   sql.NullString
	)
	err := row.Scan(&r.ID, &r.UserID, &r.CategoryID, &r.Description, &r.Amount.Cents,
		&every, &startDate, &endDate, &lastRun, &r.Active)
	if err != nil {
		return core.RecurringExpense{}, err
	}
	r.Every = core.RepetitionType(every)
	d, err := core.ParseDate(startDate)
	if err != nil {
		return core.RecurringExpense{}, fmt.Errorf("parse start date %q: %w", startDate, err)
	}
	r.StartDate = d
	if endDate.Valid && endDate.String != "" {
		if d, err := core.ParseDate(endDate.String); err == nil {
			r.EndDate = d
		}
	}
	if lastRun.Valid && lastRun.String != "" {
		if d, err := core.ParseDate(lastRun.String); err == nil {
			r.LastRun = d
		}
	}
	return r, nil
}

const recurringColumns = `id, user_id, category_id, description, amount_cents, every, start_date, end_date, last_run, active`

func (s *Store) RecurringByID(ctx context.Context, userID, id int64) (core.RecurringExpense, error) {
	r, err := scanRecurring(s.db.QueryRowContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_expenses WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringExpense{}, store.ErrNotFound
	}
	if err != nil {
		return core.RecurringExpense{}, fmt.Errorf("get recurring expense: %w", err)
	}
	return r, nil
}

func (s *Store) RecurringForUser(ctx context.Context, userID int64) ([]core.RecurringExpense, error) {
	return s.listRecurring(ctx,
		`SELECT `+recurringColumns+` FROM recurring_expenses WHERE user_id = ? ORDER BY id`, userID)
}

func (s *Store) ActiveRecurring(ctx context.Context) ([]core.RecurringExpense, error) {
	return s.listRecurring(ctx,
		`SELECT `+recurringColumns+` FROM recurring_expenses WHERE active = 1 ORDER BY id`)
}

func (s *Store) listRecurring(ctx context.Context, query string, args ...any) ([]core.RecurringExpense, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recurring expenses: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringExpense
	for rows.Next() {
		r, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring expense: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) UpdateRecurring(ctx context.Context, r core.RecurringExpense) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE recurring_expenses
		 SET category_id = ?, description = ?, amount_cents = ?, every = ?, start_date = ?, end_date = ?, last_run = ?, active = ?
		 WHERE id = ? AND user_id = ?`,
		r.CategoryID, r.Description, r.Amount.Cents, string(r.Every),
		r.StartDate.String(), nullDate(r.EndDate), nullDate(r.LastRun), r.Active,
		r.ID, r.UserID)
	if err != nil {
		return fmt.Errorf("update recurring expense: %w", err)
	}
	return requireAffected(res, "update recurring expense")
}

func (s *Store) DeleteRecurring(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM recurring_expenses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete recurring expense: %w", err)
	}
	return requireAffected(res, "delete recurring expense")
}

// --- budgets ---

const budgetColumns = `id, user_id, category_id, amount_cents, period, start_date, end_date, active, created_at`

func (s *Store) CreateBudget(ctx context.Context, b *core.Budget) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO budgets (user_id, category_id, amount_cents, period, start_date, end_date, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.UserID, b.CategoryID, b.Amount.Cents, string(b.Period),
		b.StartDate.String(), b.EndDate.String(), b.Active, b.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("create budget: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create budget id: %w", err)
	}
	b.ID = id
	return nil
}

func scanBudget(row rowScanner) (core.Budget, error) {
	var (
		b         core.Budget
		period    string
		startDate string
		endDate   string
	)
	err := row.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Amount.Cents, &period, &startDate, &endDate, &b.Active, &b.CreatedAt)
	if err != nil {
		return core.Budget{}, err
	}
	b.Period = core.BudgetPeriod(period)
	if d, err := core.ParseDate(startDate); err == nil {
		b.StartDate = d
	}
	if d, err := core.ParseDate(endDate); err == nil {
		b.EndDate = d
	}
	return b, nil
}

func (s *Store) BudgetByID(ctx context.Context, userID, id int64) (core.Budget, error) {
	b, err := scanBudget(s.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, store.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (s *Store) BudgetsForUser(ctx context.Context, userID int64, activeOnly bool) ([]core.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE user_id = ?`
	if activeOnly {
		query += ` AND active = 1`
	}
	query += ` ORDER BY id`
	return s.listBudgets(ctx, query, userID)
}

func (s *Store) ExpiredActiveBudgets(ctx context.Context, asOf core.Date) ([]core.Budget, error) {
	return s.listBudgets(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE active = 1 AND end_date < ? ORDER BY id`,
		asOf.String())
}

func (s *Store) listBudgets(ctx context.Context, query string, args ...any) ([]core.Budget, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE budgets
		 SET category_id = ?, amount_cents = ?, period = ?, start_date = ?, end_date = ?, active = ?
		 WHERE id = ? AND user_id = ?`,
		b.CategoryID, b.Amount.Cents, string(b.Period), b.StartDate.String(), b.EndDate.String(), b.Active,
		b.ID, b.UserID)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("update budget: %w", err)
	}
	return requireAffected(res, "update budget")
}

func (s *Store) DeleteBudget(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireAffected(res, "delete budget")
}

// --- shopping ---

func (s *Store) CreateList(ctx context.Context, l *core.ShoppingList) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO shopping_lists (user_id, name, category_id, archived, created_at) VALUES (?, ?, ?, ?, ?)`,
		l.UserID, l.Name, l.CategoryID, l.Archived, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("create shopping list: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create shopping list id: %w", err)
	}
	l.ID = id
	return nil
}

func (s *Store) ListByID(ctx context.Context, userID, id int64) (core.ShoppingList, error) {
	var l core.ShoppingList
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, category_id, archived, created_at
		 FROM shopping_lists WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&l.ID, &l.UserID, &l.Name, &l.CategoryID, &l.Archived, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ShoppingList{}, store.ErrNotFound
	}
	if err != nil {
		return core.ShoppingList{}, fmt.Errorf("get shopping list: %w", err)
	}
	return l, nil
}

func (s *Store) ListsForUser(ctx context.Context, userID int64, includeArchived bool) ([]core.ShoppingList, error) {
	query := `SELECT id, user_id, name, category_id, archived, created_at FROM shopping_lists WHERE user_id = ?`
	if !includeArchived {
		query += ` AND archived = 0`
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list shopping lists: %w", err)
	}
	defer rows.Close()

	var out []core.ShoppingList
	for rows.Next() {
		var l core.ShoppingList
		if err := rows.Scan(&l.ID, &l.UserID, &l.Name, &l.CategoryID, &l.Archived, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan shopping list: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) UpdateList(ctx context.Context, l core.ShoppingList) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE shopping_lists SET name = ?, category_id = ?, archived = ? WHERE id = ? AND user_id = ?`,
		l.Name, l.CategoryID, l.Archived, l.ID, l.UserID)
	if err != nil {
		return fmt.Errorf("update shopping list: %w", err)
	}
	return requireAffected(res, "update shopping list")
}

func (s *Store) DeleteList(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM shopping_lists WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete shopping list: %w", err)
	}
	return requireAffected(res, "delete shopping list")
}

const itemColumns = `id, list_id, name, quantity, estimated_price_cents, purchased, purchased_price_cents, expense_id, position, created_at`

func (s *Store) CreateItem(ctx context.Context, i *core.ShoppingItem) error {
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO shopping_items (list_id, name, quantity, estimated_price_cents, purchased, purchased_price_cents, expense_id, position, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		i.ListID, i.Name, i.Quantity, i.EstimatedPrice.Cents, i.Purchased, i.PurchasedPrice.Cents, i.ExpenseID, i.Position, i.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return store.ErrNotFound
		}
		return fmt.Errorf("create shopping item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create shopping item id: %w", err)
	}
	i.ID = id
	return nil
}

func (s *Store) ItemByID(ctx context.Context, userID, id int64) (core.ShoppingItem, error) {
	var i core.ShoppingItem
	err := s.db.QueryRowContext(ctx,
		`SELECT i.id, i.list_id, i.name, i.quantity, i.estimated_price_cents, i.purchased, i.purchased_price_cents, i.expense_id, i.position, i.created_at
		 FROM shopping_items i
		 JOIN shopping_lists l ON l.id = i.list_id
		 WHERE i.id = ? AND l.user_id = ?`, id, userID).
		Scan(&i.ID, &i.ListID, &i.Name, &i.Quantity, &i.EstimatedPrice.Cents,
			&i.Purchased, &i.PurchasedPrice.Cents, &i.ExpenseID, &i.Position, &i.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ShoppingItem{}, store.ErrNotFound
	}
	if err != nil {
		return core.ShoppingItem{}, fmt.Errorf("get shopping item: %w", err)
	}
	return i, nil
}

func (s *Store) ItemsForList(ctx context.Context, listID int64) ([]core.ShoppingItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM shopping_items WHERE list_id = ? ORDER BY position, id`, listID)
	if err != nil {
		return nil, fmt.Errorf("list shopping items: %w", err)
	}
	defer rows.Close()

	var out []core.ShoppingItem
	for rows.Next() {
		var i core.ShoppingItem
		if err := rows.Scan(&i.ID, &i.ListID, &i.Name, &i.Quantity, &i.EstimatedPrice.Cents,
			&i.Purchased, &i.PurchasedPrice.Cents, &i.ExpenseID, &i.Position, &i.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan shopping item: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (s *Store) UpdateItem(ctx context.Context, i core.ShoppingItem) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE shopping_items
		 SET name = ?, quantity = ?, estimated_price_cents = ?, purchased = ?, purchased_price_cents = ?, expense_id = ?, position = ?
		 WHERE id = ?`,
		i.Name, i.Quantity, i.EstimatedPrice.Cents, i.Purchased, i.PurchasedPrice.Cents, i.ExpenseID, i.Position, i.ID)
	if err != nil {
		return fmt.Errorf("update shopping item: %w", err)
	}
	return requireAffected(res, "update shopping item")
}

func (s *Store) DeleteItem(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM shopping_items
		 WHERE id = ? AND list_id IN (SELECT id FROM shopping_lists WHERE user_id = ?)`,
		id, userID)
	if err != nil {
		return fmt.Errorf("delete shopping item: %w", err)
	}
	return requireAffected(res, "delete shopping item")
}

// --- notifications ---

func (s *Store) CreateNotification(ctx context.Context, n *core.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, kind, message, is_read, dedup_key, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		n.UserID, string(n.Kind), n.Message, n.Read, n.DedupKey, n.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("create notification: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create notification id: %w", err)
	}
	n.ID = id
	return nil
}

func (s *Store) Notifications(ctx context.Context, userID int64, f store.NotificationFilter) ([]core.Notification, error) {
	query := `SELECT id, user_id, kind, message, is_read, dedup_key, created_at FROM notifications WHERE user_id = ?`
	args := []any{userID}
	if f.UnreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []core.Notification
	for rows.Next() {
		var n core.Notification
		var kind string
		if err := rows.Scan(&n.ID, &n.UserID, &kind, &n.Message, &n.Read, &n.DedupKey, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Kind = core.NotificationKind(kind)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) MarkRead(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return requireAffected(res, "mark notification read")
}

func (s *Store) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read count: %w", err)
	}
	return n, nil
}

func (s *Store) DeleteNotification(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return requireAffected(res, "delete notification")
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
