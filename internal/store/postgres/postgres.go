// Package postgres is the Store for deployments that outgrow SQLite,
// backed by a pgx/v5 connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"budgetshop/internal/core"
	"budgetshop/internal/store"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

func New(ctx context.Context, databaseURL string) (*Store, error) {
	if err := RunMigrations(databaseURL); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// --- users ---

func (s *Store) CreateUser(ctx context.Context, u *core.User) error {
	u.Email = core.NormalizeEmail(u.Email)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (email, name, password_hash, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		u.Email, u.Name, u.PasswordHash, u.CreatedAt).Scan(&u.ID)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return store.ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (core.User, error) {
	return s.scanUserRow(s.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE email = $1`,
		core.NormalizeEmail(email)))
}

func (s *Store) UserByID(ctx context.Context, id int64) (core.User, error) {
	return s.scanUserRow(s.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE id = $1`, id))
}

func (s *Store) scanUserRow(row pgx.Row) (core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
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
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sessions (token, user_id, expires_at, created_at) VALUES ($1, $2, $3, $4)`,
		sess.Token, sess.UserID, sess.ExpiresAt, sess.CreatedAt)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return store.ErrDuplicate
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *Store) SessionByToken(ctx context.Context, token string) (core.Session, error) {
	var sess core.Session
	err := s.pool.QueryRow(ctx,
		`SELECT token, user_id, expires_at, created_at FROM sessions WHERE token = $1`, token).
		Scan(&sess.Token, &sess.UserID, &sess.ExpiresAt, &sess.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Session{}, store.ErrNotFound
	}
	if err != nil {
		return core.Session{}, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

func (s *Store) DeleteSession(ctx context.Context, token string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// --- categories ---

func (s *Store) CreateCategory(ctx context.Context, c *core.Category) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO categories (user_id, name, kind, color, position, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		c.UserID, c.Name, string(c.Kind), c.Color, c.Position, c.CreatedAt).Scan(&c.ID)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return store.ErrDuplicate
		}
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (s *Store) Categories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, name, kind, color, position, created_at
		 FROM categories WHERE user_id = $1 ORDER BY position, name`, userID)
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
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, name, kind, color, position, created_at
		 FROM categories WHERE id = $1 AND user_id = $2`, id, userID).
		Scan(&c.ID, &c.UserID, &c.Name, &kind, &c.Color, &c.Position, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Category{}, store.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	c.Kind = core.CategoryKind(kind)
	return c, nil
}

func (s *Store) UpdateCategory(ctx context.Context, c core.Category) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE categories SET name = $1, kind = $2, color = $3, position = $4 WHERE id = $5 AND user_id = $6`,
		c.Name, string(c.Kind), c.Color, c.Position, c.ID, c.UserID)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return store.ErrDuplicate
		}
		return fmt.Errorf("update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, userID, id int64) error {
	var refs int64
	err := s.pool.QueryRow(ctx,
		`SELECT (SELECT COUNT(1) FROM expenses WHERE category_id = $1 AND deleted_at IS NULL)
		      + (SELECT COUNT(1) FROM recurring_expenses WHERE category_id = $1)
		      + (SELECT COUNT(1) FROM budgets WHERE category_id = $1)
		      + (SELECT COUNT(1) FROM shopping_lists WHERE category_id = $1)`, id).Scan(&refs)
	if err != nil {
		return fmt.Errorf("count category references: %w", err)
	}
	if refs > 0 {
		return store.ErrReferenced
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return store.ErrReferenced
		}
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CountCategories(ctx context.Context, userID int64) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(1) FROM categories WHERE user_id = $1`, userID).Scan(&n); err != nil {
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
	err := s.pool.QueryRow(ctx,
		`INSERT INTO expenses (user_id, category_id, date, description, amount_cents, note, sync_state, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
		e.UserID, e.CategoryID, e.Date.Time, e.Description, e.Amount.Cents, e.Note,
		string(e.SyncState), e.Version, e.CreatedAt, e.UpdatedAt).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	return nil
}

func scanExpense(row pgx.Row) (core.Expense, error) {
	var (
		e         core.Expense
		date      time.Time
		syncState string
		deletedAt *time.Time
	)
	err := row.Scan(&e.ID, &e.UserID, &e.CategoryID, &date, &e.Description, &e.Amount.Cents,
		&e.Note, &syncState, &e.Version, &e.CreatedAt, &e.UpdatedAt, &deletedAt)
	if err != nil {
		return core.Expense{}, err
	}
	e.Date = core.DateOf(date)
	e.SyncState = core.SyncState(syncState)
	e.DeletedAt = deletedAt
	return e, nil
}

func (s *Store) ExpenseByID(ctx context.Context, userID, id int64) (core.Expense, error) {
	e, err := scanExpense(s.pool.QueryRow(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`,
		id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Expense{}, store.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (s *Store) Expenses(ctx context.Context, userID int64, f store.ExpenseFilter) ([]core.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE user_id = $1 AND deleted_at IS NULL`
	args := []any{userID}

	if f.Year != 0 {
		from, to := yearRange(f.Year, f.Month)
		args = append(args, from.Time, to.Time)
		query += fmt.Sprintf(` AND date >= $%d AND date <= $%d`, len(args)-1, len(args))
	}
	if f.CategoryID != 0 {
		args = append(args, f.CategoryID)
		query += fmt.Sprintf(` AND category_id = $%d`, len(args))
	}
	query += ` ORDER BY date DESC, id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
		if f.Offset > 0 {
			args = append(args, f.Offset)
			query += fmt.Sprintf(` OFFSET $%d`, len(args))
		}
	}

	rows, err := s.pool.Query(ctx, query, args...)
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

func yearRange(year, month int) (core.Date, core.Date) {
	if month != 0 {
		first := core.NewDate(year, month, 1)
		return first, core.Date{Time: first.AddDate(0, 1, -1)}
	}
	return core.NewDate(year, 1, 1), core.NewDate(year, 12, 31)
}

func (s *Store) UpdateExpense(ctx context.Context, e core.Expense) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE expenses
		 SET category_id = $1, date = $2, description = $3, amount_cents = $4, note = $5,
		     sync_state = 'pending', version = version + 1, updated_at = $6
		 WHERE id = $7 AND user_id = $8 AND deleted_at IS NULL`,
		e.CategoryID, e.Date.Time, e.Description, e.Amount.Cents, e.Note,
		time.Now().UTC(), e.ID, e.UserID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SoftDeleteExpense(ctx context.Context, userID, id int64) error {
	nowTS := time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE expenses SET deleted_at = $1, updated_at = $1 WHERE id = $2 AND user_id = $3 AND deleted_at IS NULL`,
		nowTS, id, userID)
	if err != nil {
		return fmt.Errorf("soft delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SpentBetween(ctx context.Context, userID, categoryID int64, from, to core.Date) (int64, error) {
	query := `SELECT COALESCE(SUM(amount_cents), 0) FROM expenses
	          WHERE user_id = $1 AND deleted_at IS NULL AND date >= $2 AND date <= $3`
	args := []any{userID, from.Time, to.Time}
	if categoryID != 0 {
		args = append(args, categoryID)
		query += fmt.Sprintf(` AND category_id = $%d`, len(args))
	}
	var total int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum expenses: %w", err)
	}
	return total, nil
}

func (s *Store) SumByCategory(ctx context.Context, userID int64, from, to core.Date) ([]core.CategoryAmount, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT e.category_id, COALESCE(c.name, ''), COALESCE(c.color, ''), SUM(e.amount_cents) AS total
		 FROM expenses e
		 LEFT JOIN categories c ON c.id = e.category_id
		 WHERE e.user_id = $1 AND e.deleted_at IS NULL AND e.date >= $2 AND e.date <= $3
		 GROUP BY e.category_id, c.name, c.color
		 ORDER BY total DESC, c.name`,
		userID, from.Time, to.Time)
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
	rows, err := s.pool.Query(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE deleted_at IS NULL AND sync_state != 'synced'
		 ORDER BY id LIMIT $1`, limit)
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
	return s.setSyncState(ctx, id, core.SyncDone)
}

func (s *Store) MarkSyncError(ctx context.Context, id int64) error {
	return s.setSyncState(ctx, id, core.SyncError)
}

func (s *Store) setSyncState(ctx context.Context, id int64, state core.SyncState) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE expenses SET sync_state = $1 WHERE id = $2`, string(state), id)
	if err != nil {
		return fmt.Errorf("set expense sync state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// --- recurring ---

const recurringColumns = `id, user_id, category_id, description, amount_cents, every, start_date, end_date, last_run, active`

func (s *Store) CreateRecurring(ctx context.Context, r *core.RecurringExpense) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO recurring_expenses (user_id, category_id, description, amount_cents, every, start_date, end_date, last_run, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		r.UserID, r.CategoryID, r.Description, r.Amount.Cents, string(r.Every),
		r.StartDate.Time, nullTime(r.EndDate), nullTime(r.LastRun), r.Active).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("create recurring expense: %w", err)
	}
	return nil
}

func nullTime(d core.Date) *time.Time {
	if d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

func scanRecurring(row pgx.Row) (core.RecurringExpense, error) {
	var (
		r         core.RecurringExpense
		every     string
		startDate time.Time
		endDate   *time.Time
		lastRun   *time.Time
	)
	err := row.Scan(&r.ID, &r.UserID, &r.CategoryID, &r.Description, &r.Amount.Cents,
		&every, &startDate, &endDate, &lastRun, &r.Active)
	if err != nil {
		return core.RecurringExpense{}, err
	}
	r.Every = core.RepetitionType(every)
	r.StartDate = core.DateOf(startDate)
	if endDate != nil {
		r.EndDate = core.DateOf(*endDate)
	}
	if lastRun != nil {
		r.LastRun = core.DateOf(*lastRun)
	}
	return r, nil
}

func (s *Store) RecurringByID(ctx context.Context, userID, id int64) (core.RecurringExpense, error) {
	r, err := scanRecurring(s.pool.QueryRow(ctx,
		`SELECT `+recurringColumns+` FROM recurring_expenses WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.RecurringExpense{}, store.ErrNotFound
	}
	if err != nil {
		return core.RecurringExpense{}, fmt.Errorf("get recurring expense: %w", err)
	}
	return r, nil
}

func (s *Store) RecurringForUser(ctx context.Context, userID int64) ([]core.RecurringExpense, error) {
	return s.listRecurring(ctx,
		`SELECT `+recurringColumns+` FROM recurring_expenses WHERE user_id = $1 ORDER BY id`, userID)
}

func (s *Store) ActiveRecurring(ctx context.Context) ([]core.RecurringExpense, error) {
	return s.listRecurring(ctx,
		`SELECT `+recurringColumns+` FROM recurring_expenses WHERE active ORDER BY id`)
}

func (s *Store) listRecurring(ctx context.Context, query string, args ...any) ([]core.RecurringExpense, error) {
	rows, err := s.pool.Query(ctx, query, args...)
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
	tag, err := s.pool.Exec(ctx,
		`UPDATE recurring_expenses
		 SET category_id = $1, description = $2, amount_cents = $3, every = $4, start_date = $5, end_date = $6, last_run = $7, active = $8
		 WHERE id = $9 AND user_id = $10`,
		r.CategoryID, r.Description, r.Amount.Cents, string(r.Every),
		r.StartDate.Time, nullTime(r.EndDate), nullTime(r.LastRun), r.Active,
		r.ID, r.UserID)
	if err != nil {
		return fmt.Errorf("update recurring expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteRecurring(ctx context.Context, userID, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM recurring_expenses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete recurring expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// --- budgets ---

const budgetColumns = `id, user_id, category_id, amount_cents, period, start_date, end_date, active, created_at`

func (s *Store) CreateBudget(ctx context.Context, b *core.Budget) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO budgets (user_id, category_id, amount_cents, period, start_date, end_date, active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		b.UserID, b.CategoryID, b.Amount.Cents, string(b.Period),
		b.StartDate.Time, b.EndDate.Time, b.Active, b.CreatedAt).Scan(&b.ID)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return store.ErrDuplicate
		}
		return fmt.Errorf("create budget: %w", err)
	}
	return nil
}

func scanBudget(row pgx.Row) (core.Budget, error) {
	var (
		b         core.Budget
		period    string
		startDate time.Time
		endDate   time.Time
	)
	err := row.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Amount.Cents, &period, &startDate, &endDate, &b.Active, &b.CreatedAt)
	if err != nil {
		return core.Budget{}, err
	}
	b.Period = core.BudgetPeriod(period)
	b.StartDate = core.DateOf(startDate)
	b.EndDate = core.DateOf(endDate)
	return b, nil
}

func (s *Store) BudgetByID(ctx context.Context, userID, id int64) (core.Budget, error) {
	b, err := scanBudget(s.pool.QueryRow(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Budget{}, store.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (s *Store) BudgetsForUser(ctx context.Context, userID int64, activeOnly bool) ([]core.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE user_id = $1`
	if activeOnly {
		query += ` AND active`
	}
	query += ` ORDER BY id`
	return s.listBudgets(ctx, query, userID)
}

func (s *Store) ExpiredActiveBudgets(ctx context.Context, asOf core.Date) ([]core.Budget, error) {
	return s.listBudgets(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE active AND end_date < $1 ORDER BY id`, asOf.Time)
}

func (s *Store) listBudgets(ctx context.Context, query string, args ...any) ([]core.Budget, error) {
	rows, err := s.pool.Query(ctx, query, args...)
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
	tag, err := s.pool.Exec(ctx,
		`UPDATE budgets
		 SET category_id = $1, amount_cents = $2, period = $3, start_date = $4, end_date = $5, active = $6
		 WHERE id = $7 AND user_id = $8`,
		b.CategoryID, b.Amount.Cents, string(b.Period), b.StartDate.Time, b.EndDate.Time, b.Active,
		b.ID, b.UserID)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return store.ErrDuplicate
		}
		return fmt.Errorf("update budget: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteBudget(ctx context.Context, userID, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM budgets WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// --- shopping ---

func (s *Store) CreateList(ctx context.Context, l *core.ShoppingList) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO shopping_lists (user_id, name, category_id, archived, created_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		l.UserID, l.Name, l.CategoryID, l.Archived, l.CreatedAt).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("create shopping list: %w", err)
	}
	return nil
}

func (s *Store) ListByID(ctx context.Context, userID, id int64) (core.ShoppingList, error) {
	var l core.ShoppingList
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, name, category_id, archived, created_at
		 FROM shopping_lists WHERE id = $1 AND user_id = $2`, id, userID).
		Scan(&l.ID, &l.UserID, &l.Name, &l.CategoryID, &l.Archived, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.ShoppingList{}, store.ErrNotFound
	}
	if err != nil {
		return core.ShoppingList{}, fmt.Errorf("get shopping list: %w", err)
	}
	return l, nil
}

func (s *Store) ListsForUser(ctx context.Context, userID int64, includeArchived bool) ([]core.ShoppingList, error) {
	query := `SELECT id, user_id, name, category_id, archived, created_at FROM shopping_lists WHERE user_id = $1`
	if !includeArchived {
		query += ` AND NOT archived`
	}
	query += ` ORDER BY id`

	rows, err := s.pool.Query(ctx, query, userID)
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
	tag, err := s.pool.Exec(ctx,
		`UPDATE shopping_lists SET name = $1, category_id = $2, archived = $3 WHERE id = $4 AND user_id = $5`,
		l.Name, l.CategoryID, l.Archived, l.ID, l.UserID)
	if err != nil {
		return fmt.Errorf("update shopping list: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteList(ctx context.Context, userID, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM shopping_lists WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete shopping list: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

const itemColumns = `id, list_id, name, quantity, estimated_price_cents, purchased, purchased_price_cents, expense_id, position, created_at`

func (s *Store) CreateItem(ctx context.Context, i *core.ShoppingItem) error {
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now().UTC()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO shopping_items (list_id, name, quantity, estimated_price_cents, purchased, purchased_price_cents, expense_id, position, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		i.ListID, i.Name, i.Quantity, i.EstimatedPrice.Cents, i.Purchased, i.PurchasedPrice.Cents,
		i.ExpenseID, i.Position, i.CreatedAt).Scan(&i.ID)
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return store.ErrNotFound
		}
		return fmt.Errorf("create shopping item: %w", err)
	}
	return nil
}

func (s *Store) ItemByID(ctx context.Context, userID, id int64) (core.ShoppingItem, error) {
	var i core.ShoppingItem
	err := s.pool.QueryRow(ctx,
		`SELECT i.id, i.list_id, i.name, i.quantity, i.estimated_price_cents, i.purchased, i.purchased_price_cents, i.expense_id, i.position, i.created_at
		 FROM shopping_items i
		 JOIN shopping_lists l ON l.id = i.list_id
		 WHERE i.id = $1 AND l.user_id = $2`, id, userID).
		Scan(&i.ID, &i.ListID, &i.Name, &i.Quantity, &i.EstimatedPrice.Cents,
			&i.Purchased, &i.PurchasedPrice.Cents, &i.ExpenseID, &i.Position, &i.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.ShoppingItem{}, store.ErrNotFound
	}
	if err != nil {
		return core.ShoppingItem{}, fmt.Errorf("get shopping item: %w", err)
	}
	return i, nil
}

func (s *Store) ItemsForList(ctx context.Context, listID int64) ([]core.ShoppingItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+itemColumns+` FROM shopping_items WHERE list_id = $1 ORDER BY position, id`, listID)
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
	tag, err := s.pool.Exec(ctx,
		`UPDATE shopping_items
		 SET name = $1, quantity = $2, estimated_price_cents = $3, purchased = $4, purchased_price_cents = $5, expense_id = $6, position = $7
		 WHERE id = $8`,
		i.Name, i.Quantity, i.EstimatedPrice.Cents, i.Purchased, i.PurchasedPrice.Cents, i.ExpenseID, i.Position, i.ID)
	if err != nil {
		return fmt.Errorf("update shopping item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteItem(ctx context.Context, userID, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM shopping_items
		 WHERE id = $1 AND list_id IN (SELECT id FROM shopping_lists WHERE user_id = $2)`,
		id, userID)
	if err != nil {
		return fmt.Errorf("delete shopping item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// --- notifications ---

func (s *Store) CreateNotification(ctx context.Context, n *core.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO notifications (user_id, kind, message, is_read, dedup_key, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		n.UserID, string(n.Kind), n.Message, n.Read, n.DedupKey, n.CreatedAt).Scan(&n.ID)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return store.ErrDuplicate
		}
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (s *Store) Notifications(ctx context.Context, userID int64, f store.NotificationFilter) ([]core.Notification, error) {
	query := `SELECT id, user_id, kind, message, is_read, dedup_key, created_at FROM notifications WHERE user_id = $1`
	args := []any{userID}
	if f.UnreadOnly {
		query += ` AND NOT is_read`
	}
	query += ` ORDER BY id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
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
	tag, err := s.pool.Exec(ctx,
		`UPDATE notifications SET is_read = true WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE notifications SET is_read = true WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) DeleteNotification(ctx context.Context, userID, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
