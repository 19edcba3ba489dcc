// Package memory is the in-process Store used by tests and by
// DB_BACKEND=memory development runs. Data lives for the process only.
package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"budgetshop/internal/core"
	"budgetshop/internal/store"
)

type Store struct {
	mu sync.RWMutex

	users         map[int64]core.User
	emails        map[string]int64
	sessions      map[string]core.Session
	categories    map[int64]core.Category
	expenses      map[int64]core.Expense
	recurring     map[int64]core.RecurringExpense
	budgets       map[int64]core.Budget
	lists         map[int64]core.ShoppingList
	items         map[int64]core.ShoppingItem
	notifications map[int64]core.Notification
	dedup         map[string]int64

	userSeq  int64
	catSeq   int64
	expSeq   int64
	recSeq   int64
	budSeq   int64
	listSeq  int64
	itemSeq  int64
	notifSeq int64
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:         make(map[int64]core.User),
		emails:        make(map[string]int64),
		sessions:      make(map[string]core.Session),
		categories:    make(map[int64]core.Category),
		expenses:      make(map[int64]core.Expense),
		recurring:     make(map[int64]core.RecurringExpense),
		budgets:       make(map[int64]core.Budget),
		lists:         make(map[int64]core.ShoppingList),
		items:         make(map[int64]core.ShoppingItem),
		notifications: make(map[int64]core.Notification),
		dedup:         make(map[string]int64),
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func now() time.Time { return time.Now().UTC() }

// --- users ---

func (s *Store) CreateUser(_ context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := core.NormalizeEmail(u.Email)
	if _, taken := s.emails[email]; taken {
		return store.ErrEmailTaken
	}
	s.userSeq++
	u.ID = s.userSeq
	u.Email = email
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now()
	}
	s.users[u.ID] = *u
	s.emails[email] = u.ID
	return nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[core.NormalizeEmail(email)]
	if !ok {
		return core.User{}, store.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) UserByID(_ context.Context, id int64) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, store.ErrNotFound
	}
	return u, nil
}

// --- sessions ---

func (s *Store) CreateSession(_ context.Context, sess core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[sess.Token]; exists {
		return store.ErrDuplicate
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now()
	}
	s.sessions[sess.Token] = sess
	return nil
}

func (s *Store) SessionByToken(_ context.Context, token string) (core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[token]
	if !ok {
		return core.Session{}, store.ErrNotFound
	}
	return sess, nil
}

func (s *Store) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[token]; !ok {
		return store.ErrNotFound
	}
	delete(s.sessions, token)
	return nil
}

func (s *Store) DeleteExpiredSessions(_ context.Context, asOf time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for token, sess := range s.sessions {
		if sess.Expired(asOf) {
			delete(s.sessions, token)
			n++
		}
	}
	return n, nil
}

// --- categories ---

func (s *Store) CreateCategory(_ context.Context, c *core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.categoryNameTaken(c.UserID, c.Name, 0) {
		return store.ErrDuplicate
	}
	s.catSeq++
	c.ID = s.catSeq
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now()
	}
	s.categories[c.ID] = *c
	return nil
}

func (s *Store) categoryNameTaken(userID int64, name string, exceptID int64) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, existing := range s.categories {
		if existing.UserID == userID && existing.ID != exceptID && strings.ToLower(existing.Name) == lower {
			return true
		}
	}
	return false
}

func (s *Store) Categories(_ context.Context, userID int64) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Category
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) CategoryByID(_ context.Context, userID, id int64) (core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok || c.UserID != userID {
		return core.Category{}, store.ErrNotFound
	}
	return c, nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.categories[c.ID]
	if !ok || existing.UserID != c.UserID {
		return store.ErrNotFound
	}
	if s.categoryNameTaken(c.UserID, c.Name, c.ID) {
		return store.ErrDuplicate
	}
	c.CreatedAt = existing.CreatedAt
	s.categories[c.ID] = c
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok || c.UserID != userID {
		return store.ErrNotFound
	}
	for _, e := range s.expenses {
		if e.CategoryID == id && e.DeletedAt == nil {
			return store.ErrReferenced
		}
	}
	for _, r := range s.recurring {
		if r.CategoryID == id {
			return store.ErrReferenced
		}
	}
	for _, b := range s.budgets {
		if b.CategoryID == id {
			return store.ErrReferenced
		}
	}
	for _, l := range s.lists {
		if l.CategoryID == id {
			return store.ErrReferenced
		}
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) CountCategories(_ context.Context, userID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, c := range s.categories {
		if c.UserID == userID {
			n++
		}
	}
	return n, nil
}

// --- expenses ---

func (s *Store) CreateExpense(_ context.Context, e *core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expSeq++
	e.ID = s.expSeq
	if e.SyncState == "" {
		e.SyncState = core.SyncPending
	}
	if e.Version == 0 {
		e.Version = 1
	}
	ts := now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = ts
	}
	e.UpdatedAt = ts
	s.expenses[e.ID] = *e
	return nil
}

func (s *Store) ExpenseByID(_ context.Context, userID, id int64) (core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.expenses[id]
	if !ok || e.UserID != userID || e.DeletedAt != nil {
		return core.Expense{}, store.ErrNotFound
	}
	return e, nil
}

func (s *Store) Expenses(_ context.Context, userID int64, f store.ExpenseFilter) ([]core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if e.UserID != userID || e.DeletedAt != nil {
			continue
		}
		if f.Year != 0 && e.Date.Year() != f.Year {
			continue
		}
		if f.Month != 0 && e.Date.Month() != f.Month {
			continue
		}
		if f.CategoryID != 0 && e.CategoryID != f.CategoryID {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) UpdateExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.expenses[e.ID]
	if !ok || existing.UserID != e.UserID || existing.DeletedAt != nil {
		return store.ErrNotFound
	}
	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = now()
	e.Version = existing.Version + 1
	e.SyncState = core.SyncPending
	s.expenses[e.ID] = e
	return nil
}

func (s *Store) SoftDeleteExpense(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok || e.UserID != userID || e.DeletedAt != nil {
		return store.ErrNotFound
	}
	ts := now()
	e.DeletedAt = &ts
	e.UpdatedAt = ts
	s.expenses[id] = e
	return nil
}

func (s *Store) SpentBetween(_ context.Context, userID, categoryID int64, from, to core.Date) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for _, e := range s.expenses {
		if e.UserID != userID || e.DeletedAt != nil {
			continue
		}
		if categoryID != 0 && e.CategoryID != categoryID {
			continue
		}
		if e.Date.Before(from.Time) || e.Date.After(to.Time) {
			continue
		}
		total += e.Amount.Cents
	}
	return total, nil
}

func (s *Store) SumByCategory(_ context.Context, userID int64, from, to core.Date) ([]core.CategoryAmount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sums := make(map[int64]int64)
	for _, e := range s.expenses {
		if e.UserID != userID || e.DeletedAt != nil {
			continue
		}
		if e.Date.Before(from.Time) || e.Date.After(to.Time) {
			continue
		}
		sums[e.CategoryID] += e.Amount.Cents
	}
	out := make([]core.CategoryAmount, 0, len(sums))
	for catID, cents := range sums {
		ca := core.CategoryAmount{CategoryID: catID, Amount: core.Money{Cents: cents}}
		if c, ok := s.categories[catID]; ok {
			ca.Name = c.Name
			ca.Color = c.Color
		}
		out = append(out, ca)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) PendingSyncExpenses(_ context.Context, limit int) ([]core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if e.DeletedAt != nil {
			continue
		}
		if e.SyncState == core.SyncPending || e.SyncState == core.SyncError {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkSynced(_ context.Context, id int64) error {
	return s.setSyncState(id, core.SyncDone)
}

func (s *Store) MarkSyncError(_ context.Context, id int64) error {
	return s.setSyncState(id, core.SyncError)
}

func (s *Store) setSyncState(id int64, state core.SyncState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok {
		return store.ErrNotFound
	}
	e.SyncState = state
	s.expenses[id] = e
	return nil
}

// --- recurring ---

func (s *Store) CreateRecurring(_ context.Context, r *core.RecurringExpense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recSeq++
	r.ID = s.recSeq
	s.recurring[r.ID] = *r
	return nil
}

func (s *Store) RecurringByID(_ context.Context, userID, id int64) (core.RecurringExpense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.recurring[id]
	if !ok || r.UserID != userID {
		return core.RecurringExpense{}, store.ErrNotFound
	}
	return r, nil
}

func (s *Store) RecurringForUser(_ context.Context, userID int64) ([]core.RecurringExpense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.RecurringExpense
	for _, r := range s.recurring {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ActiveRecurring(_ context.Context) ([]core.RecurringExpense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.RecurringExpense
	for _, r := range s.recurring {
		if r.Active {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateRecurring(_ context.Context, r core.RecurringExpense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.recurring[r.ID]
	if !ok || existing.UserID != r.UserID {
		return store.ErrNotFound
	}
	s.recurring[r.ID] = r
	return nil
}

func (s *Store) DeleteRecurring(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recurring[id]
	if !ok || r.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.recurring, id)
	return nil
}

// --- budgets ---

func (s *Store) CreateBudget(_ context.Context, b *core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.Active && s.activeBudgetExists(b.UserID, b.CategoryID, b.Period, 0) {
		return store.ErrDuplicate
	}
	s.budSeq++
	b.ID = s.budSeq
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now()
	}
	s.budgets[b.ID] = *b
	return nil
}

func (s *Store) activeBudgetExists(userID, categoryID int64, period core.BudgetPeriod, exceptID int64) bool {
	for _, b := range s.budgets {
		if b.UserID == userID && b.CategoryID == categoryID && b.Period == period && b.Active && b.ID != exceptID {
			return true
		}
	}
	return false
}

func (s *Store) BudgetByID(_ context.Context, userID, id int64) (core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return core.Budget{}, store.ErrNotFound
	}
	return b, nil
}

func (s *Store) BudgetsForUser(_ context.Context, userID int64, activeOnly bool) ([]core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if b.UserID != userID {
			continue
		}
		if activeOnly && !b.Active {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ExpiredActiveBudgets(_ context.Context, asOf core.Date) ([]core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if b.Active && b.EndDate.Before(asOf.Time) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateBudget(_ context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.budgets[b.ID]
	if !ok || existing.UserID != b.UserID {
		return store.ErrNotFound
	}
	if b.Active && s.activeBudgetExists(b.UserID, b.CategoryID, b.Period, b.ID) {
		return store.ErrDuplicate
	}
	b.CreatedAt = existing.CreatedAt
	s.budgets[b.ID] = b
	return nil
}

func (s *Store) DeleteBudget(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.budgets, id)
	return nil
}

// --- shopping ---

func (s *Store) CreateList(_ context.Context, l *core.ShoppingList) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listSeq++
	l.ID = s.listSeq
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now()
	}
	s.lists[l.ID] = *l
	return nil
}

func (s *Store) ListByID(_ context.Context, userID, id int64) (core.ShoppingList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lists[id]
	if !ok || l.UserID != userID {
		return core.ShoppingList{}, store.ErrNotFound
	}
	return l, nil
}

func (s *Store) ListsForUser(_ context.Context, userID int64, includeArchived bool) ([]core.ShoppingList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.ShoppingList
	for _, l := range s.lists {
		if l.UserID != userID {
			continue
		}
		if !includeArchived && l.Archived {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateList(_ context.Context, l core.ShoppingList) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.lists[l.ID]
	if !ok || existing.UserID != l.UserID {
		return store.ErrNotFound
	}
	l.CreatedAt = existing.CreatedAt
	s.lists[l.ID] = l
	return nil
}

func (s *Store) DeleteList(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lists[id]
	if !ok || l.UserID != userID {
		return store.ErrNotFound
	}
	for itemID, item := range s.items {
		if item.ListID == id {
			delete(s.items, itemID)
		}
	}
	delete(s.lists, id)
	return nil
}

func (s *Store) CreateItem(_ context.Context, i *core.ShoppingItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lists[i.ListID]; !ok {
		return store.ErrNotFound
	}
	s.itemSeq++
	i.ID = s.itemSeq
	if i.CreatedAt.IsZero() {
		i.CreatedAt = now()
	}
	s.items[i.ID] = *i
	return nil
}

func (s *Store) ItemByID(_ context.Context, userID, id int64) (core.ShoppingItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.items[id]
	if !ok {
		return core.ShoppingItem{}, store.ErrNotFound
	}
	l, ok := s.lists[i.ListID]
	if !ok || l.UserID != userID {
		return core.ShoppingItem{}, store.ErrNotFound
	}
	return i, nil
}

func (s *Store) ItemsForList(_ context.Context, listID int64) ([]core.ShoppingItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.ShoppingItem
	for _, i := range s.items {
		if i.ListID == listID {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) UpdateItem(_ context.Context, i core.ShoppingItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.items[i.ID]
	if !ok {
		return store.ErrNotFound
	}
	i.ListID = existing.ListID
	i.CreatedAt = existing.CreatedAt
	s.items[i.ID] = i
	return nil
}

func (s *Store) DeleteItem(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.items[id]
	if !ok {
		return store.ErrNotFound
	}
	l, ok := s.lists[i.ListID]
	if !ok || l.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// --- notifications ---

func (s *Store) CreateNotification(_ context.Context, n *core.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.DedupKey != "" {
		key := strconv.FormatInt(n.UserID, 10) + ":" + n.DedupKey
		if _, seen := s.dedup[key]; seen {
			return store.ErrDuplicate
		}
		s.dedup[key] = n.UserID
	}
	s.notifSeq++
	n.ID = s.notifSeq
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now()
	}
	s.notifications[n.ID] = *n
	return nil
}

func (s *Store) Notifications(_ context.Context, userID int64, f store.NotificationFilter) ([]core.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Notification
	for _, n := range s.notifications {
		if n.UserID != userID {
			continue
		}
		if f.UnreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) MarkRead(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return store.ErrNotFound
	}
	n.Read = true
	s.notifications[id] = n
	return nil
}

func (s *Store) MarkAllRead(_ context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, notif := range s.notifications {
		if notif.UserID == userID && !notif.Read {
			notif.Read = true
			s.notifications[id] = notif
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteNotification(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.notifications, id)
	return nil
}
