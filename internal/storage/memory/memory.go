// Package memory is the default storage backend: ordered in-process
// collections that live as long as the process.
package memory

import (
	"context"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// table is an insertion-ordered collection with its own id counter. All
// access goes through its mutex.
type table[T any] struct {
	mu     sync.RWMutex
	entity string
	lastID int64
	rows   []T
	id     func(T) int64
	setID  func(*T, int64)
}

func (t *table[T]) list() []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, len(t.rows))
	copy(out, t.rows)
	return out
}

func (t *table[T]) indexOf(id int64) int {
	for i, row := range t.rows {
		if t.id(row) == id {
			return i
		}
	}
	return -1
}

func (t *table[T]) get(id int64) (T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if i := t.indexOf(id); i >= 0 {
		return t.rows[i], nil
	}
	var zero T
	return zero, core.NotFoundError(t.entity)
}

func (t *table[T]) insertLocked(row T) T {
	t.lastID++
	t.setID(&row, t.lastID)
	t.rows = append(t.rows, row)
	return row
}

func (t *table[T]) insert(row T) T {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.insertLocked(row)
}

func (t *table[T]) update(id int64, fn func(T) (T, error)) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var zero T
	i := t.indexOf(id)
	if i < 0 {
		return zero, core.NotFoundError(t.entity)
	}
	updated, err := fn(t.rows[i])
	if err != nil {
		return zero, err
	}
	t.setID(&updated, id)
	t.rows[i] = updated
	return updated, nil
}

func (t *table[T]) remove(id int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.indexOf(id)
	if i < 0 {
		return core.NotFoundError(t.entity)
	}
	t.rows = append(t.rows[:i], t.rows[i+1:]...)
	return nil
}

// Store holds the budget, transaction and user collections.
type Store struct {
	budgets      table[core.Budget]
	transactions table[core.Transaction]
	users        table[core.User]
	now          func() time.Time
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		budgets: table[core.Budget]{
			entity: storage.EntityBudget,
			id:     func(b core.Budget) int64 { return b.ID },
			setID:  func(b *core.Budget, id int64) { b.ID = id },
		},
		transactions: table[core.Transaction]{
			entity: storage.EntityTransaction,
			id:     func(t core.Transaction) int64 { return t.ID },
			setID:  func(t *core.Transaction, id int64) { t.ID = id },
		},
		users: table[core.User]{
			entity: storage.EntityUser,
			id:     func(u core.User) int64 { return u.ID },
			setID:  func(u *core.User, id int64) { u.ID = id },
		},
		now: time.Now,
	}
}

func (s *Store) ListBudgets(_ context.Context) ([]core.Budget, error) {
	return s.budgets.list(), nil
}

func (s *Store) GetBudget(_ context.Context, id int64) (core.Budget, error) {
	return s.budgets.get(id)
}

func (s *Store) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	return s.budgets.insert(b), nil
}

func (s *Store) UpdateBudget(_ context.Context, id int64, fn func(core.Budget) (core.Budget, error)) (core.Budget, error) {
	return s.budgets.update(id, fn)
}

func (s *Store) DeleteBudget(_ context.Context, id int64) error {
	return s.budgets.remove(id)
}

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	return s.transactions.list(), nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	return s.transactions.get(id)
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	return s.transactions.insert(t), nil
}

func (s *Store) UpdateTransaction(_ context.Context, id int64, fn func(core.Transaction) (core.Transaction, error)) (core.Transaction, error) {
	return s.transactions.update(id, fn)
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	return s.transactions.remove(id)
}

func (s *Store) ListUsers(_ context.Context) ([]core.User, error) {
	return s.users.list(), nil
}

func (s *Store) GetUser(_ context.Context, id int64) (core.User, error) {
	return s.users.get(id)
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (core.User, error) {
	s.users.mu.RLock()
	defer s.users.mu.RUnlock()
	for _, u := range s.users.rows {
		if u.Email == email {
			return u, nil
		}
	}
	return core.User{}, core.NotFoundError(storage.EntityUser)
}

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.users.mu.Lock()
	defer s.users.mu.Unlock()
	for _, existing := range s.users.rows {
		if existing.Email == u.Email {
			return core.User{}, storage.ErrEmailTaken
		}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now().UTC()
	}
	return s.users.insertLocked(u), nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
