package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"fintrack/internal/core"
)

// DefaultSQLiteDSN is a process-lifetime shared in-memory database.
const DefaultSQLiteDSN = "file:fintrack?mode=memory&cache=shared"

const timeLayout = time.RFC3339Nano

// SQLiteRepository implements Store on top of modernc.org/sqlite. The pool
// is limited to one connection so every operation is serialized, and the
// connection is never recycled so an in-memory database survives.
type SQLiteRepository struct {
	db *sql.DB
}

var _ Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dsn string) (*SQLiteRepository, error) {
	if dsn == "" {
		dsn = DefaultSQLiteDSN
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t.UTC(), nil
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Budgets

const budgetColumns = `id, name, category, sub_category, allocated, spent, period, start_date,
	end_date, rollover, priority, notify_threshold, notify_frequency`

func scanBudget(s scanner) (core.Budget, error) {
	var (
		b                       core.Budget
		allocated, spent, start string
		end                     sql.NullString
		period, priority, freq  string
	)
	if err := s.Scan(&b.ID, &b.Name, &b.Category, &b.SubCategory, &allocated, &spent, &period,
		&start, &end, &b.Rollover, &priority, &b.Notifications.Threshold, &freq); err != nil {
		return core.Budget{}, err
	}
	var err error
	if b.Allocated, err = decimal.NewFromString(allocated); err != nil {
		return core.Budget{}, fmt.Errorf("parse allocated: %w", err)
	}
	if b.Spent, err = decimal.NewFromString(spent); err != nil {
		return core.Budget{}, fmt.Errorf("parse spent: %w", err)
	}
	if b.StartDate, err = parseTime(start); err != nil {
		return core.Budget{}, err
	}
	if end.Valid {
		t, err := parseTime(end.String)
		if err != nil {
			return core.Budget{}, err
		}
		b.EndDate = &t
	}
	b.Period = core.Period(period)
	b.Priority = core.Priority(priority)
	b.Notifications.Frequency = core.Frequency(freq)
	return b, nil
}

func budgetArgs(b core.Budget) []any {
	var end sql.NullString
	if b.EndDate != nil {
		end = sql.NullString{String: formatTime(*b.EndDate), Valid: true}
	}
	return []any{
		b.Name, b.Category, b.SubCategory, b.Allocated.String(), b.Spent.String(),
		string(b.Period), formatTime(b.StartDate), end, b.Rollover, string(b.Priority),
		b.Notifications.Threshold, string(b.Notifications.Frequency),
	}
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+budgetColumns+` FROM budgets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	budgets := make([]core.Budget, 0)
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func getBudget(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}, id int64) (core.Budget, error) {
	b, err := scanBudget(q.QueryRowContext(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.NotFoundError(EntityBudget)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget %d: %w", id, err)
	}
	return b, nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	return getBudget(ctx, r.db, id)
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO budgets (name, category, sub_category, allocated, spent,
		period, start_date, end_date, rollover, priority, notify_threshold, notify_frequency)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, budgetArgs(b)...)
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget id: %w", err)
	}
	b.ID = id
	slog.DebugContext(ctx, "Budget saved to SQLite", "id", id, "name", b.Name)
	return b, nil
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, id int64, fn func(core.Budget) (core.Budget, error)) (core.Budget, error) {
	var updated core.Budget
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := getBudget(ctx, tx, id)
		if err != nil {
			return err
		}
		if updated, err = fn(existing); err != nil {
			return err
		}
		updated.ID = id
		args := append(budgetArgs(updated), id)
		if _, err := tx.ExecContext(ctx, `UPDATE budgets SET name = ?, category = ?, sub_category = ?,
			allocated = ?, spent = ?, period = ?, start_date = ?, end_date = ?, rollover = ?,
			priority = ?, notify_threshold = ?, notify_frequency = ? WHERE id = ?`, args...); err != nil {
			return fmt.Errorf("update budget %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return core.Budget{}, err
	}
	return updated, nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "budgets", EntityBudget, id)
}

func (r *SQLiteRepository) deleteByID(ctx context.Context, table, entity string, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", table, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", table, id, err)
	}
	if n == 0 {
		return core.NotFoundError(entity)
	}
	return nil
}

// Transactions

const transactionColumns = `id, budget_id, amount, type, category, sub_category, date, description`

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t            core.Transaction
		amount, date string
		typ          string
	)
	if err := s.Scan(&t.ID, &t.BudgetID, &amount, &typ, &t.Category, &t.SubCategory, &date, &t.Description); err != nil {
		return core.Transaction{}, err
	}
	var err error
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount: %w", err)
	}
	if t.Date, err = parseTime(date); err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(typ)
	return t, nil
}

func transactionArgs(t core.Transaction) []any {
	return []any{
		t.BudgetID, t.Amount.String(), string(t.Type), t.Category, t.SubCategory,
		formatTime(t.Date), t.Description,
	}
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+transactionColumns+` FROM transactions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]core.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func getTransaction(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}, id int64) (core.Transaction, error) {
	t, err := scanTransaction(q.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.NotFoundError(EntityTransaction)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return t, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	return getTransaction(ctx, r.db, id)
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO transactions (budget_id, amount, type, category,
		sub_category, date, description) VALUES (?, ?, ?, ?, ?, ?, ?)`, transactionArgs(t)...)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction id: %w", err)
	}
	t.ID = id
	slog.DebugContext(ctx, "Transaction saved to SQLite", "id", id, "type", t.Type)
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id int64, fn func(core.Transaction) (core.Transaction, error)) (core.Transaction, error) {
	var updated core.Transaction
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := getTransaction(ctx, tx, id)
		if err != nil {
			return err
		}
		if updated, err = fn(existing); err != nil {
			return err
		}
		updated.ID = id
		args := append(transactionArgs(updated), id)
		if _, err := tx.ExecContext(ctx, `UPDATE transactions SET budget_id = ?, amount = ?, type = ?,
			category = ?, sub_category = ?, date = ?, description = ? WHERE id = ?`, args...); err != nil {
			return fmt.Errorf("update transaction %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return updated, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "transactions", EntityTransaction, id)
}

// Users

const userColumns = `id, email, password_hash, first_name, last_name, created_at`

func scanUser(s scanner) (core.User, error) {
	var (
		u       core.User
		created string
	)
	if err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &created); err != nil {
		return core.User{}, err
	}
	var err error
	if u.CreatedAt, err = parseTime(created); err != nil {
		return core.User{}, err
	}
	return u, nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]core.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *SQLiteRepository) findUser(ctx context.Context, where string, arg any) (core.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.NotFoundError(EntityUser)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (core.User, error) {
	return r.findUser(ctx, "id = ?", id)
}

func (r *SQLiteRepository) FindUserByEmail(ctx context.Context, email string) (core.User, error) {
	return r.findUser(ctx, "email = ?", email)
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO users (email, password_hash, first_name, last_name, created_at)
		VALUES (?, ?, ?, ?, ?)`, u.Email, u.PasswordHash, u.FirstName, u.LastName, formatTime(u.CreatedAt))
	if isUniqueViolation(err) {
		return core.User{}, ErrEmailTaken
	}
	if err != nil {
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("user id: %w", err)
	}
	u.ID = id
	return u, nil
}

func isUniqueViolation(err error) bool {
	var se *msqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
