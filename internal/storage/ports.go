package storage

import (
	"context"

	"fintrack/internal/core"
)

// Ports implemented by every storage backend. Each repository owns its
// collection and its id counter; ids are assigned on create, strictly
// increasing and never reused.
type (
	BudgetRepository interface {
		// ListBudgets returns all budgets in creation order.
		ListBudgets(ctx context.Context) ([]core.Budget, error)
		GetBudget(ctx context.Context, id int64) (core.Budget, error)
		// CreateBudget stores b under the next id and returns the stored record.
		CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		// UpdateBudget atomically replaces the budget with fn's result. It
		// returns a not-found error without calling fn when id is unknown;
		// an error from fn aborts the update and is returned unchanged.
		UpdateBudget(ctx context.Context, id int64, fn func(core.Budget) (core.Budget, error)) (core.Budget, error)
		DeleteBudget(ctx context.Context, id int64) error
	}

	TransactionRepository interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, id int64, fn func(core.Transaction) (core.Transaction, error)) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id int64) error
	}

	UserRepository interface {
		ListUsers(ctx context.Context) ([]core.User, error)
		GetUser(ctx context.Context, id int64) (core.User, error)
		// FindUserByEmail looks a user up by normalized email.
		FindUserByEmail(ctx context.Context, email string) (core.User, error)
		// CreateUser stores u, or returns a conflict error when the email is
		// already registered. The check and the insert are atomic.
		CreateUser(ctx context.Context, u core.User) (core.User, error)
	}

	// Store bundles the repositories of one backend.
	Store interface {
		BudgetRepository
		TransactionRepository
		UserRepository
		Ping(ctx context.Context) error
		Close() error
	}
)

// Entity names used in not-found messages.
const (
	EntityBudget      = "Budget"
	EntityTransaction = "Transaction"
	EntityUser        = "User"
)

// ErrEmailTaken is the conflict returned for a duplicate signup.
var ErrEmailTaken = core.ConflictError("Email already registered")
