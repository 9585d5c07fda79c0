package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/storage"
	"fintrack/internal/validation"
)

// TransactionService orchestrates transaction operations.
type TransactionService struct {
	repo storage.TransactionRepository
}

func NewTransactionService(repo storage.TransactionRepository) *TransactionService {
	return &TransactionService{repo: repo}
}

func (s *TransactionService) List(ctx context.Context) ([]core.Transaction, error) {
	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	return txs, nil
}

func (s *TransactionService) Create(ctx context.Context, body []byte) (core.Transaction, error) {
	patch, err := validation.Transaction(body)
	if err != nil {
		return core.Transaction{}, err
	}

	t, err := s.repo.CreateTransaction(ctx, core.NewTransaction(patch))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction created",
		"transaction_id", t.ID,
		"budget_id", t.BudgetID,
		"type", t.Type)
	return t, nil
}

// Update merges the validated body over transaction id; a missing
// transaction wins over an invalid body.
func (s *TransactionService) Update(ctx context.Context, id int64, body []byte) (core.Transaction, error) {
	t, err := s.repo.UpdateTransaction(ctx, id, func(current core.Transaction) (core.Transaction, error) {
		patch, err := validation.Transaction(body)
		if err != nil {
			return current, err
		}
		return patch.Apply(current), nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	slog.InfoContext(ctx, "Transaction updated", "transaction_id", t.ID)
	return t, nil
}

func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Transaction deleted", "transaction_id", id)
	return nil
}

// Totals sums the transactions matching f.
func (s *TransactionService) Totals(ctx context.Context, f core.TransactionFilter) (core.TransactionTotals, error) {
	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return core.TransactionTotals{}, fmt.Errorf("list transactions: %w", err)
	}
	return core.Totals(txs, f), nil
}

// ParseFilter builds a filter from the type and q query parameters. An
// empty type or "all" selects both income and expense.
func ParseFilter(typ, q string) (core.TransactionFilter, error) {
	f := core.TransactionFilter{Search: q}
	switch typ {
	case "", "all":
	default:
		t := core.TransactionType(typ)
		if !t.IsValid() {
			return f, core.ValidationError("type", `"type" must be one of [all, income, expense]`)
		}
		f.Type = t
	}
	return f, nil
}
