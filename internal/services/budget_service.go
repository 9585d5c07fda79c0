// Package services holds the controllers behind the HTTP routes: they
// validate payloads, mutate the repositories and return entities or
// classified errors.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/storage"
	"fintrack/internal/validation"
)

// BudgetService orchestrates budget operations.
type BudgetService struct {
	repo storage.BudgetRepository
}

func NewBudgetService(repo storage.BudgetRepository) *BudgetService {
	return &BudgetService{repo: repo}
}

// List returns every budget in creation order.
func (s *BudgetService) List(ctx context.Context) ([]core.Budget, error) {
	budgets, err := s.repo.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	if budgets == nil {
		budgets = []core.Budget{}
	}
	return budgets, nil
}

// Create validates body and stores the resulting budget with defaults
// applied.
func (s *BudgetService) Create(ctx context.Context, body []byte) (core.Budget, error) {
	patch, err := validation.Budget(body)
	if err != nil {
		return core.Budget{}, err
	}

	b, err := s.repo.CreateBudget(ctx, core.NewBudget(patch))
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	slog.InfoContext(ctx, "Budget created", "budget_id", b.ID, "name", b.Name)
	return b, nil
}

// Update merges the validated body over budget id. A missing budget is
// reported before the body is validated.
func (s *BudgetService) Update(ctx context.Context, id int64, body []byte) (core.Budget, error) {
	b, err := s.repo.UpdateBudget(ctx, id, func(current core.Budget) (core.Budget, error) {
		patch, err := validation.Budget(body)
		if err != nil {
			return current, err
		}
		return patch.Apply(current), nil
	})
	if err != nil {
		return core.Budget{}, err
	}
	slog.InfoContext(ctx, "Budget updated", "budget_id", b.ID)
	return b, nil
}

func (s *BudgetService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteBudget(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Budget deleted", "budget_id", id)
	return nil
}

// Summary aggregates allocation and spending over all budgets.
func (s *BudgetService) Summary(ctx context.Context) (core.BudgetSummary, error) {
	budgets, err := s.repo.ListBudgets(ctx)
	if err != nil {
		return core.BudgetSummary{}, fmt.Errorf("list budgets: %w", err)
	}
	return core.SummarizeBudgets(budgets), nil
}

// Alerts lists the budgets currently past their notification threshold.
func (s *BudgetService) Alerts(ctx context.Context) ([]core.BudgetAlert, error) {
	budgets, err := s.repo.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return core.OverThresholdAlerts(budgets), nil
}
