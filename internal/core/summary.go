package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// BudgetSummary aggregates allocation and spending across budgets.
type BudgetSummary struct {
	TotalAllocated decimal.Decimal `json:"totalAllocated"`
	TotalSpent     decimal.Decimal `json:"totalSpent"`
	Remaining      decimal.Decimal `json:"remaining"`
	Overspent      decimal.Decimal `json:"overspent"`
}

// SummarizeBudgets computes the budget summary. Remaining and overspent are
// accumulated per budget so that one overspent budget does not eat into
// another's remaining allocation.
func SummarizeBudgets(budgets []Budget) BudgetSummary {
	s := BudgetSummary{
		TotalAllocated: decimal.Zero,
		TotalSpent:     decimal.Zero,
		Remaining:      decimal.Zero,
		Overspent:      decimal.Zero,
	}
	for _, b := range budgets {
		s.TotalAllocated = s.TotalAllocated.Add(b.Allocated)
		s.TotalSpent = s.TotalSpent.Add(b.Spent)
		diff := b.Allocated.Sub(b.Spent)
		if diff.IsPositive() {
			s.Remaining = s.Remaining.Add(diff)
		} else {
			s.Overspent = s.Overspent.Sub(diff)
		}
	}
	return s
}

// Progress returns spent/allocated×100. A budget with nothing allocated has
// zero progress until something is spent, and is then considered fully
// consumed.
func (b Budget) Progress() decimal.Decimal {
	if !b.Allocated.IsPositive() {
		if b.Spent.IsPositive() {
			return hundred
		}
		return decimal.Zero
	}
	return b.Spent.Div(b.Allocated).Mul(hundred)
}

// DisplayProgress is Progress clamped at 100 for progress bars.
func (b Budget) DisplayProgress() decimal.Decimal {
	p := b.Progress()
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}

// OverThreshold reports whether progress strictly exceeds the configured
// notification threshold.
func (b Budget) OverThreshold() bool {
	threshold := b.Notifications.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	return b.Progress().GreaterThan(decimal.NewFromFloat(threshold))
}

// BudgetAlert describes a budget past its notification threshold.
type BudgetAlert struct {
	BudgetID        int64           `json:"budgetId"`
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	Priority        Priority        `json:"priority"`
	Threshold       float64         `json:"threshold"`
	Frequency       Frequency       `json:"frequency"`
	Allocated       decimal.Decimal `json:"allocated"`
	Spent           decimal.Decimal `json:"spent"`
	Progress        decimal.Decimal `json:"progress"`
	DisplayProgress decimal.Decimal `json:"displayProgress"`
}

// AlertFor builds the alert record for b regardless of its threshold state.
func AlertFor(b Budget) BudgetAlert {
	return BudgetAlert{
		BudgetID:        b.ID,
		Name:            b.Name,
		Category:        b.Category,
		Priority:        b.Priority,
		Threshold:       b.Notifications.Threshold,
		Frequency:       b.Notifications.Frequency,
		Allocated:       b.Allocated,
		Spent:           b.Spent,
		Progress:        b.Progress().Round(2),
		DisplayProgress: b.DisplayProgress().Round(2),
	}
}

// OverThresholdAlerts returns alerts for every budget past its threshold, in
// input order.
func OverThresholdAlerts(budgets []Budget) []BudgetAlert {
	alerts := make([]BudgetAlert, 0)
	for _, b := range budgets {
		if b.OverThreshold() {
			alerts = append(alerts, AlertFor(b))
		}
	}
	return alerts
}

// TransactionFilter narrows transactions the way the transactions page does:
// by type and by a case-insensitive search over description and subcategory.
type TransactionFilter struct {
	Type   TransactionType // empty means all
	Search string
}

func (f TransactionFilter) Matches(t Transaction) bool {
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Description), q) ||
		strings.Contains(strings.ToLower(t.SubCategory), q)
}

// TransactionTotals sums income and expense over a filtered set.
type TransactionTotals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
	Count   int             `json:"count"`
}

func Totals(transactions []Transaction, f TransactionFilter) TransactionTotals {
	tt := TransactionTotals{Income: decimal.Zero, Expense: decimal.Zero}
	for _, t := range transactions {
		if !f.Matches(t) {
			continue
		}
		tt.Count++
		switch t.Type {
		case Income:
			tt.Income = tt.Income.Add(t.Amount)
		case Expense:
			tt.Expense = tt.Expense.Add(t.Amount)
		}
	}
	tt.Net = tt.Income.Sub(tt.Expense)
	return tt
}
