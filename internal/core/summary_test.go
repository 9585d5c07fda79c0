package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func budget(allocated, spent int64, threshold float64) Budget {
	return Budget{
		Allocated:     decimal.NewFromInt(allocated),
		Spent:         decimal.NewFromInt(spent),
		Notifications: Notifications{Threshold: threshold, Frequency: FrequencyWeekly},
	}
}

func TestSummarizeBudgets(t *testing.T) {
	tests := []struct {
		name      string
		budgets   []Budget
		allocated string
		spent     string
		remaining string
		overspent string
	}{
		{
			name:      "empty",
			allocated: "0", spent: "0", remaining: "0", overspent: "0",
		},
		{
			name:      "one overspent one under",
			budgets:   []Budget{budget(100, 120, 80), budget(50, 10, 80)},
			allocated: "150", spent: "130", remaining: "40", overspent: "20",
		},
		{
			name:      "exactly spent",
			budgets:   []Budget{budget(75, 75, 80)},
			allocated: "75", spent: "75", remaining: "0", overspent: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := SummarizeBudgets(tt.budgets)
			check := func(field string, got decimal.Decimal, want string) {
				if !got.Equal(decimal.RequireFromString(want)) {
					t.Errorf("%s = %s, want %s", field, got, want)
				}
			}
			check("TotalAllocated", s.TotalAllocated, tt.allocated)
			check("TotalSpent", s.TotalSpent, tt.spent)
			check("Remaining", s.Remaining, tt.remaining)
			check("Overspent", s.Overspent, tt.overspent)
		})
	}
}

func TestBudget_Progress(t *testing.T) {
	tests := []struct {
		name    string
		b       Budget
		raw     string
		display string
	}{
		{"half", budget(200, 100, 80), "50", "50"},
		{"over", budget(100, 120, 80), "120", "100"},
		{"nothing allocated nothing spent", budget(0, 0, 80), "0", "0"},
		{"nothing allocated something spent", budget(0, 5, 80), "100", "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.b.Progress(); !got.Equal(decimal.RequireFromString(tt.raw)) {
				t.Errorf("Progress() = %s, want %s", got, tt.raw)
			}
			if got := tt.b.DisplayProgress(); !got.Equal(decimal.RequireFromString(tt.display)) {
				t.Errorf("DisplayProgress() = %s, want %s", got, tt.display)
			}
		})
	}
}

func TestOverThresholdAlerts(t *testing.T) {
	over := budget(100, 85, 80)
	over.ID = 1
	under := budget(100, 75, 80)
	under.ID = 2
	exact := budget(100, 80, 80)
	exact.ID = 3
	custom := budget(100, 60, 50)
	custom.ID = 4

	alerts := OverThresholdAlerts([]Budget{over, under, exact, custom})
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d: %+v", len(alerts), alerts)
	}
	if alerts[0].BudgetID != 1 || alerts[1].BudgetID != 4 {
		t.Errorf("unexpected alert ids: %d, %d", alerts[0].BudgetID, alerts[1].BudgetID)
	}
	if !alerts[0].Progress.Equal(decimal.NewFromInt(85)) {
		t.Errorf("progress = %s, want 85", alerts[0].Progress)
	}
}

func TestOverThresholdAlerts_EmptyIsNotNil(t *testing.T) {
	alerts := OverThresholdAlerts(nil)
	if alerts == nil {
		t.Fatal("expected empty slice, got nil")
	}
}

func TestTotals(t *testing.T) {
	txs := []Transaction{
		{ID: 1, Type: Income, Amount: decimal.NewFromInt(1000), SubCategory: "Salary", Description: "October pay"},
		{ID: 2, Type: Expense, Amount: decimal.NewFromInt(40), SubCategory: "Groceries", Description: "Weekly shop"},
		{ID: 3, Type: Expense, Amount: decimal.RequireFromString("12.5"), SubCategory: "Coffee", Description: "Beans"},
		{ID: 4, Type: Income, Amount: decimal.NewFromInt(50), SubCategory: "Refund", Description: "Groceries refund"},
	}

	tests := []struct {
		name    string
		filter  TransactionFilter
		income  string
		expense string
		net     string
		count   int
	}{
		{"all", TransactionFilter{}, "1050", "52.5", "997.5", 4},
		{"expenses only", TransactionFilter{Type: Expense}, "0", "52.5", "-52.5", 2},
		{"search is case insensitive", TransactionFilter{Search: "GROCER"}, "50", "40", "10", 2},
		{"search and type", TransactionFilter{Type: Income, Search: "groceries"}, "50", "0", "50", 1},
		{"no match", TransactionFilter{Search: "rent"}, "0", "0", "0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Totals(txs, tt.filter)
			if !got.Income.Equal(decimal.RequireFromString(tt.income)) {
				t.Errorf("Income = %s, want %s", got.Income, tt.income)
			}
			if !got.Expense.Equal(decimal.RequireFromString(tt.expense)) {
				t.Errorf("Expense = %s, want %s", got.Expense, tt.expense)
			}
			if !got.Net.Equal(decimal.RequireFromString(tt.net)) {
				t.Errorf("Net = %s, want %s", got.Net, tt.net)
			}
			if got.Count != tt.count {
				t.Errorf("Count = %d, want %d", got.Count, tt.count)
			}
		})
	}
}
