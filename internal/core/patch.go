package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetPatch is a validated set of budget fields. Nil fields leave the
// target untouched when applied.
type BudgetPatch struct {
	Name        *string
	Category    *string
	SubCategory *string
	Allocated   *decimal.Decimal
	Spent       *decimal.Decimal
	Period      *Period
	StartDate   *time.Time
	// EndDateSet distinguishes an explicit null (clear) from an absent key.
	EndDateSet bool
	EndDate    *time.Time
	Rollover   *bool
	Priority   *Priority
	Threshold  *float64
	Frequency  *Frequency
}

// TransactionPatch is a validated set of transaction fields.
type TransactionPatch struct {
	BudgetID    *int64
	Amount      *decimal.Decimal
	Type        *TransactionType
	Category    *string
	SubCategory *string
	Date        *time.Time
	Description *string
}

// NewBudget builds a budget from the patch on top of the creation defaults.
// The identifier is left for the store to assign.
func NewBudget(p BudgetPatch) Budget {
	return p.Apply(Budget{
		Spent:         decimal.Zero,
		Priority:      PriorityMedium,
		Notifications: DefaultNotifications(),
	})
}

// Apply merges the patch over b and returns the result. b is not modified
// and its ID is preserved.
func (p BudgetPatch) Apply(b Budget) Budget {
	if p.Name != nil {
		b.Name = *p.Name
	}
	if p.Category != nil {
		b.Category = *p.Category
	}
	if p.SubCategory != nil {
		b.SubCategory = *p.SubCategory
	}
	if p.Allocated != nil {
		b.Allocated = *p.Allocated
	}
	if p.Spent != nil {
		b.Spent = *p.Spent
	}
	if p.Period != nil {
		b.Period = *p.Period
	}
	if p.StartDate != nil {
		b.StartDate = *p.StartDate
	}
	if p.EndDateSet {
		if p.EndDate == nil {
			b.EndDate = nil
		} else {
			end := *p.EndDate
			b.EndDate = &end
		}
	} else if b.EndDate != nil {
		end := *b.EndDate
		b.EndDate = &end
	}
	if p.Rollover != nil {
		b.Rollover = *p.Rollover
	}
	if p.Priority != nil {
		b.Priority = *p.Priority
	}
	if p.Threshold != nil {
		b.Notifications.Threshold = *p.Threshold
	}
	if p.Frequency != nil {
		b.Notifications.Frequency = *p.Frequency
	}
	return b
}

// NewTransaction builds a transaction from the patch with an empty
// description by default.
func NewTransaction(p TransactionPatch) Transaction {
	return p.Apply(Transaction{Amount: decimal.Zero})
}

// Apply merges the patch over t, preserving its ID.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.BudgetID != nil {
		t.BudgetID = *p.BudgetID
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.SubCategory != nil {
		t.SubCategory = *p.SubCategory
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	return t
}
