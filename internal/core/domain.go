package core

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	Weekly    Period = "weekly"
	BiWeekly  Period = "bi-weekly"
	Monthly   Period = "monthly"
	Quarterly Period = "quarterly"
	Yearly    Period = "yearly"
)

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiWeekly Frequency = "bi-weekly"
	FrequencyMonthly  Frequency = "monthly"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// Notification defaults applied when a budget is created without them.
const (
	DefaultThreshold = 80
	MinThreshold     = 50
	MaxThreshold     = 100
)

type (
	// Period is the budgeting cycle of a Budget.
	Period string

	// Priority ranks budgets for display and alert routing.
	Priority string

	// Frequency controls how often threshold alerts are sent for a budget.
	Frequency string

	TransactionType string

	Notifications struct {
		Threshold float64   `json:"threshold"`
		Frequency Frequency `json:"frequency"`
	}

	Budget struct {
		ID            int64           `json:"id"`
		Name          string          `json:"name"`
		Category      string          `json:"category"`
		SubCategory   string          `json:"subCategory"`
		Allocated     decimal.Decimal `json:"allocated"`
		Spent         decimal.Decimal `json:"spent"`
		Period        Period          `json:"period"`
		StartDate     time.Time       `json:"startDate"`
		EndDate       *time.Time      `json:"endDate"`
		Rollover      bool            `json:"rollover"`
		Priority      Priority        `json:"priority"`
		Notifications Notifications   `json:"notifications"`
	}

	Transaction struct {
		ID          int64           `json:"id"`
		BudgetID    int64           `json:"budgetId"`
		Amount      decimal.Decimal `json:"amount"`
		Type        TransactionType `json:"type"`
		Category    string          `json:"category"`
		SubCategory string          `json:"subCategory"`
		Date        time.Time       `json:"date"`
		Description string          `json:"description"`
	}

	// User is a registered account. PasswordHash never leaves the process.
	User struct {
		ID           int64     `json:"id"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		FirstName    string    `json:"firstName"`
		LastName     string    `json:"lastName"`
		CreatedAt    time.Time `json:"createdAt"`
	}

	// Profile is the public view of a User.
	Profile struct {
		ID        int64  `json:"id"`
		Email     string `json:"email"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
)

func init() {
	// Amounts are plain JSON numbers on the wire.
	decimal.MarshalJSONWithoutQuotes = true
}

// Periods lists the accepted budget periods in display order.
func Periods() []Period {
	return []Period{Weekly, BiWeekly, Monthly, Quarterly, Yearly}
}

func (p Period) IsValid() bool {
	switch p {
	case Weekly, BiWeekly, Monthly, Quarterly, Yearly:
		return true
	}
	return false
}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiWeekly, FrequencyMonthly:
		return true
	}
	return false
}

func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

// DefaultNotifications returns the notification settings of a new budget.
func DefaultNotifications() Notifications {
	return Notifications{Threshold: DefaultThreshold, Frequency: FrequencyWeekly}
}

// Profile returns the public fields of the user.
func (u User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}
