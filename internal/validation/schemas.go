package validation

import (
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// maxSafeInteger is the largest id a JSON client can represent exactly.
var maxSafeInteger = decimal.NewFromInt(1<<53 - 1)

type notificationsPayload struct {
	Threshold Number          `json:"threshold" validate:"omitempty,gte=50,lte=100"`
	Frequency *core.Frequency `json:"frequency" validate:"omitempty,oneof=daily weekly bi-weekly monthly"`
}

type budgetPayload struct {
	Name          *string               `json:"name" validate:"required,min=1"`
	Category      *string               `json:"category" validate:"required,min=1"`
	SubCategory   *string               `json:"subCategory" validate:"required,min=1"`
	Amount        Number                `json:"amount" validate:"required,gte=0"`
	Period        *core.Period          `json:"period" validate:"required,oneof=weekly bi-weekly monthly quarterly yearly"`
	StartDate     core.Date             `json:"startDate" validate:"required"`
	EndDate       core.Date             `json:"endDate"`
	Spent         Number                `json:"spent" validate:"omitempty,gte=0"`
	Rollover      *bool                 `json:"rollover"`
	Priority      *core.Priority        `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	Notifications *notificationsPayload `json:"notifications"`
}

type transactionPayload struct {
	BudgetID    Number                `json:"budgetId" validate:"required,integer,gte=1"`
	Amount      Number                `json:"amount" validate:"required"`
	Type        *core.TransactionType `json:"type" validate:"required,oneof=income expense"`
	Category    *string               `json:"category" validate:"required,min=1"`
	SubCategory *string               `json:"subCategory" validate:"required,min=1"`
	Date        core.Date             `json:"date" validate:"required"`
	Description *string               `json:"description"`
}

type signupPayload struct {
	Email           *string `json:"Email" validate:"required,min=1,email"`
	Password        *string `json:"Password" validate:"required,min=8"`
	FirstName       *string `json:"FirstName" validate:"required,min=1"`
	LastName        *string `json:"LastName" validate:"required,min=1"`
	ConfirmPassword *string `json:"ConfirmPassword" validate:"required,eqfield=Password"`
}

type loginPayload struct {
	Email    *string `json:"email" validate:"required,min=1,email"`
	Password *string `json:"password" validate:"required,min=1"`
}

type forgotPasswordPayload struct {
	Email *string `json:"email"`
}

type chatPayload struct {
	Text *string `json:"text" validate:"required,min=1,max=2000"`
}

// Signup is a validated registration request.
type Signup struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Credentials is a validated login request.
type Credentials struct {
	Email    string
	Password string
}

// Budget validates a budget payload and returns the patch it describes.
// Creation and full updates share the same schema.
func Budget(body []byte) (core.BudgetPatch, error) {
	var p budgetPayload
	if err := decode(body, &p); err != nil {
		return core.BudgetPatch{}, err
	}
	if err := check(&p); err != nil {
		return core.BudgetPatch{}, err
	}
	if end := p.EndDate.Ptr(); end != nil && end.Before(p.StartDate.Time) {
		return core.BudgetPatch{}, core.ValidationError("endDate", `"endDate" must not be before "startDate"`)
	}

	patch := core.BudgetPatch{
		Name:        p.Name,
		Category:    p.Category,
		SubCategory: p.SubCategory,
		Allocated:   p.Amount.Ptr(),
		Spent:       p.Spent.Ptr(),
		Period:      p.Period,
		StartDate:   p.StartDate.Ptr(),
		EndDateSet:  p.EndDate.Set,
		EndDate:     p.EndDate.Ptr(),
		Rollover:    p.Rollover,
		Priority:    p.Priority,
	}
	if n := p.Notifications; n != nil {
		if n.Threshold.Set {
			t := n.Threshold.Value.InexactFloat64()
			patch.Threshold = &t
		}
		patch.Frequency = n.Frequency
	}
	return patch, nil
}

// Transaction validates a transaction payload.
func Transaction(body []byte) (core.TransactionPatch, error) {
	var p transactionPayload
	if err := decode(body, &p); err != nil {
		return core.TransactionPatch{}, err
	}
	if err := check(&p); err != nil {
		return core.TransactionPatch{}, err
	}

	if p.BudgetID.Value.GreaterThan(maxSafeInteger) {
		return core.TransactionPatch{}, core.ValidationError("budgetId", `"budgetId" must be a safe number`)
	}

	budgetID := p.BudgetID.Value.IntPart()
	return core.TransactionPatch{
		BudgetID:    &budgetID,
		Amount:      p.Amount.Ptr(),
		Type:        p.Type,
		Category:    p.Category,
		SubCategory: p.SubCategory,
		Date:        p.Date.Ptr(),
		Description: p.Description,
	}, nil
}

// SignupRequest validates a registration payload. The email is normalized
// to lower case.
func SignupRequest(body []byte) (Signup, error) {
	var p signupPayload
	if err := decode(body, &p); err != nil {
		return Signup{}, err
	}
	if err := check(&p); err != nil {
		return Signup{}, err
	}
	return Signup{
		Email:     NormalizeEmail(*p.Email),
		Password:  *p.Password,
		FirstName: *p.FirstName,
		LastName:  *p.LastName,
	}, nil
}

// LoginRequest validates a login payload.
func LoginRequest(body []byte) (Credentials, error) {
	var p loginPayload
	if err := decode(body, &p); err != nil {
		return Credentials{}, err
	}
	if err := check(&p); err != nil {
		return Credentials{}, err
	}
	return Credentials{Email: NormalizeEmail(*p.Email), Password: *p.Password}, nil
}

// ForgotPasswordRequest extracts the email of a password reset request.
func ForgotPasswordRequest(body []byte) (string, error) {
	var p forgotPasswordPayload
	if err := decode(body, &p); err != nil {
		return "", err
	}
	if p.Email == nil || strings.TrimSpace(*p.Email) == "" {
		return "", core.ValidationError("email", "Email is required")
	}
	return NormalizeEmail(*p.Email), nil
}

// ChatRequest validates a message for the insights chat and returns its
// trimmed text.
func ChatRequest(body []byte) (string, error) {
	var p chatPayload
	if err := decode(body, &p); err != nil {
		return "", err
	}
	if p.Text != nil {
		trimmed := strings.TrimSpace(*p.Text)
		p.Text = &trimmed
	}
	if err := check(&p); err != nil {
		return "", err
	}
	return *p.Text, nil
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
