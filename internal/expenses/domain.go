// Package expenses records business expenses and how they split across
// owners.
package expenses

import (
	"time"

	"github.com/mercurio-erp/mercurio-erp/internal/ownership"
)

// Expense is one outgoing amount, attributed to owners by percentage.
type Expense struct {
	ID            int64             `json:"id"`
	Category      string            `json:"category"`
	Description   *string           `json:"description,omitempty"`
	Amount        float64           `json:"amount"`
	PaymentMethod string            `json:"payment_method"`
	Owners        []ownership.Share `json:"owners"`
	CreatedAt     time.Time         `json:"created_at"`
	LocalDate     string            `json:"local_date"`
}

// ExpenseInput carries create/update fields.
type ExpenseInput struct {
	Category      string            `json:"category" validate:"required"`
	Description   *string           `json:"description,omitempty"`
	Amount        float64           `json:"amount" validate:"gt=0"`
	PaymentMethod string            `json:"payment_method" validate:"required"`
	Owners        []ownership.Share `json:"owners" validate:"required,min=1"`
	Date          string            `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}
