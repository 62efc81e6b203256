// Package customers manages the customer accounts that accumulate monthly
// debt.
package customers

import (
	"fmt"
	"time"

	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

// Customer is a named account sales can be booked against.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	Reference *string   `json:"reference,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CustomerInput carries create/update fields.
type CustomerInput struct {
	Name      string  `json:"name" validate:"required"`
	Phone     *string `json:"phone,omitempty"`
	Reference *string `json:"reference,omitempty"`
}

// Sentinel errors surfaced to the UI.
var (
	ErrDuplicateName  = fmt.Errorf("%w: ya existe un cliente con ese nombre", shared.ErrDuplicate)
	ErrHasUnpaidSales = fmt.Errorf("%w: no se pueden eliminar clientes con deudas pendientes", shared.ErrBusinessRule)
)
