// Package owners manages the store owners that split product and expense
// ownership.
package owners

import (
	"fmt"
	"time"

	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

// Owner is a person holding a percentage of products or expenses. The alias
// is optional and used for payment instructions.
type Owner struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Alias     *string   `json:"alias,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwnerInput carries create/update fields.
type OwnerInput struct {
	Name  string  `json:"name" validate:"required"`
	Alias *string `json:"alias,omitempty"`
}

// Sentinel errors surfaced to the UI.
var (
	ErrDuplicateName = fmt.Errorf("%w: ya existe un propietario con ese nombre", shared.ErrDuplicate)
	ErrHasProducts   = fmt.Errorf("%w: no se pueden eliminar propietarios con productos asociados", shared.ErrBusinessRule)
	ErrHasExpenses   = fmt.Errorf("%w: no se pueden eliminar propietarios con gastos asociados", shared.ErrBusinessRule)
	ErrHasBoth       = fmt.Errorf("%w: no se pueden eliminar propietarios con productos y gastos asociados", shared.ErrBusinessRule)
)
