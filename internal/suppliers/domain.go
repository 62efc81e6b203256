// Package suppliers manages the suppliers referenced by purchases.
package suppliers

import (
	"fmt"
	"time"

	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

// Supplier is a goods provider.
type Supplier struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	Address   *string   `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SupplierInput carries create/update fields.
type SupplierInput struct {
	Name    string  `json:"name" validate:"required"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

// Sentinel errors surfaced to the UI.
var (
	ErrDuplicateName = fmt.Errorf("%w: ya existe un proveedor con ese nombre", shared.ErrDuplicate)
	ErrHasPurchases  = fmt.Errorf("%w: no se pueden eliminar proveedores con compras asociadas", shared.ErrBusinessRule)
)
