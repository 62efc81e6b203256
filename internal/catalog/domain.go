// Package catalog manages products and their ownership splits.
package catalog

import (
	"fmt"
	"time"

	"github.com/mercurio-erp/mercurio-erp/internal/ownership"
	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

// Product is a sellable item. Stock is an application-level invariant
// (never negative); the storage layer does not enforce it.
type Product struct {
	ID                int64             `json:"id"`
	Name              string            `json:"name"`
	Variant           *string           `json:"variant,omitempty"`
	Weight            *float64          `json:"weight,omitempty"`
	Unit              *string           `json:"unit,omitempty"`
	Category          string            `json:"category"`
	Price             float64           `json:"price"`
	Stock             int64             `json:"stock"`
	LowStockThreshold int64             `json:"low_stock_threshold"`
	Owners            []ownership.Share `json:"owners"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// ProductInput carries create/update fields.
type ProductInput struct {
	Name              string            `json:"name" validate:"required"`
	Variant           *string           `json:"variant,omitempty"`
	Weight            *float64          `json:"weight,omitempty"`
	Unit              *string           `json:"unit,omitempty" validate:"omitempty,oneof=kg g l ml unidad"`
	Category          string            `json:"category" validate:"required"`
	Price             float64           `json:"price" validate:"gt=0"`
	Stock             int64             `json:"stock" validate:"gte=0"`
	LowStockThreshold int64             `json:"low_stock_threshold" validate:"gte=0"`
	Owners            []ownership.Share `json:"owners" validate:"required,min=1"`
}

// Sentinel errors surfaced to the UI.
var (
	ErrDuplicateName = fmt.Errorf("%w: ya existe un producto con ese nombre", shared.ErrDuplicate)
	ErrHasPurchases  = fmt.Errorf("%w: no se pueden eliminar productos con compras asociadas", shared.ErrBusinessRule)
	ErrHasSaleItems  = fmt.Errorf("%w: no se pueden eliminar productos con ventas asociadas", shared.ErrBusinessRule)
	ErrHasBoth       = fmt.Errorf("%w: no se pueden eliminar productos con compras y ventas asociadas", shared.ErrBusinessRule)
)
