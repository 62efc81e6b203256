// Package purchases records stock entering the business and keeps product
// counts in step with the purchase history.
package purchases

import (
	"fmt"
	"time"

	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

// Purchase is one stock entry. Quantity was applied to the product's stock
// when the row was inserted and is the amount reverted on delete.
type Purchase struct {
	ID            int64     `json:"id"`
	ProductID     int64     `json:"product_id"`
	ProductName   string    `json:"product_name"`
	SupplierID    *int64    `json:"supplier_id,omitempty"`
	SupplierName  *string   `json:"supplier_name,omitempty"`
	Quantity      int64     `json:"quantity"`
	Total         float64   `json:"total"`
	PaymentMethod string    `json:"payment_method"`
	CreatedAt     time.Time `json:"created_at"`
	LocalDate     string    `json:"local_date"`
}

// PurchaseInput carries the create fields. Date is optional; an empty value
// means "now", a backdated value keeps the current time of day.
type PurchaseInput struct {
	ProductID     int64   `json:"product_id" validate:"required,gt=0"`
	SupplierID    *int64  `json:"supplier_id,omitempty"`
	Quantity      int64   `json:"quantity" validate:"required,gt=0"`
	Total         float64 `json:"total" validate:"gte=0"`
	PaymentMethod string  `json:"payment_method" validate:"required"`
	Date          string  `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// Sentinel errors surfaced to the UI.
var (
	ErrProductNotFound  = fmt.Errorf("%w: el producto no existe", shared.ErrValidation)
	ErrSupplierNotFound = fmt.Errorf("%w: el proveedor no existe", shared.ErrValidation)
)
