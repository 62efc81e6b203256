// Package sales implements the sale workflow: stock-checked line items, an
// all-or-nothing header+items insert, stock deduction and low-stock
// notifications raised from the freshly updated counts.
package sales

import (
	"fmt"
	"time"

	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

// Sale is one committed sale. A nil CustomerID means an immediately settled
// cash sale: Total holds the charged amount and PaidAt equals CreatedAt. A
// customer sale stores Total as 0 and PaidAt as null until its monthly bill
// is paid.
type Sale struct {
	ID            int64      `json:"id"`
	CustomerID    *int64     `json:"customer_id,omitempty"`
	CustomerName  *string    `json:"customer_name,omitempty"`
	PaymentMethod string     `json:"payment_method"`
	IsPaid        bool       `json:"is_paid"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	Surcharge     float64    `json:"surcharge"`
	Total         float64    `json:"total"`
	CreatedAt     time.Time  `json:"created_at"`
	LocalDate     string     `json:"local_date"`
	Items         []SaleItem `json:"items"`
}

// SaleItem freezes the product's price at the moment of sale. Items are
// immutable once inserted; the only edit path is deleting the whole sale.
type SaleItem struct {
	ID          int64   `json:"id"`
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int64   `json:"quantity"`
	Price       float64 `json:"price"`
}

// SaleInput carries the draft cart posted by the client.
type SaleInput struct {
	CustomerID    *int64          `json:"customer_id,omitempty"`
	PaymentMethod string          `json:"payment_method" validate:"required"`
	Surcharge     float64         `json:"surcharge" validate:"gte=0"`
	Date          string          `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Items         []SaleItemInput `json:"items" validate:"required,min=1,dive"`
}

// SaleItemInput is one cart line.
type SaleItemInput struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int64 `json:"quantity" validate:"required,gt=0"`
}

// Sentinel errors surfaced to the UI. Insufficient-stock errors wrap
// ErrInsufficientStock and name the offending product.
var (
	ErrInvalidLineItem   = fmt.Errorf("%w: los artículos del carrito son inválidos", shared.ErrValidation)
	ErrInsufficientStock = fmt.Errorf("%w: stock insuficiente", shared.ErrBusinessRule)
	ErrCustomerNotFound  = fmt.Errorf("%w: el cliente no existe", shared.ErrValidation)
	ErrHasUnknownProduct = fmt.Errorf("%w: el producto no existe", shared.ErrValidation)
)
