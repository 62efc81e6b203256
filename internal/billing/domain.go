// Package billing projects unpaid customer sales into monthly bills and
// settles them. Bills are never stored; every read recomputes them from the
// sales that are unpaid right now.
package billing

import (
	"fmt"
	"time"

	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

// Bill is one customer's debt for one calendar month. The period key comes
// from the sale timestamp shifted by the configured local offset.
type Bill struct {
	CustomerID   int64      `json:"customer_id"`
	CustomerName string     `json:"customer_name"`
	Period       string     `json:"period"`
	SalesSummary []BillSale `json:"sales_summary"`
	TotalDebt    float64    `json:"total_debt"`
}

// BillSale is one unpaid sale inside a bill. Total is computed from the
// sale's line items, not the stored header total (which is 0 until payment).
type BillSale struct {
	SaleID int64   `json:"sale_id"`
	Date   string  `json:"date"`
	Total  float64 `json:"total"`
}

// Payment is the stored record of a settled bill.
type Payment struct {
	ID           int64     `json:"id"`
	CustomerID   int64     `json:"customer_id"`
	CustomerName string    `json:"customer_name"`
	Method       string    `json:"method"`
	Amount       float64   `json:"amount"`
	Surcharge    float64   `json:"surcharge"`
	Period       string    `json:"period"`
	CreatedAt    time.Time `json:"created_at"`
}

// PayBillInput selects the bill and how it is settled.
type PayBillInput struct {
	CustomerID int64   `json:"customer_id" validate:"required,gt=0"`
	Period     string  `json:"period" validate:"required,datetime=2006-01"`
	Method     string  `json:"method" validate:"required"`
	Surcharge  float64 `json:"surcharge" validate:"gte=0"`
}

// PaymentUpdateInput edits a stored payment record. It never touches the
// sales it settled; those keep the totals stamped at payment time.
type PaymentUpdateInput struct {
	CustomerID int64   `json:"customer_id" validate:"required,gt=0"`
	Method     string  `json:"method" validate:"required"`
	Amount     float64 `json:"amount" validate:"gte=0"`
	Surcharge  float64 `json:"surcharge" validate:"gte=0"`
}

// ErrNothingToPay means no unpaid sale matched the requested bill. Paying a
// bill is all or nothing for the month; there is no partial payment path.
var ErrNothingToPay = fmt.Errorf("%w: no hay ventas pendientes para ese período", shared.ErrBusinessRule)
