package billing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

// RepositoryPort abstracts storage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	UnpaidSales(ctx context.Context) ([]UnpaidSale, error)
	ListPayments(ctx context.Context) ([]Payment, error)
	UpdatePayment(ctx context.Context, id int64, input PaymentUpdateInput) error
	DeletePayment(ctx context.Context, id int64) error
}

// AuditPort records mutations after they commit.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Clock returns the current time; swapped out in tests.
type Clock func() time.Time

// Service computes bills and settles them.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	now         Clock
	localOffset time.Duration
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, now Clock, localOffset time.Duration) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, audit: audit, now: now, localOffset: localOffset}
}

// GetBills recomputes the monthly bills from the sales that are unpaid at
// call time. Every unpaid customer sale lands in exactly one bill.
func (s *Service) GetBills(ctx context.Context) ([]Bill, error) {
	sales, err := s.repo.UnpaidSales(ctx)
	if err != nil {
		return nil, err
	}

	type key struct {
		customerID int64
		period     string
	}
	grouped := map[key]*Bill{}
	order := []key{}
	for _, sale := range sales {
		k := key{customerID: sale.CustomerID, period: shared.Period(sale.CreatedAt, s.localOffset)}
		bill, ok := grouped[k]
		if !ok {
			bill = &Bill{
				CustomerID:   sale.CustomerID,
				CustomerName: sale.CustomerName,
				Period:       k.period,
				SalesSummary: []BillSale{},
			}
			grouped[k] = bill
			order = append(order, k)
		}
		bill.SalesSummary = append(bill.SalesSummary, BillSale{
			SaleID: sale.SaleID,
			Date:   shared.LocalDate(sale.CreatedAt, s.localOffset),
			Total:  sale.Total,
		})
		bill.TotalDebt += sale.Total
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].customerID != order[j].customerID {
			return order[i].customerID < order[j].customerID
		}
		return order[i].period < order[j].period
	})
	bills := make([]Bill, 0, len(order))
	for _, k := range order {
		bills = append(bills, *grouped[k])
	}
	return bills, nil
}

// PayBill settles one customer's bill for one month in full. Every sale in
// the bill gets is_paid, the surcharge, the payment method and a paid_at
// stamp, and its stored total becomes the item total plus surcharge. One
// payment row records the settlement.
func (s *Service) PayBill(ctx context.Context, input PayBillInput) (Payment, error) {
	sales, err := s.repo.UnpaidSales(ctx)
	if err != nil {
		return Payment{}, err
	}

	matched := []UnpaidSale{}
	for _, sale := range sales {
		if sale.CustomerID == input.CustomerID && shared.Period(sale.CreatedAt, s.localOffset) == input.Period {
			matched = append(matched, sale)
		}
	}
	if len(matched) == 0 {
		return Payment{}, ErrNothingToPay
	}

	paidAt := s.now()
	amount := decimal.Zero
	payment := Payment{
		CustomerID: input.CustomerID,
		Method:     input.Method,
		Surcharge:  input.Surcharge,
		Period:     input.Period,
		CreatedAt:  paidAt,
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, sale := range matched {
			charged := shared.ApplySurcharge(decimal.NewFromFloat(sale.Total), input.Surcharge)
			total, _ := charged.Float64()
			if err := tx.MarkSalePaid(ctx, sale.SaleID, total, input.Surcharge, input.Method, paidAt); err != nil {
				return err
			}
			amount = amount.Add(charged)
		}
		payment.Amount, _ = amount.Float64()
		id, err := tx.InsertPayment(ctx, payment)
		if err != nil {
			return err
		}
		payment.ID = id
		return nil
	})
	if err != nil {
		return Payment{}, err
	}
	payment.CustomerName = matched[0].CustomerName
	s.recordAudit(ctx, "billing:pay", payment.ID, map[string]any{
		"customer_id": input.CustomerID,
		"period":      input.Period,
		"sales":       len(matched),
		"amount":      payment.Amount,
	})
	return payment, nil
}

func (s *Service) ListPayments(ctx context.Context) ([]Payment, error) {
	return s.repo.ListPayments(ctx)
}

// UpdatePayment corrects the record of a past settlement (method typo,
// adjusted amount). The settled sales are left alone.
func (s *Service) UpdatePayment(ctx context.Context, id int64, input PaymentUpdateInput) error {
	if err := s.repo.UpdatePayment(ctx, id, input); err != nil {
		return err
	}
	s.recordAudit(ctx, "billing:update-payment", id, map[string]any{"amount": input.Amount, "method": input.Method})
	return nil
}

func (s *Service) DeletePayment(ctx context.Context, id int64) error {
	if err := s.repo.DeletePayment(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, "billing:delete-payment", id, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "payment",
		EntityID: fmt.Sprintf("%d", id),
		Meta:     meta,
	})
}
