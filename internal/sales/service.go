package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

// RepositoryPort abstracts storage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context) ([]Sale, error)
	Get(ctx context.Context, id int64) (Sale, error)
	GetProductStates(ctx context.Context, ids []int64) (map[int64]ProductState, error)
	CustomerExists(ctx context.Context, id int64) (bool, error)
}

// IdempotencyPort guards retried create requests.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// AuditPort records mutations after they commit.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Clock returns the current time; swapped out in tests.
type Clock func() time.Time

// Service drives the sale workflow. A draft cart goes from validation to a
// committed sale in one transaction; there is no intermediate persisted
// state.
type Service struct {
	repo        RepositoryPort
	idempotency IdempotencyPort
	audit       AuditPort
	now         Clock
	localOffset time.Duration
}

// NewService builds Service.
func NewService(repo RepositoryPort, idempotency IdempotencyPort, audit AuditPort, now Clock, localOffset time.Duration) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, idempotency: idempotency, audit: audit, now: now, localOffset: localOffset}
}

func (s *Service) List(ctx context.Context) ([]Sale, error) {
	sales, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sales {
		sales[i].LocalDate = shared.LocalDate(sales[i].CreatedAt, s.localOffset)
	}
	return sales, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Sale, error) {
	sale, err := s.repo.Get(ctx, id)
	if err != nil {
		return Sale{}, err
	}
	sale.LocalDate = shared.LocalDate(sale.CreatedAt, s.localOffset)
	return sale, nil
}

// Create commits a draft cart. Validation and the stock pre-check run before
// the transaction opens; once it opens, the header, every line item, every
// stock decrement and any low-stock notification commit together or not at
// all. Notification thresholds compare against the stock value re-read after
// the decrement, never the pre-check snapshot.
func (s *Service) Create(ctx context.Context, input SaleInput, idempotencyKey string) (Sale, error) {
	if len(input.Items) == 0 {
		return Sale{}, ErrInvalidLineItem
	}
	for _, line := range input.Items {
		if line.ProductID <= 0 || line.Quantity <= 0 {
			return Sale{}, ErrInvalidLineItem
		}
	}

	ids := make([]int64, 0, len(input.Items))
	for _, line := range input.Items {
		ids = append(ids, line.ProductID)
	}
	states, err := s.repo.GetProductStates(ctx, ids)
	if err != nil {
		return Sale{}, err
	}

	needed := map[int64]int64{}
	for _, line := range input.Items {
		needed[line.ProductID] += line.Quantity
	}
	for productID, qty := range needed {
		state, ok := states[productID]
		if !ok {
			return Sale{}, ErrHasUnknownProduct
		}
		if state.Stock < qty {
			return Sale{}, fmt.Errorf("%w para %s", ErrInsufficientStock, state.Name)
		}
	}

	if input.CustomerID != nil {
		exists, err := s.repo.CustomerExists(ctx, *input.CustomerID)
		if err != nil {
			return Sale{}, err
		}
		if !exists {
			return Sale{}, ErrCustomerNotFound
		}
	}

	now := s.now()
	createdAt := now
	if input.Date != "" {
		day, err := time.Parse("2006-01-02", input.Date)
		if err != nil {
			return Sale{}, fmt.Errorf("%w: fecha inválida", shared.ErrValidation)
		}
		createdAt = shared.CombineDateTime(day, now)
	}

	items := make([]SaleItem, 0, len(input.Items))
	subtotal := decimal.Zero
	for _, line := range input.Items {
		state := states[line.ProductID]
		items = append(items, SaleItem{
			ProductID:   line.ProductID,
			ProductName: state.Name,
			Quantity:    line.Quantity,
			Price:       state.Price,
		})
		lineTotal := decimal.NewFromFloat(state.Price).Mul(decimal.NewFromInt(line.Quantity))
		subtotal = subtotal.Add(lineTotal)
	}

	sale := Sale{
		CustomerID:    input.CustomerID,
		PaymentMethod: input.PaymentMethod,
		Surcharge:     input.Surcharge,
		CreatedAt:     createdAt,
	}
	if input.CustomerID != nil {
		// The debt is tracked through the monthly bill, not a stored
		// total; the row carries 0 until the bill is paid.
		sale.Total = 0
		sale.IsPaid = false
		sale.PaidAt = nil
	} else {
		charged := shared.ApplySurcharge(subtotal, input.Surcharge)
		sale.Total, _ = charged.Float64()
		sale.IsPaid = true
		paidAt := createdAt
		sale.PaidAt = &paidAt
	}

	if s.idempotency != nil && idempotencyKey != "" {
		if err := s.idempotency.CheckAndInsert(ctx, idempotencyKey, "sales"); err != nil {
			return Sale{}, err
		}
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertSale(ctx, sale)
		if err != nil {
			return err
		}
		sale.ID = id
		for _, item := range items {
			if err := tx.InsertSaleItem(ctx, id, item); err != nil {
				return err
			}
			if err := tx.AdjustStock(ctx, item.ProductID, -item.Quantity); err != nil {
				return err
			}
			state, err := tx.GetProductState(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if err := s.notifyLowStock(ctx, tx, state); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if s.idempotency != nil && idempotencyKey != "" {
			_ = s.idempotency.Delete(ctx, idempotencyKey)
		}
		return Sale{}, err
	}

	s.recordAudit(ctx, "sales:create", sale.ID, map[string]any{"items": len(items), "total": sale.Total})
	sale.Items = items
	sale.LocalDate = shared.LocalDate(sale.CreatedAt, s.localOffset)
	return sale, nil
}

// Delete removes a sale and restores stock using each line item's recorded
// quantity.
func (s *Service) Delete(ctx context.Context, id int64) error {
	sale, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.DeleteSaleItems(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteSale(ctx, id); err != nil {
			return err
		}
		for _, item := range sale.Items {
			if err := tx.AdjustStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "sales:delete", id, map[string]any{"items": len(sale.Items)})
	return nil
}

func (s *Service) notifyLowStock(ctx context.Context, tx TxRepository, state ProductState) error {
	switch {
	case state.Stock == 0:
		return tx.InsertNotification(ctx, "Sin Stock",
			fmt.Sprintf("El producto %s se quedó sin stock", state.Name), "/products")
	case state.Stock < state.LowStockThreshold:
		return tx.InsertNotification(ctx, "Últimas Unidades",
			fmt.Sprintf("Quedan %d unidades de %s", state.Stock, state.Name), "/products")
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "sale",
		EntityID: fmt.Sprintf("%d", id),
		Meta:     meta,
	})
}
