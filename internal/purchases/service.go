package purchases

import (
	"context"
	"fmt"
	"time"

	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

// RepositoryPort abstracts storage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context) ([]Purchase, error)
	Get(ctx context.Context, id int64) (Purchase, error)
	ProductExists(ctx context.Context, id int64) (bool, error)
	SupplierExists(ctx context.Context, id int64) (bool, error)
}

// IdempotencyPort guards retried create requests.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Clock returns the current time; swapped out in tests.
type Clock func() time.Time

// Service coordinates purchase operations. Stock moves in the same
// transaction as the purchase row, in both directions.
type Service struct {
	repo        RepositoryPort
	idempotency IdempotencyPort
	audit       AuditPort
	now         Clock
	localOffset time.Duration
}

// AuditPort records mutations after they commit.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// NewService builds Service.
func NewService(repo RepositoryPort, idempotency IdempotencyPort, audit AuditPort, now Clock, localOffset time.Duration) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, idempotency: idempotency, audit: audit, now: now, localOffset: localOffset}
}

func (s *Service) List(ctx context.Context) ([]Purchase, error) {
	purchases, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range purchases {
		purchases[i].LocalDate = shared.LocalDate(purchases[i].CreatedAt, s.localOffset)
	}
	return purchases, nil
}

// Create inserts the purchase and applies its quantity to the product's
// stock inside one transaction. A repeated idempotency key returns a
// conflict instead of booking the entry twice.
func (s *Service) Create(ctx context.Context, input PurchaseInput, idempotencyKey string) (Purchase, error) {
	if input.Quantity <= 0 {
		return Purchase{}, fmt.Errorf("%w: la cantidad debe ser mayor a 0", shared.ErrValidation)
	}
	if input.Total < 0 {
		return Purchase{}, fmt.Errorf("%w: el total no puede ser negativo", shared.ErrValidation)
	}

	exists, err := s.repo.ProductExists(ctx, input.ProductID)
	if err != nil {
		return Purchase{}, err
	}
	if !exists {
		return Purchase{}, ErrProductNotFound
	}
	if input.SupplierID != nil {
		exists, err := s.repo.SupplierExists(ctx, *input.SupplierID)
		if err != nil {
			return Purchase{}, err
		}
		if !exists {
			return Purchase{}, ErrSupplierNotFound
		}
	}

	now := s.now()
	createdAt := now
	if input.Date != "" {
		day, err := time.Parse("2006-01-02", input.Date)
		if err != nil {
			return Purchase{}, fmt.Errorf("%w: fecha inválida", shared.ErrValidation)
		}
		createdAt = shared.CombineDateTime(day, now)
	}

	if s.idempotency != nil && idempotencyKey != "" {
		if err := s.idempotency.CheckAndInsert(ctx, idempotencyKey, "purchases"); err != nil {
			return Purchase{}, err
		}
	}

	purchase := Purchase{
		ProductID:     input.ProductID,
		SupplierID:    input.SupplierID,
		Quantity:      input.Quantity,
		Total:         input.Total,
		PaymentMethod: input.PaymentMethod,
		CreatedAt:     createdAt,
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertPurchase(ctx, purchase)
		if err != nil {
			return err
		}
		purchase.ID = id
		return tx.AdjustStock(ctx, purchase.ProductID, purchase.Quantity)
	})
	if err != nil {
		if s.idempotency != nil && idempotencyKey != "" {
			_ = s.idempotency.Delete(ctx, idempotencyKey)
		}
		return Purchase{}, err
	}
	s.recordAudit(ctx, "purchases:create", purchase.ID, map[string]any{"product_id": purchase.ProductID, "quantity": purchase.Quantity})
	purchase.LocalDate = shared.LocalDate(purchase.CreatedAt, s.localOffset)
	return purchase, nil
}

// Update rewrites the purchase row and moves stock by the quantity delta,
// so a later delete still reverts exactly what the row records. Changing
// the product reverts the old one and applies the new one in full.
func (s *Service) Update(ctx context.Context, id int64, input PurchaseInput) (Purchase, error) {
	if input.Quantity <= 0 {
		return Purchase{}, fmt.Errorf("%w: la cantidad debe ser mayor a 0", shared.ErrValidation)
	}
	if input.Total < 0 {
		return Purchase{}, fmt.Errorf("%w: el total no puede ser negativo", shared.ErrValidation)
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Purchase{}, err
	}

	exists, err := s.repo.ProductExists(ctx, input.ProductID)
	if err != nil {
		return Purchase{}, err
	}
	if !exists {
		return Purchase{}, ErrProductNotFound
	}
	if input.SupplierID != nil {
		exists, err := s.repo.SupplierExists(ctx, *input.SupplierID)
		if err != nil {
			return Purchase{}, err
		}
		if !exists {
			return Purchase{}, ErrSupplierNotFound
		}
	}

	createdAt := current.CreatedAt
	if input.Date != "" {
		day, err := time.Parse("2006-01-02", input.Date)
		if err != nil {
			return Purchase{}, fmt.Errorf("%w: fecha inválida", shared.ErrValidation)
		}
		createdAt = shared.CombineDateTime(day, current.CreatedAt)
	}

	updated := Purchase{
		ID:            id,
		ProductID:     input.ProductID,
		SupplierID:    input.SupplierID,
		Quantity:      input.Quantity,
		Total:         input.Total,
		PaymentMethod: input.PaymentMethod,
		CreatedAt:     createdAt,
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdatePurchase(ctx, id, updated); err != nil {
			return err
		}
		if updated.ProductID == current.ProductID {
			if delta := updated.Quantity - current.Quantity; delta != 0 {
				return tx.AdjustStock(ctx, updated.ProductID, delta)
			}
			return nil
		}
		if err := tx.AdjustStock(ctx, current.ProductID, -current.Quantity); err != nil {
			return err
		}
		return tx.AdjustStock(ctx, updated.ProductID, updated.Quantity)
	})
	if err != nil {
		return Purchase{}, err
	}
	s.recordAudit(ctx, "purchases:update", id, map[string]any{"product_id": updated.ProductID, "quantity": updated.Quantity})
	updated.LocalDate = shared.LocalDate(updated.CreatedAt, s.localOffset)
	return updated, nil
}

// Delete removes the purchase and reverts the product's stock by the
// quantity recorded on the row, never a recomputed value.
func (s *Service) Delete(ctx context.Context, id int64) error {
	purchase, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.DeletePurchase(ctx, id); err != nil {
			return err
		}
		return tx.AdjustStock(ctx, purchase.ProductID, -purchase.Quantity)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "purchases:delete", id, map[string]any{"product_id": purchase.ProductID, "quantity": purchase.Quantity})
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "purchase",
		EntityID: fmt.Sprintf("%d", id),
		Meta:     meta,
	})
}
