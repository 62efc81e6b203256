package catalog

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mercurio-erp/mercurio-erp/internal/ownership"
	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

// RepositoryPort abstracts storage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int64) (Product, error)
	NameExists(ctx context.Context, nameKey string, excludeID int64) (bool, error)
	OwnersExist(ctx context.Context, ids []int64) (bool, error)
	CountPurchases(ctx context.Context, ids []int64) (int64, error)
	CountSaleItems(ctx context.Context, ids []int64) (int64, error)
	DeleteByIDs(ctx context.Context, ids []int64) error
}

// AuditPort records mutations after they commit.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates product operations.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	return s.repo.Get(ctx, id)
}

// Create validates the input and ownership split, then inserts the product
// and its shares in one transaction. Nothing is written when validation
// fails.
func (s *Service) Create(ctx context.Context, input ProductInput) (Product, error) {
	product, err := s.validated(ctx, input, 0)
	if err != nil {
		return Product{}, err
	}

	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		id, err = tx.InsertProduct(ctx, product)
		if err != nil {
			return err
		}
		return tx.ReplaceShares(ctx, id, product.Owners)
	})
	if err != nil {
		return Product{}, err
	}
	s.recordAudit(ctx, "catalog:create", id, map[string]any{"name": product.Name, "stock": product.Stock})
	return s.repo.Get(ctx, id)
}

// Update rewrites the product row, swaps the ownership split wholesale and
// re-stamps unit prices on items of still-unpaid sales, all in one
// transaction.
func (s *Service) Update(ctx context.Context, id int64, input ProductInput) (Product, error) {
	product, err := s.validated(ctx, input, id)
	if err != nil {
		return Product{}, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateProduct(ctx, id, product); err != nil {
			return err
		}
		if err := tx.ReplaceShares(ctx, id, product.Owners); err != nil {
			return err
		}
		return tx.RefreshUnpaidSaleItemPrices(ctx, id, product.Price)
	})
	if err != nil {
		return Product{}, err
	}
	s.recordAudit(ctx, "catalog:update", id, map[string]any{"name": product.Name})
	return s.repo.Get(ctx, id)
}

// Delete removes a batch of products unless purchases or sale items still
// reference any of them. The two counts are independent read-only queries and
// run in parallel; one blocked product rejects the whole batch.
func (s *Service) Delete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: no hay productos seleccionados", shared.ErrValidation)
	}

	var purchases, saleItems int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		purchases, err = s.repo.CountPurchases(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		saleItems, err = s.repo.CountSaleItems(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	switch {
	case purchases > 0 && saleItems > 0:
		return ErrHasBoth
	case purchases > 0:
		return ErrHasPurchases
	case saleItems > 0:
		return ErrHasSaleItems
	}

	if err := s.repo.DeleteByIDs(ctx, ids); err != nil {
		return err
	}
	s.recordAudit(ctx, "catalog:delete", 0, map[string]any{"ids": ids})
	return nil
}

func (s *Service) validated(ctx context.Context, input ProductInput, excludeID int64) (Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Product{}, fmt.Errorf("%w: el nombre es obligatorio", shared.ErrValidation)
	}
	if input.Price <= 0 {
		return Product{}, fmt.Errorf("%w: el precio debe ser mayor a 0", shared.ErrValidation)
	}
	if input.Stock < 0 {
		return Product{}, fmt.Errorf("%w: el stock no puede ser negativo", shared.ErrValidation)
	}
	if input.LowStockThreshold < 0 {
		return Product{}, fmt.Errorf("%w: el umbral de stock no puede ser negativo", shared.ErrValidation)
	}
	if err := ownership.Validate(input.Owners); err != nil {
		return Product{}, err
	}

	ownerIDs := make([]int64, 0, len(input.Owners))
	for _, share := range input.Owners {
		ownerIDs = append(ownerIDs, share.OwnerID)
	}
	exist, err := s.repo.OwnersExist(ctx, ownerIDs)
	if err != nil {
		return Product{}, err
	}
	if !exist {
		return Product{}, ownership.ErrUnknownOwner
	}

	taken, err := s.repo.NameExists(ctx, shared.NormalizeName(name), excludeID)
	if err != nil {
		return Product{}, err
	}
	if taken {
		return Product{}, ErrDuplicateName
	}

	return Product{
		Name:              name,
		Variant:           input.Variant,
		Weight:            input.Weight,
		Unit:              input.Unit,
		Category:          input.Category,
		Price:             input.Price,
		Stock:             input.Stock,
		LowStockThreshold: input.LowStockThreshold,
		Owners:            input.Owners,
	}, nil
}

func (s *Service) recordAudit(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "product",
		EntityID: fmt.Sprintf("%d", id),
		Meta:     meta,
	})
}
