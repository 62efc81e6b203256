package customers

import (
	"context"
	"fmt"
	"strings"

	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

// RepositoryPort abstracts storage for the service.
type RepositoryPort interface {
	List(ctx context.Context) ([]Customer, error)
	Get(ctx context.Context, id int64) (Customer, error)
	NameExists(ctx context.Context, nameKey string, excludeID int64) (bool, error)
	Create(ctx context.Context, customer Customer) (int64, error)
	Update(ctx context.Context, id int64, customer Customer) error
	CountUnpaidSales(ctx context.Context, ids []int64) (int64, error)
	DeleteByIDs(ctx context.Context, ids []int64) error
}

// AuditPort records mutations after they commit.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates customer operations.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

func (s *Service) List(ctx context.Context) ([]Customer, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Customer, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, input CustomerInput) (Customer, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Customer{}, fmt.Errorf("%w: el nombre es obligatorio", shared.ErrValidation)
	}
	taken, err := s.repo.NameExists(ctx, shared.NormalizeName(name), 0)
	if err != nil {
		return Customer{}, err
	}
	if taken {
		return Customer{}, ErrDuplicateName
	}
	id, err := s.repo.Create(ctx, Customer{Name: name, Phone: input.Phone, Reference: input.Reference})
	if err != nil {
		return Customer{}, err
	}
	s.recordAudit(ctx, "customers:create", id, map[string]any{"name": name})
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, input CustomerInput) (Customer, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Customer{}, fmt.Errorf("%w: el nombre es obligatorio", shared.ErrValidation)
	}
	taken, err := s.repo.NameExists(ctx, shared.NormalizeName(name), id)
	if err != nil {
		return Customer{}, err
	}
	if taken {
		return Customer{}, ErrDuplicateName
	}
	if err := s.repo.Update(ctx, id, Customer{Name: name, Phone: input.Phone, Reference: input.Reference}); err != nil {
		return Customer{}, err
	}
	s.recordAudit(ctx, "customers:update", id, map[string]any{"name": name})
	return s.repo.Get(ctx, id)
}

// Delete removes a batch of customers unless any of them still owes money.
// One blocked customer rejects the whole batch.
func (s *Service) Delete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: no hay clientes seleccionados", shared.ErrValidation)
	}
	unpaid, err := s.repo.CountUnpaidSales(ctx, ids)
	if err != nil {
		return err
	}
	if unpaid > 0 {
		return ErrHasUnpaidSales
	}
	if err := s.repo.DeleteByIDs(ctx, ids); err != nil {
		return err
	}
	s.recordAudit(ctx, "customers:delete", 0, map[string]any{"ids": ids})
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "customer",
		EntityID: fmt.Sprintf("%d", id),
		Meta:     meta,
	})
}
