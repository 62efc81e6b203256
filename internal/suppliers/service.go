package suppliers

import (
	"context"
	"fmt"
	"strings"

	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

// RepositoryPort abstracts storage for the service.
type RepositoryPort interface {
	List(ctx context.Context) ([]Supplier, error)
	Get(ctx context.Context, id int64) (Supplier, error)
	NameExists(ctx context.Context, nameKey string, excludeID int64) (bool, error)
	Create(ctx context.Context, supplier Supplier) (int64, error)
	Update(ctx context.Context, id int64, supplier Supplier) error
	CountPurchases(ctx context.Context, ids []int64) (int64, error)
	DeleteByIDs(ctx context.Context, ids []int64) error
}

// AuditPort records mutations after they commit.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates supplier operations.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

func (s *Service) List(ctx context.Context) ([]Supplier, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Supplier, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, input SupplierInput) (Supplier, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Supplier{}, fmt.Errorf("%w: el nombre es obligatorio", shared.ErrValidation)
	}
	taken, err := s.repo.NameExists(ctx, shared.NormalizeName(name), 0)
	if err != nil {
		return Supplier{}, err
	}
	if taken {
		return Supplier{}, ErrDuplicateName
	}
	id, err := s.repo.Create(ctx, Supplier{Name: name, Phone: input.Phone, Address: input.Address})
	if err != nil {
		return Supplier{}, err
	}
	s.recordAudit(ctx, "suppliers:create", id, map[string]any{"name": name})
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, input SupplierInput) (Supplier, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Supplier{}, fmt.Errorf("%w: el nombre es obligatorio", shared.ErrValidation)
	}
	taken, err := s.repo.NameExists(ctx, shared.NormalizeName(name), id)
	if err != nil {
		return Supplier{}, err
	}
	if taken {
		return Supplier{}, ErrDuplicateName
	}
	if err := s.repo.Update(ctx, id, Supplier{Name: name, Phone: input.Phone, Address: input.Address}); err != nil {
		return Supplier{}, err
	}
	s.recordAudit(ctx, "suppliers:update", id, map[string]any{"name": name})
	return s.repo.Get(ctx, id)
}

// Delete removes a batch of suppliers unless any purchase still references
// one of them.
func (s *Service) Delete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: no hay proveedores seleccionados", shared.ErrValidation)
	}
	purchases, err := s.repo.CountPurchases(ctx, ids)
	if err != nil {
		return err
	}
	if purchases > 0 {
		return ErrHasPurchases
	}
	if err := s.repo.DeleteByIDs(ctx, ids); err != nil {
		return err
	}
	s.recordAudit(ctx, "suppliers:delete", 0, map[string]any{"ids": ids})
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "supplier",
		EntityID: fmt.Sprintf("%d", id),
		Meta:     meta,
	})
}
