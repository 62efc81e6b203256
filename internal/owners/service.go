package owners

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

// RepositoryPort abstracts storage for the service.
type RepositoryPort interface {
	List(ctx context.Context) ([]Owner, error)
	Get(ctx context.Context, id int64) (Owner, error)
	NameExists(ctx context.Context, nameKey string, excludeID int64) (bool, error)
	Create(ctx context.Context, owner Owner) (int64, error)
	Update(ctx context.Context, id int64, owner Owner) error
	CountProductShares(ctx context.Context, ids []int64) (int64, error)
	CountExpenseShares(ctx context.Context, ids []int64) (int64, error)
	DeleteByIDs(ctx context.Context, ids []int64) error
}

// AuditPort records mutations after they commit.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates owner operations.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

func (s *Service) List(ctx context.Context) ([]Owner, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Owner, error) {
	return s.repo.Get(ctx, id)
}

// Create inserts a new owner after the duplicate-name pre-check. The check is
// a read outside any transaction; the unique index on name_key closes the
// remaining window.
func (s *Service) Create(ctx context.Context, input OwnerInput) (Owner, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Owner{}, fmt.Errorf("%w: el nombre es obligatorio", shared.ErrValidation)
	}
	taken, err := s.repo.NameExists(ctx, shared.NormalizeName(name), 0)
	if err != nil {
		return Owner{}, err
	}
	if taken {
		return Owner{}, ErrDuplicateName
	}
	owner := Owner{Name: name, Alias: input.Alias}
	id, err := s.repo.Create(ctx, owner)
	if err != nil {
		return Owner{}, err
	}
	s.recordAudit(ctx, "owners:create", id, map[string]any{"name": name})
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, input OwnerInput) (Owner, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Owner{}, fmt.Errorf("%w: el nombre es obligatorio", shared.ErrValidation)
	}
	taken, err := s.repo.NameExists(ctx, shared.NormalizeName(name), id)
	if err != nil {
		return Owner{}, err
	}
	if taken {
		return Owner{}, ErrDuplicateName
	}
	if err := s.repo.Update(ctx, id, Owner{Name: name, Alias: input.Alias}); err != nil {
		return Owner{}, err
	}
	s.recordAudit(ctx, "owners:update", id, map[string]any{"name": name})
	return s.repo.Get(ctx, id)
}

// Delete removes a batch of owners. The guard checks the whole id set; if any
// owner still holds product or expense shares the entire batch is rejected.
// The two counts are independent read-only queries, so they run in parallel.
func (s *Service) Delete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: no hay propietarios seleccionados", shared.ErrValidation)
	}

	var productShares, expenseShares int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		productShares, err = s.repo.CountProductShares(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		expenseShares, err = s.repo.CountExpenseShares(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	switch {
	case productShares > 0 && expenseShares > 0:
		return ErrHasBoth
	case productShares > 0:
		return ErrHasProducts
	case expenseShares > 0:
		return ErrHasExpenses
	}

	if err := s.repo.DeleteByIDs(ctx, ids); err != nil {
		return err
	}
	s.recordAudit(ctx, "owners:delete", 0, map[string]any{"ids": ids})
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "owner",
		EntityID: fmt.Sprintf("%d", id),
		Meta:     meta,
	})
}
