package expenses

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mercurio-erp/mercurio-erp/internal/ownership"
	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

// RepositoryPort abstracts storage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context) ([]Expense, error)
	Get(ctx context.Context, id int64) (Expense, error)
	OwnersExist(ctx context.Context, ids []int64) (bool, error)
	DeleteByIDs(ctx context.Context, ids []int64) error
}

// AuditPort records mutations after they commit.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Clock returns the current time; swapped out in tests.
type Clock func() time.Time

// Service coordinates expense operations.
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

func (s *Service) List(ctx context.Context) ([]Expense, error) {
	expenses, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range expenses {
		expenses[i].LocalDate = shared.LocalDate(expenses[i].CreatedAt, s.localOffset)
	}
	return expenses, nil
}

// Create validates the input and ownership split, then inserts the expense
// and its shares in one transaction.
func (s *Service) Create(ctx context.Context, input ExpenseInput) (Expense, error) {
	expense, err := s.validated(ctx, input)
	if err != nil {
		return Expense{}, err
	}

	now := s.now()
	expense.CreatedAt = now
	if input.Date != "" {
		day, err := time.Parse("2006-01-02", input.Date)
		if err != nil {
			return Expense{}, fmt.Errorf("%w: fecha inválida", shared.ErrValidation)
		}
		expense.CreatedAt = shared.CombineDateTime(day, now)
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertExpense(ctx, expense)
		if err != nil {
			return err
		}
		expense.ID = id
		return tx.ReplaceShares(ctx, id, expense.Owners)
	})
	if err != nil {
		return Expense{}, err
	}
	s.recordAudit(ctx, "expenses:create", expense.ID, map[string]any{"category": expense.Category, "amount": expense.Amount})
	expense.LocalDate = shared.LocalDate(expense.CreatedAt, s.localOffset)
	return expense, nil
}

// Update rewrites the expense row and swaps the share set wholesale.
func (s *Service) Update(ctx context.Context, id int64, input ExpenseInput) (Expense, error) {
	expense, err := s.validated(ctx, input)
	if err != nil {
		return Expense{}, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateExpense(ctx, id, expense); err != nil {
			return err
		}
		return tx.ReplaceShares(ctx, id, expense.Owners)
	})
	if err != nil {
		return Expense{}, err
	}
	s.recordAudit(ctx, "expenses:update", id, map[string]any{"category": expense.Category})
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: no hay gastos seleccionados", shared.ErrValidation)
	}
	if err := s.repo.DeleteByIDs(ctx, ids); err != nil {
		return err
	}
	s.recordAudit(ctx, "expenses:delete", 0, map[string]any{"ids": ids})
	return nil
}

func (s *Service) validated(ctx context.Context, input ExpenseInput) (Expense, error) {
	category := strings.TrimSpace(input.Category)
	if category == "" {
		return Expense{}, fmt.Errorf("%w: la categoría es obligatoria", shared.ErrValidation)
	}
	if input.Amount <= 0 {
		return Expense{}, fmt.Errorf("%w: el monto debe ser mayor a 0", shared.ErrValidation)
	}
	if err := ownership.Validate(input.Owners); err != nil {
		return Expense{}, err
	}

	ownerIDs := make([]int64, 0, len(input.Owners))
	for _, share := range input.Owners {
		ownerIDs = append(ownerIDs, share.OwnerID)
	}
	exist, err := s.repo.OwnersExist(ctx, ownerIDs)
	if err != nil {
		return Expense{}, err
	}
	if !exist {
		return Expense{}, ownership.ErrUnknownOwner
	}

	return Expense{
		Category:      category,
		Description:   input.Description,
		Amount:        input.Amount,
		PaymentMethod: input.PaymentMethod,
		Owners:        input.Owners,
	}, nil
}

func (s *Service) recordAudit(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "expense",
		EntityID: fmt.Sprintf("%d", id),
		Meta:     meta,
	})
}
