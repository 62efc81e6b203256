package expenses

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mercurio-erp/mercurio-erp/internal/ownership"
	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

type memoryRepo struct {
	expenses map[int64]Expense
	owners   map[int64]bool
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		expenses: make(map[int64]Expense),
		owners:   make(map[int64]bool),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) List(ctx context.Context) ([]Expense, error) {
	result := []Expense{}
	for _, e := range r.expenses {
		result = append(result, e)
	}
	return result, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Expense, error) {
	if e, ok := r.expenses[id]; ok {
		return e, nil
	}
	return Expense{}, shared.ErrNotFound
}

func (r *memoryRepo) OwnersExist(ctx context.Context, ids []int64) (bool, error) {
	for _, id := range ids {
		if !r.owners[id] {
			return false, nil
		}
	}
	return true, nil
}

func (r *memoryRepo) DeleteByIDs(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		delete(r.expenses, id)
	}
	return nil
}

type memoryTx struct {
	repo *memoryRepo
}

func (t *memoryTx) InsertExpense(ctx context.Context, expense Expense) (int64, error) {
	t.repo.nextID++
	expense.ID = t.repo.nextID
	t.repo.expenses[expense.ID] = expense
	return expense.ID, nil
}

func (t *memoryTx) UpdateExpense(ctx context.Context, id int64, expense Expense) error {
	existing, ok := t.repo.expenses[id]
	if !ok {
		return shared.ErrNotFound
	}
	expense.ID = id
	expense.Owners = existing.Owners
	expense.CreatedAt = existing.CreatedAt
	t.repo.expenses[id] = expense
	return nil
}

func (t *memoryTx) ReplaceShares(ctx context.Context, expenseID int64, shares []ownership.Share) error {
	e, ok := t.repo.expenses[expenseID]
	if !ok {
		return shared.ErrNotFound
	}
	e.Owners = append([]ownership.Share{}, shares...)
	t.repo.expenses[expenseID] = e
	return nil
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func newTestService(repo *memoryRepo) *Service {
	now := time.Date(2024, 5, 10, 14, 30, 0, 0, time.UTC)
	return NewService(repo, nil, fixedClock(now), -3*time.Hour)
}

func TestCreateStoresSplit(t *testing.T) {
	repo := newMemoryRepo()
	repo.owners[1] = true
	repo.owners[2] = true
	svc := newTestService(repo)
	ctx := context.Background()

	expense, err := svc.Create(ctx, ExpenseInput{
		Category:      "alquiler",
		Amount:        500,
		PaymentMethod: "transferencia",
		Owners: []ownership.Share{
			{OwnerID: 1, Percentage: 50},
			{OwnerID: 2, Percentage: 50},
		},
	})
	require.NoError(t, err)
	require.Len(t, expense.Owners, 2)
}

func TestCreateRejectsBadSplitWithoutWriting(t *testing.T) {
	repo := newMemoryRepo()
	repo.owners[1] = true
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, ExpenseInput{
		Category:      "alquiler",
		Amount:        500,
		PaymentMethod: "transferencia",
		Owners:        []ownership.Share{{OwnerID: 1, Percentage: 99}},
	})
	require.ErrorIs(t, err, ownership.ErrBadSplit)
	require.Empty(t, repo.expenses)
}

func TestUpdateRejectionKeepsStoredState(t *testing.T) {
	repo := newMemoryRepo()
	repo.owners[1] = true
	svc := newTestService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, ExpenseInput{
		Category:      "alquiler",
		Amount:        500,
		PaymentMethod: "transferencia",
		Owners:        []ownership.Share{{OwnerID: 1, Percentage: 100}},
	})
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, ExpenseInput{
		Category:      "alquiler",
		Amount:        600,
		PaymentMethod: "transferencia",
		Owners:        []ownership.Share{{OwnerID: 1, Percentage: 101}},
	})
	require.ErrorIs(t, err, ownership.ErrBadSplit)

	stored, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, float64(500), stored.Amount)
	require.Equal(t, []ownership.Share{{OwnerID: 1, Percentage: 100}}, stored.Owners)
}

func TestCreateRejectsUnknownOwner(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, ExpenseInput{
		Category:      "alquiler",
		Amount:        500,
		PaymentMethod: "transferencia",
		Owners:        []ownership.Share{{OwnerID: 9, Percentage: 100}},
	})
	require.ErrorIs(t, err, ownership.ErrUnknownOwner)
}
