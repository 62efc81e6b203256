package owners

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

type memoryRepo struct {
	owners        map[int64]Owner
	productShares map[int64]int64
	expenseShares map[int64]int64
	nextID        int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		owners:        make(map[int64]Owner),
		productShares: make(map[int64]int64),
		expenseShares: make(map[int64]int64),
	}
}

func (r *memoryRepo) List(ctx context.Context) ([]Owner, error) {
	result := []Owner{}
	for _, o := range r.owners {
		result = append(result, o)
	}
	return result, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Owner, error) {
	if o, ok := r.owners[id]; ok {
		return o, nil
	}
	return Owner{}, shared.ErrNotFound
}

func (r *memoryRepo) NameExists(ctx context.Context, nameKey string, excludeID int64) (bool, error) {
	for id, o := range r.owners {
		if id != excludeID && shared.NormalizeName(o.Name) == nameKey {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepo) Create(ctx context.Context, owner Owner) (int64, error) {
	r.nextID++
	owner.ID = r.nextID
	r.owners[owner.ID] = owner
	return owner.ID, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, owner Owner) error {
	existing, ok := r.owners[id]
	if !ok {
		return shared.ErrNotFound
	}
	existing.Name = owner.Name
	existing.Alias = owner.Alias
	r.owners[id] = existing
	return nil
}

func (r *memoryRepo) CountProductShares(ctx context.Context, ids []int64) (int64, error) {
	var count int64
	for _, id := range ids {
		count += r.productShares[id]
	}
	return count, nil
}

func (r *memoryRepo) CountExpenseShares(ctx context.Context, ids []int64) (int64, error) {
	var count int64
	for _, id := range ids {
		count += r.expenseShares[id]
	}
	return count, nil
}

func (r *memoryRepo) DeleteByIDs(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		delete(r.owners, id)
	}
	return nil
}

func TestCreateRejectsDuplicateNameVariants(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, OwnerInput{Name: "alice"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, OwnerInput{Name: " Alice "})
	require.ErrorIs(t, err, ErrDuplicateName)
	require.Len(t, repo.owners, 1)
}

func TestUpdateAllowsKeepingOwnName(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, OwnerInput{Name: "Bob"})
	require.NoError(t, err)

	alias := "bobby"
	updated, err := svc.Update(ctx, created.ID, OwnerInput{Name: "BOB", Alias: &alias})
	require.NoError(t, err)
	require.Equal(t, "BOB", updated.Name)
	require.Equal(t, "bobby", *updated.Alias)
}

func TestDeleteGuardRejectsWholeBatch(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	free, err := svc.Create(ctx, OwnerInput{Name: "Free"})
	require.NoError(t, err)
	busy, err := svc.Create(ctx, OwnerInput{Name: "Busy"})
	require.NoError(t, err)
	repo.productShares[busy.ID] = 2

	err = svc.Delete(ctx, []int64{free.ID, busy.ID})
	require.ErrorIs(t, err, ErrHasProducts)
	// Nothing from the batch may be deleted.
	require.Len(t, repo.owners, 2)

	repo.expenseShares[busy.ID] = 1
	err = svc.Delete(ctx, []int64{busy.ID})
	require.ErrorIs(t, err, ErrHasBoth)

	require.NoError(t, svc.Delete(ctx, []int64{free.ID}))
	require.Len(t, repo.owners, 1)
}
