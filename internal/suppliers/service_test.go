package suppliers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

type memoryRepo struct {
	suppliers map[int64]Supplier
	purchases map[int64]int64
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		suppliers: make(map[int64]Supplier),
		purchases: make(map[int64]int64),
	}
}

func (r *memoryRepo) List(ctx context.Context) ([]Supplier, error) {
	result := []Supplier{}
	for _, s := range r.suppliers {
		result = append(result, s)
	}
	return result, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Supplier, error) {
	if s, ok := r.suppliers[id]; ok {
		return s, nil
	}
	return Supplier{}, shared.ErrNotFound
}

func (r *memoryRepo) NameExists(ctx context.Context, nameKey string, excludeID int64) (bool, error) {
	for id, s := range r.suppliers {
		if id != excludeID && shared.NormalizeName(s.Name) == nameKey {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepo) Create(ctx context.Context, supplier Supplier) (int64, error) {
	r.nextID++
	supplier.ID = r.nextID
	r.suppliers[supplier.ID] = supplier
	return supplier.ID, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, supplier Supplier) error {
	existing, ok := r.suppliers[id]
	if !ok {
		return shared.ErrNotFound
	}
	existing.Name = supplier.Name
	existing.Phone = supplier.Phone
	existing.Address = supplier.Address
	r.suppliers[id] = existing
	return nil
}

func (r *memoryRepo) CountPurchases(ctx context.Context, ids []int64) (int64, error) {
	var count int64
	for _, id := range ids {
		count += r.purchases[id]
	}
	return count, nil
}

func (r *memoryRepo) DeleteByIDs(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		delete(r.suppliers, id)
	}
	return nil
}

func TestCreateRejectsDuplicateNameVariants(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, SupplierInput{Name: "distribuidora sur"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, SupplierInput{Name: " Distribuidora SUR "})
	require.ErrorIs(t, err, ErrDuplicateName)
	require.Len(t, repo.suppliers, 1)
}

func TestDeleteGuardRejectsWholeBatch(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	free, err := svc.Create(ctx, SupplierInput{Name: "Libre"})
	require.NoError(t, err)
	busy, err := svc.Create(ctx, SupplierInput{Name: "Ocupado"})
	require.NoError(t, err)
	repo.purchases[busy.ID] = 4

	err = svc.Delete(ctx, []int64{free.ID, busy.ID})
	require.ErrorIs(t, err, ErrHasPurchases)
	require.Len(t, repo.suppliers, 2)

	require.NoError(t, svc.Delete(ctx, []int64{free.ID}))
	require.Len(t, repo.suppliers, 1)
}
