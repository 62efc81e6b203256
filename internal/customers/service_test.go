package customers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

type memoryRepo struct {
	customers map[int64]Customer
	unpaid    map[int64]int64
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{customers: make(map[int64]Customer), unpaid: make(map[int64]int64)}
}

func (r *memoryRepo) List(ctx context.Context) ([]Customer, error) {
	result := []Customer{}
	for _, c := range r.customers {
		result = append(result, c)
	}
	return result, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Customer, error) {
	if c, ok := r.customers[id]; ok {
		return c, nil
	}
	return Customer{}, shared.ErrNotFound
}

func (r *memoryRepo) NameExists(ctx context.Context, nameKey string, excludeID int64) (bool, error) {
	for id, c := range r.customers {
		if id != excludeID && shared.NormalizeName(c.Name) == nameKey {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepo) Create(ctx context.Context, customer Customer) (int64, error) {
	r.nextID++
	customer.ID = r.nextID
	r.customers[customer.ID] = customer
	return customer.ID, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, customer Customer) error {
	existing, ok := r.customers[id]
	if !ok {
		return shared.ErrNotFound
	}
	existing.Name = customer.Name
	existing.Phone = customer.Phone
	existing.Reference = customer.Reference
	r.customers[id] = existing
	return nil
}

func (r *memoryRepo) CountUnpaidSales(ctx context.Context, ids []int64) (int64, error) {
	var count int64
	for _, id := range ids {
		count += r.unpaid[id]
	}
	return count, nil
}

func (r *memoryRepo) DeleteByIDs(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		delete(r.customers, id)
	}
	return nil
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CustomerInput{Name: "María"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CustomerInput{Name: "  maría"})
	require.ErrorIs(t, err, ErrDuplicateName)
	require.Len(t, repo.customers, 1)
}

func TestDeleteBlockedByUnpaidSales(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	clean, err := svc.Create(ctx, CustomerInput{Name: "Clean"})
	require.NoError(t, err)
	debtor, err := svc.Create(ctx, CustomerInput{Name: "Debtor"})
	require.NoError(t, err)
	repo.unpaid[debtor.ID] = 3

	err = svc.Delete(ctx, []int64{clean.ID, debtor.ID})
	require.ErrorIs(t, err, ErrHasUnpaidSales)
	require.Len(t, repo.customers, 2)

	require.NoError(t, svc.Delete(ctx, []int64{clean.ID}))
	require.Len(t, repo.customers, 1)
}
