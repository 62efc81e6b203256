package purchases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

type memoryRepo struct {
	purchases map[int64]Purchase
	stock     map[int64]int64
	suppliers map[int64]bool
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		purchases: make(map[int64]Purchase),
		stock:     make(map[int64]int64),
		suppliers: make(map[int64]bool),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) List(ctx context.Context) ([]Purchase, error) {
	result := []Purchase{}
	for _, p := range r.purchases {
		result = append(result, p)
	}
	return result, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Purchase, error) {
	if p, ok := r.purchases[id]; ok {
		return p, nil
	}
	return Purchase{}, shared.ErrNotFound
}

func (r *memoryRepo) ProductExists(ctx context.Context, id int64) (bool, error) {
	_, ok := r.stock[id]
	return ok, nil
}

func (r *memoryRepo) SupplierExists(ctx context.Context, id int64) (bool, error) {
	return r.suppliers[id], nil
}

type memoryTx struct {
	repo *memoryRepo
}

func (t *memoryTx) InsertPurchase(ctx context.Context, purchase Purchase) (int64, error) {
	t.repo.nextID++
	purchase.ID = t.repo.nextID
	t.repo.purchases[purchase.ID] = purchase
	return purchase.ID, nil
}

func (t *memoryTx) UpdatePurchase(ctx context.Context, id int64, purchase Purchase) error {
	if _, ok := t.repo.purchases[id]; !ok {
		return shared.ErrNotFound
	}
	purchase.ID = id
	t.repo.purchases[id] = purchase
	return nil
}

func (t *memoryTx) DeletePurchase(ctx context.Context, id int64) error {
	if _, ok := t.repo.purchases[id]; !ok {
		return shared.ErrNotFound
	}
	delete(t.repo.purchases, id)
	return nil
}

func (t *memoryTx) AdjustStock(ctx context.Context, productID, delta int64) error {
	if _, ok := t.repo.stock[productID]; !ok {
		return shared.ErrNotFound
	}
	t.repo.stock[productID] += delta
	return nil
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func TestCreateAppliesQuantityToStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.stock[1] = 5
	now := time.Date(2024, 5, 10, 14, 30, 0, 0, time.UTC)
	svc := NewService(repo, nil, nil, fixedClock(now), -3*time.Hour)
	ctx := context.Background()

	purchase, err := svc.Create(ctx, PurchaseInput{ProductID: 1, Quantity: 7, Total: 350, PaymentMethod: "efectivo"}, "")
	require.NoError(t, err)
	require.Equal(t, int64(12), repo.stock[1])
	require.Equal(t, now, purchase.CreatedAt)
}

func TestCreateBackdatedKeepsTimeOfDay(t *testing.T) {
	repo := newMemoryRepo()
	repo.stock[1] = 0
	now := time.Date(2024, 5, 10, 14, 30, 45, 0, time.UTC)
	svc := NewService(repo, nil, nil, fixedClock(now), -3*time.Hour)
	ctx := context.Background()

	purchase, err := svc.Create(ctx, PurchaseInput{ProductID: 1, Quantity: 2, Total: 80, PaymentMethod: "efectivo", Date: "2024-04-03"}, "")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 4, 3, 14, 30, 45, 0, time.UTC), purchase.CreatedAt)
}

func TestCreateRejectsUnknownProduct(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil, -3*time.Hour)
	ctx := context.Background()

	_, err := svc.Create(ctx, PurchaseInput{ProductID: 9, Quantity: 1, Total: 10, PaymentMethod: "efectivo"}, "")
	require.ErrorIs(t, err, ErrProductNotFound)
	require.Empty(t, repo.purchases)
}

func TestUpdateAdjustsStockByQuantityDelta(t *testing.T) {
	repo := newMemoryRepo()
	repo.stock[1] = 5
	svc := NewService(repo, nil, nil, nil, -3*time.Hour)
	ctx := context.Background()

	purchase, err := svc.Create(ctx, PurchaseInput{ProductID: 1, Quantity: 7, Total: 350, PaymentMethod: "efectivo"}, "")
	require.NoError(t, err)
	require.Equal(t, int64(12), repo.stock[1])

	updated, err := svc.Update(ctx, purchase.ID, PurchaseInput{ProductID: 1, Quantity: 4, Total: 200, PaymentMethod: "efectivo"})
	require.NoError(t, err)
	require.Equal(t, int64(9), repo.stock[1])
	require.Equal(t, int64(4), repo.purchases[purchase.ID].Quantity)

	// the delete still reverts what the row now records
	require.NoError(t, svc.Delete(ctx, updated.ID))
	require.Equal(t, int64(5), repo.stock[1])
}

func TestUpdateMovesStockBetweenProducts(t *testing.T) {
	repo := newMemoryRepo()
	repo.stock[1] = 0
	repo.stock[2] = 10
	svc := NewService(repo, nil, nil, nil, -3*time.Hour)
	ctx := context.Background()

	purchase, err := svc.Create(ctx, PurchaseInput{ProductID: 1, Quantity: 6, Total: 120, PaymentMethod: "efectivo"}, "")
	require.NoError(t, err)
	require.Equal(t, int64(6), repo.stock[1])

	_, err = svc.Update(ctx, purchase.ID, PurchaseInput{ProductID: 2, Quantity: 3, Total: 60, PaymentMethod: "efectivo"})
	require.NoError(t, err)
	require.Equal(t, int64(0), repo.stock[1])
	require.Equal(t, int64(13), repo.stock[2])
}

func TestUpdateRejectsUnknownPurchase(t *testing.T) {
	repo := newMemoryRepo()
	repo.stock[1] = 5
	svc := NewService(repo, nil, nil, nil, -3*time.Hour)
	ctx := context.Background()

	_, err := svc.Update(ctx, 99, PurchaseInput{ProductID: 1, Quantity: 2, Total: 40, PaymentMethod: "efectivo"})
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Equal(t, int64(5), repo.stock[1])
}

func TestDeleteRevertsRecordedQuantity(t *testing.T) {
	repo := newMemoryRepo()
	repo.stock[1] = 5
	svc := NewService(repo, nil, nil, nil, -3*time.Hour)
	ctx := context.Background()

	purchase, err := svc.Create(ctx, PurchaseInput{ProductID: 1, Quantity: 7, Total: 350, PaymentMethod: "efectivo"}, "")
	require.NoError(t, err)
	require.Equal(t, int64(12), repo.stock[1])

	require.NoError(t, svc.Delete(ctx, purchase.ID))
	require.Equal(t, int64(5), repo.stock[1])
	require.Empty(t, repo.purchases)
}

type memoryIdempotency struct {
	keys map[string]bool
}

func (s *memoryIdempotency) CheckAndInsert(ctx context.Context, key, module string) error {
	if s.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	s.keys[key] = true
	return nil
}

func (s *memoryIdempotency) Delete(ctx context.Context, key string) error {
	delete(s.keys, key)
	return nil
}

func TestCreateRejectsRepeatedIdempotencyKey(t *testing.T) {
	repo := newMemoryRepo()
	repo.stock[1] = 0
	idem := &memoryIdempotency{keys: map[string]bool{}}
	svc := NewService(repo, idem, nil, nil, -3*time.Hour)
	ctx := context.Background()

	input := PurchaseInput{ProductID: 1, Quantity: 3, Total: 90, PaymentMethod: "efectivo"}
	_, err := svc.Create(ctx, input, "key-1")
	require.NoError(t, err)
	require.Equal(t, int64(3), repo.stock[1])

	_, err = svc.Create(ctx, input, "key-1")
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	require.Equal(t, int64(3), repo.stock[1])
	require.Len(t, repo.purchases, 1)
}
