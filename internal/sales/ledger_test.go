package sales

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mercurio-erp/mercurio-erp/internal/purchases"
	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

// purchaseLedger adapts the sales fake so the purchase flow moves the same
// stock counters, like both services writing the one products table.
type purchaseLedger struct {
	repo   *memoryRepo
	rows   map[int64]purchases.Purchase
	nextID int64
}

func newPurchaseLedger(repo *memoryRepo) *purchaseLedger {
	return &purchaseLedger{repo: repo, rows: make(map[int64]purchases.Purchase)}
}

func (l *purchaseLedger) WithTx(ctx context.Context, fn func(context.Context, purchases.TxRepository) error) error {
	return fn(ctx, &purchaseLedgerTx{ledger: l})
}

func (l *purchaseLedger) List(ctx context.Context) ([]purchases.Purchase, error) {
	result := []purchases.Purchase{}
	for _, p := range l.rows {
		result = append(result, p)
	}
	return result, nil
}

func (l *purchaseLedger) Get(ctx context.Context, id int64) (purchases.Purchase, error) {
	if p, ok := l.rows[id]; ok {
		return p, nil
	}
	return purchases.Purchase{}, shared.ErrNotFound
}

func (l *purchaseLedger) ProductExists(ctx context.Context, id int64) (bool, error) {
	_, ok := l.repo.products[id]
	return ok, nil
}

func (l *purchaseLedger) SupplierExists(ctx context.Context, id int64) (bool, error) {
	return true, nil
}

type purchaseLedgerTx struct {
	ledger *purchaseLedger
}

func (t *purchaseLedgerTx) InsertPurchase(ctx context.Context, purchase purchases.Purchase) (int64, error) {
	t.ledger.nextID++
	purchase.ID = t.ledger.nextID
	t.ledger.rows[purchase.ID] = purchase
	return purchase.ID, nil
}

func (t *purchaseLedgerTx) UpdatePurchase(ctx context.Context, id int64, purchase purchases.Purchase) error {
	if _, ok := t.ledger.rows[id]; !ok {
		return shared.ErrNotFound
	}
	purchase.ID = id
	t.ledger.rows[id] = purchase
	return nil
}

func (t *purchaseLedgerTx) DeletePurchase(ctx context.Context, id int64) error {
	if _, ok := t.ledger.rows[id]; !ok {
		return shared.ErrNotFound
	}
	delete(t.ledger.rows, id)
	return nil
}

func (t *purchaseLedgerTx) AdjustStock(ctx context.Context, productID, delta int64) error {
	st, ok := t.ledger.repo.products[productID]
	if !ok {
		return shared.ErrNotFound
	}
	st.Stock += delta
	t.ledger.repo.products[productID] = st
	return nil
}

// stockOnHand recomputes the expected stock from the surviving rows: initial
// count plus purchased quantities minus sold quantities.
func stockOnHand(initial int64, ledger *purchaseLedger, repo *memoryRepo, productID int64) int64 {
	onHand := initial
	for _, p := range ledger.rows {
		if p.ProductID == productID {
			onHand += p.Quantity
		}
	}
	for _, s := range repo.sales {
		for _, item := range s.Items {
			if item.ProductID == productID {
				onHand -= item.Quantity
			}
		}
	}
	return onHand
}

func TestStockSurvivesInterleavedPurchasesAndSales(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = ProductState{ID: 1, Name: "Yerba", Price: 100, Stock: 0, LowStockThreshold: 0}
	ledger := newPurchaseLedger(repo)

	now := time.Date(2024, 5, 10, 14, 30, 0, 0, time.UTC)
	salesSvc := NewService(repo, nil, nil, fixedClock(now), -3*time.Hour)
	purchasesSvc := purchases.NewService(ledger, nil, nil, func() time.Time { return now }, -3*time.Hour)
	ctx := context.Background()

	check := func() {
		t.Helper()
		require.Equal(t, stockOnHand(0, ledger, repo, 1), repo.products[1].Stock)
	}

	_, err := purchasesSvc.Create(ctx, purchases.PurchaseInput{ProductID: 1, Quantity: 10, Total: 500, PaymentMethod: "efectivo"}, "")
	require.NoError(t, err)
	check()

	firstSale, err := salesSvc.Create(ctx, SaleInput{
		PaymentMethod: "efectivo",
		Items:         []SaleItemInput{{ProductID: 1, Quantity: 4}},
	}, "")
	require.NoError(t, err)
	require.Equal(t, int64(6), repo.products[1].Stock)
	check()

	secondPurchase, err := purchasesSvc.Create(ctx, purchases.PurchaseInput{ProductID: 1, Quantity: 5, Total: 250, PaymentMethod: "efectivo"}, "")
	require.NoError(t, err)
	check()

	_, err = salesSvc.Create(ctx, SaleInput{
		PaymentMethod: "efectivo",
		Items:         []SaleItemInput{{ProductID: 1, Quantity: 6}},
	}, "")
	require.NoError(t, err)
	require.Equal(t, int64(5), repo.products[1].Stock)
	check()

	// Reverting entries from either side restores their recorded quantities.
	require.NoError(t, salesSvc.Delete(ctx, firstSale.ID))
	check()

	require.NoError(t, purchasesSvc.Delete(ctx, secondPurchase.ID))
	require.Equal(t, int64(4), repo.products[1].Stock)
	check()
}
