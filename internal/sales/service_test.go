package sales

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

type storedNotification struct {
	Title   string
	Message string
	Link    string
}

type memoryRepo struct {
	sales         map[int64]Sale
	products      map[int64]ProductState
	customers     map[int64]bool
	notifications []storedNotification
	nextID        int64
	nextItemID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		sales:     make(map[int64]Sale),
		products:  make(map[int64]ProductState),
		customers: make(map[int64]bool),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) List(ctx context.Context) ([]Sale, error) {
	result := []Sale{}
	for _, s := range r.sales {
		result = append(result, s)
	}
	return result, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Sale, error) {
	if s, ok := r.sales[id]; ok {
		return s, nil
	}
	return Sale{}, shared.ErrNotFound
}

func (r *memoryRepo) GetProductStates(ctx context.Context, ids []int64) (map[int64]ProductState, error) {
	states := map[int64]ProductState{}
	for _, id := range ids {
		if st, ok := r.products[id]; ok {
			states[id] = st
		}
	}
	return states, nil
}

func (r *memoryRepo) CustomerExists(ctx context.Context, id int64) (bool, error) {
	return r.customers[id], nil
}

type memoryTx struct {
	repo *memoryRepo
}

func (t *memoryTx) InsertSale(ctx context.Context, sale Sale) (int64, error) {
	t.repo.nextID++
	sale.ID = t.repo.nextID
	sale.Items = []SaleItem{}
	t.repo.sales[sale.ID] = sale
	return sale.ID, nil
}

func (t *memoryTx) InsertSaleItem(ctx context.Context, saleID int64, item SaleItem) error {
	sale, ok := t.repo.sales[saleID]
	if !ok {
		return shared.ErrNotFound
	}
	t.repo.nextItemID++
	item.ID = t.repo.nextItemID
	sale.Items = append(sale.Items, item)
	t.repo.sales[saleID] = sale
	return nil
}

func (t *memoryTx) AdjustStock(ctx context.Context, productID, delta int64) error {
	st, ok := t.repo.products[productID]
	if !ok {
		return shared.ErrNotFound
	}
	st.Stock += delta
	t.repo.products[productID] = st
	return nil
}

func (t *memoryTx) GetProductState(ctx context.Context, productID int64) (ProductState, error) {
	if st, ok := t.repo.products[productID]; ok {
		return st, nil
	}
	return ProductState{}, shared.ErrNotFound
}

func (t *memoryTx) InsertNotification(ctx context.Context, title, message, link string) error {
	t.repo.notifications = append(t.repo.notifications, storedNotification{Title: title, Message: message, Link: link})
	return nil
}

func (t *memoryTx) DeleteSaleItems(ctx context.Context, saleID int64) error {
	sale, ok := t.repo.sales[saleID]
	if !ok {
		return nil
	}
	sale.Items = nil
	t.repo.sales[saleID] = sale
	return nil
}

func (t *memoryTx) DeleteSale(ctx context.Context, saleID int64) error {
	if _, ok := t.repo.sales[saleID]; !ok {
		return shared.ErrNotFound
	}
	delete(t.repo.sales, saleID)
	return nil
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func newTestService(repo *memoryRepo) *Service {
	now := time.Date(2024, 5, 10, 14, 30, 0, 0, time.UTC)
	return NewService(repo, nil, nil, fixedClock(now), -3*time.Hour)
}

func TestLowStockNotificationsUseFreshCounts(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = ProductState{ID: 1, Name: "Yerba", Price: 100, Stock: 10, LowStockThreshold: 3}
	svc := newTestService(repo)
	ctx := context.Background()

	first, err := svc.Create(ctx, SaleInput{
		PaymentMethod: "efectivo",
		Items:         []SaleItemInput{{ProductID: 1, Quantity: 8}},
	}, "")
	require.NoError(t, err)
	require.Equal(t, int64(2), repo.products[1].Stock)
	require.Len(t, repo.notifications, 1)
	require.Equal(t, "Últimas Unidades", repo.notifications[0].Title)

	_, err = svc.Create(ctx, SaleInput{
		PaymentMethod: "efectivo",
		Items:         []SaleItemInput{{ProductID: 1, Quantity: 2}},
	}, "")
	require.NoError(t, err)
	require.Equal(t, int64(0), repo.products[1].Stock)
	require.Len(t, repo.notifications, 2)
	require.Equal(t, "Sin Stock", repo.notifications[1].Title)

	// Reverting the first sale restores its recorded quantity.
	require.NoError(t, svc.Delete(ctx, first.ID))
	require.Equal(t, int64(8), repo.products[1].Stock)
}

func TestCreateRejectsInsufficientStockBeforeWriting(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = ProductState{ID: 1, Name: "Yerba", Price: 100, Stock: 5, LowStockThreshold: 3}
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, SaleInput{
		PaymentMethod: "efectivo",
		Items:         []SaleItemInput{{ProductID: 1, Quantity: 6}},
	}, "")
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Contains(t, err.Error(), "Yerba")
	require.Empty(t, repo.sales)
	require.Equal(t, int64(5), repo.products[1].Stock)
}

func TestCreateChecksCombinedQuantityPerProduct(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = ProductState{ID: 1, Name: "Yerba", Price: 100, Stock: 5, LowStockThreshold: 0}
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, SaleInput{
		PaymentMethod: "efectivo",
		Items: []SaleItemInput{
			{ProductID: 1, Quantity: 3},
			{ProductID: 1, Quantity: 3},
		},
	}, "")
	require.ErrorIs(t, err, ErrInsufficientStock)
}

func TestImmediateSaleSettlesAtCreation(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = ProductState{ID: 1, Name: "Yerba", Price: 150, Stock: 10, LowStockThreshold: 0}
	svc := newTestService(repo)
	ctx := context.Background()

	sale, err := svc.Create(ctx, SaleInput{
		PaymentMethod: "tarjeta",
		Surcharge:     5,
		Items:         []SaleItemInput{{ProductID: 1, Quantity: 1}},
	}, "")
	require.NoError(t, err)
	require.True(t, sale.IsPaid)
	require.NotNil(t, sale.PaidAt)
	require.Equal(t, sale.CreatedAt, *sale.PaidAt)
	require.Equal(t, 157.5, sale.Total)
}

func TestCustomerSaleStoresZeroTotalUntilBilled(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = ProductState{ID: 1, Name: "Yerba", Price: 150, Stock: 10, LowStockThreshold: 0}
	repo.customers[7] = true
	svc := newTestService(repo)
	ctx := context.Background()

	customerID := int64(7)
	sale, err := svc.Create(ctx, SaleInput{
		CustomerID:    &customerID,
		PaymentMethod: "cuenta corriente",
		Items:         []SaleItemInput{{ProductID: 1, Quantity: 2}},
	}, "")
	require.NoError(t, err)
	require.False(t, sale.IsPaid)
	require.Nil(t, sale.PaidAt)
	require.Equal(t, float64(0), sale.Total)
	require.Equal(t, float64(150), sale.Items[0].Price)
}

func TestCreateRejectsMalformedLines(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, SaleInput{PaymentMethod: "efectivo"}, "")
	require.ErrorIs(t, err, ErrInvalidLineItem)

	_, err = svc.Create(ctx, SaleInput{
		PaymentMethod: "efectivo",
		Items:         []SaleItemInput{{ProductID: 1, Quantity: 0}},
	}, "")
	require.ErrorIs(t, err, ErrInvalidLineItem)
}

func TestBackdatedSaleKeepsTimeOfDay(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = ProductState{ID: 1, Name: "Yerba", Price: 100, Stock: 10, LowStockThreshold: 0}
	svc := newTestService(repo)
	ctx := context.Background()

	sale, err := svc.Create(ctx, SaleInput{
		PaymentMethod: "efectivo",
		Date:          "2024-04-03",
		Items:         []SaleItemInput{{ProductID: 1, Quantity: 1}},
	}, "")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 4, 3, 14, 30, 0, 0, time.UTC), sale.CreatedAt)
}
