package sales

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mercurio-erp/mercurio-erp/internal/platform/db"
	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

// ProductState is the stock snapshot consulted before and re-read after the
// decrement.
type ProductState struct {
	ID                int64
	Name              string
	Price             float64
	Stock             int64
	LowStockThreshold int64
}

// Repository persists sales in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the statements of the commit transaction.
type TxRepository interface {
	InsertSale(ctx context.Context, sale Sale) (int64, error)
	InsertSaleItem(ctx context.Context, saleID int64, item SaleItem) error
	AdjustStock(ctx context.Context, productID, delta int64) error
	GetProductState(ctx context.Context, productID int64) (ProductState, error)
	InsertNotification(ctx context.Context, title, message, link string) error
	DeleteSaleItems(ctx context.Context, saleID int64) error
	DeleteSale(ctx context.Context, saleID int64) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx runs fn inside one transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *Repository) List(ctx context.Context) ([]Sale, error) {
	rows, err := r.pool.Query(ctx, `SELECT s.id, s.customer_id, c.name, s.payment_method, s.is_paid, s.paid_at, s.surcharge, s.total, s.created_at
FROM sales s
LEFT JOIN customers c ON c.id = s.customer_id
ORDER BY s.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sales := []Sale{}
	index := map[int64]int{}
	for rows.Next() {
		var s Sale
		if err := rows.Scan(&s.ID, &s.CustomerID, &s.CustomerName, &s.PaymentMethod, &s.IsPaid, &s.PaidAt, &s.Surcharge, &s.Total, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Items = []SaleItem{}
		index[s.ID] = len(sales)
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	itemRows, err := r.pool.Query(ctx, `SELECT i.id, i.sale_id, i.product_id, p.name, i.quantity, i.price
FROM sale_items i
JOIN products p ON p.id = i.product_id
ORDER BY i.sale_id, i.id`)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var saleID int64
		var item SaleItem
		if err := itemRows.Scan(&item.ID, &saleID, &item.ProductID, &item.ProductName, &item.Quantity, &item.Price); err != nil {
			return nil, err
		}
		if i, ok := index[saleID]; ok {
			sales[i].Items = append(sales[i].Items, item)
		}
	}
	return sales, itemRows.Err()
}

func (r *Repository) Get(ctx context.Context, id int64) (Sale, error) {
	var s Sale
	err := r.pool.QueryRow(ctx, `SELECT s.id, s.customer_id, c.name, s.payment_method, s.is_paid, s.paid_at, s.surcharge, s.total, s.created_at
FROM sales s
LEFT JOIN customers c ON c.id = s.customer_id
WHERE s.id = $1`, id).Scan(&s.ID, &s.CustomerID, &s.CustomerName, &s.PaymentMethod, &s.IsPaid, &s.PaidAt, &s.Surcharge, &s.Total, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Sale{}, shared.ErrNotFound
	}
	if err != nil {
		return Sale{}, err
	}

	rows, err := r.pool.Query(ctx, `SELECT i.id, i.product_id, p.name, i.quantity, i.price
FROM sale_items i
JOIN products p ON p.id = i.product_id
WHERE i.sale_id = $1 ORDER BY i.id`, id)
	if err != nil {
		return Sale{}, err
	}
	defer rows.Close()
	s.Items = []SaleItem{}
	for rows.Next() {
		var item SaleItem
		if err := rows.Scan(&item.ID, &item.ProductID, &item.ProductName, &item.Quantity, &item.Price); err != nil {
			return Sale{}, err
		}
		s.Items = append(s.Items, item)
	}
	return s, rows.Err()
}

// GetProductStates fetches the stock snapshot for every product in the cart.
// Missing ids simply do not appear in the result.
func (r *Repository) GetProductStates(ctx context.Context, ids []int64) (map[int64]ProductState, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, price, stock, low_stock_threshold FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	states := map[int64]ProductState{}
	for rows.Next() {
		var st ProductState
		if err := rows.Scan(&st.ID, &st.Name, &st.Price, &st.Stock, &st.LowStockThreshold); err != nil {
			return nil, err
		}
		states[st.ID] = st
	}
	return states, rows.Err()
}

func (r *Repository) CustomerExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (t *txRepository) InsertSale(ctx context.Context, sale Sale) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO sales (customer_id, payment_method, is_paid, paid_at, surcharge, total, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
		sale.CustomerID, sale.PaymentMethod, sale.IsPaid, sale.PaidAt, sale.Surcharge, sale.Total, sale.CreatedAt).Scan(&id)
	return id, err
}

func (t *txRepository) InsertSaleItem(ctx context.Context, saleID int64, item SaleItem) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO sale_items (sale_id, product_id, quantity, price) VALUES ($1,$2,$3,$4)`,
		saleID, item.ProductID, item.Quantity, item.Price)
	return err
}

func (t *txRepository) AdjustStock(ctx context.Context, productID, delta int64) error {
	tag, err := t.tx.Exec(ctx, `UPDATE products SET stock = stock + $2, updated_at = now() WHERE id = $1`, productID, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (t *txRepository) GetProductState(ctx context.Context, productID int64) (ProductState, error) {
	var st ProductState
	err := t.tx.QueryRow(ctx, `SELECT id, name, price, stock, low_stock_threshold FROM products WHERE id = $1`, productID).
		Scan(&st.ID, &st.Name, &st.Price, &st.Stock, &st.LowStockThreshold)
	if errors.Is(err, pgx.ErrNoRows) {
		return ProductState{}, shared.ErrNotFound
	}
	return st, err
}

func (t *txRepository) InsertNotification(ctx context.Context, title, message, link string) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO notifications (title, message, link, is_read, created_at) VALUES ($1,$2,$3,FALSE,$4)`,
		title, message, link, time.Now().UTC())
	return err
}

func (t *txRepository) DeleteSaleItems(ctx context.Context, saleID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM sale_items WHERE sale_id = $1`, saleID)
	return err
}

func (t *txRepository) DeleteSale(ctx context.Context, saleID int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM sales WHERE id = $1`, saleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
