package purchases

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mercurio-erp/mercurio-erp/internal/platform/db"
	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

// Repository persists purchases in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the statements that must share the transaction with
// the stock adjustment.
type TxRepository interface {
	InsertPurchase(ctx context.Context, purchase Purchase) (int64, error)
	UpdatePurchase(ctx context.Context, id int64, purchase Purchase) error
	DeletePurchase(ctx context.Context, id int64) error
	AdjustStock(ctx context.Context, productID, delta int64) error
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

func (r *Repository) List(ctx context.Context) ([]Purchase, error) {
	rows, err := r.pool.Query(ctx, `SELECT p.id, p.product_id, pr.name, p.supplier_id, s.name, p.quantity, p.total, p.payment_method, p.created_at
FROM purchases p
JOIN products pr ON pr.id = p.product_id
LEFT JOIN suppliers s ON s.id = p.supplier_id
ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	purchases := []Purchase{}
	for rows.Next() {
		var p Purchase
		if err := rows.Scan(&p.ID, &p.ProductID, &p.ProductName, &p.SupplierID, &p.SupplierName, &p.Quantity, &p.Total, &p.PaymentMethod, &p.CreatedAt); err != nil {
			return nil, err
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id int64) (Purchase, error) {
	var p Purchase
	err := r.pool.QueryRow(ctx, `SELECT id, product_id, supplier_id, quantity, total, payment_method, created_at
FROM purchases WHERE id = $1`, id).Scan(&p.ID, &p.ProductID, &p.SupplierID, &p.Quantity, &p.Total, &p.PaymentMethod, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Purchase{}, shared.ErrNotFound
	}
	return p, err
}

func (r *Repository) ProductExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *Repository) SupplierExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM suppliers WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (t *txRepository) InsertPurchase(ctx context.Context, purchase Purchase) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO purchases (product_id, supplier_id, quantity, total, payment_method, created_at)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		purchase.ProductID, purchase.SupplierID, purchase.Quantity, purchase.Total, purchase.PaymentMethod, purchase.CreatedAt).Scan(&id)
	return id, err
}

func (t *txRepository) UpdatePurchase(ctx context.Context, id int64, purchase Purchase) error {
	tag, err := t.tx.Exec(ctx, `UPDATE purchases SET product_id=$1, supplier_id=$2, quantity=$3, total=$4, payment_method=$5, created_at=$6
WHERE id = $7`,
		purchase.ProductID, purchase.SupplierID, purchase.Quantity, purchase.Total, purchase.PaymentMethod, purchase.CreatedAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (t *txRepository) DeletePurchase(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM purchases WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
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
