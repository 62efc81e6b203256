package billing

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mercurio-erp/mercurio-erp/internal/platform/db"
	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

// UnpaidSale is one unpaid customer sale with its item-derived total.
type UnpaidSale struct {
	SaleID       int64
	CustomerID   int64
	CustomerName string
	CreatedAt    time.Time
	Total        float64
}

// Repository reads unpaid sales and persists settlements.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the settlement statements.
type TxRepository interface {
	MarkSalePaid(ctx context.Context, saleID int64, total, surcharge float64, method string, paidAt time.Time) error
	InsertPayment(ctx context.Context, payment Payment) (int64, error)
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

// UnpaidSales returns every unpaid customer sale with its total summed from
// line items.
func (r *Repository) UnpaidSales(ctx context.Context) ([]UnpaidSale, error) {
	rows, err := r.pool.Query(ctx, `SELECT s.id, s.customer_id, c.name, s.created_at, COALESCE(SUM(i.quantity * i.price), 0)
FROM sales s
JOIN customers c ON c.id = s.customer_id
LEFT JOIN sale_items i ON i.sale_id = s.id
WHERE s.is_paid = FALSE AND s.customer_id IS NOT NULL
GROUP BY s.id, s.customer_id, c.name, s.created_at
ORDER BY s.created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sales := []UnpaidSale{}
	for rows.Next() {
		var s UnpaidSale
		if err := rows.Scan(&s.SaleID, &s.CustomerID, &s.CustomerName, &s.CreatedAt, &s.Total); err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

func (r *Repository) ListPayments(ctx context.Context) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `SELECT p.id, p.customer_id, c.name, p.method, p.amount, p.surcharge, p.period, p.created_at
FROM payments p
JOIN customers c ON c.id = p.customer_id
ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	payments := []Payment{}
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.CustomerID, &p.CustomerName, &p.Method, &p.Amount, &p.Surcharge, &p.Period, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *Repository) UpdatePayment(ctx context.Context, id int64, input PaymentUpdateInput) error {
	tag, err := r.pool.Exec(ctx, `UPDATE payments SET customer_id=$1, method=$2, amount=$3, surcharge=$4 WHERE id = $5`,
		input.CustomerID, input.Method, input.Amount, input.Surcharge, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *Repository) DeletePayment(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (t *txRepository) MarkSalePaid(ctx context.Context, saleID int64, total, surcharge float64, method string, paidAt time.Time) error {
	tag, err := t.tx.Exec(ctx, `UPDATE sales SET is_paid = TRUE, total = $2, surcharge = $3, payment_method = $4, paid_at = $5
WHERE id = $1 AND is_paid = FALSE`, saleID, total, surcharge, method, paidAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (t *txRepository) InsertPayment(ctx context.Context, payment Payment) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO payments (customer_id, method, amount, surcharge, period, created_at)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		payment.CustomerID, payment.Method, payment.Amount, payment.Surcharge, payment.Period, payment.CreatedAt).Scan(&id)
	return id, err
}
