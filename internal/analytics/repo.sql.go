package analytics

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SQLRepository reads the dashboard aggregates from PostgreSQL.
type SQLRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs SQLRepository.
func NewRepository(pool *pgxpool.Pool) *SQLRepository {
	return &SQLRepository{pool: pool}
}

func (r *SQLRepository) Totals(ctx context.Context) (totalSales, totalPurchases, totalExpenses, totalDebt float64, err error) {
	err = r.pool.QueryRow(ctx, `SELECT
  COALESCE((SELECT SUM(total) FROM sales), 0),
  COALESCE((SELECT SUM(total) FROM purchases), 0),
  COALESCE((SELECT SUM(amount) FROM expenses), 0),
  COALESCE((SELECT SUM(i.quantity * i.price)
            FROM sale_items i JOIN sales s ON s.id = i.sale_id
            WHERE s.is_paid = FALSE), 0)`).Scan(&totalSales, &totalPurchases, &totalExpenses, &totalDebt)
	return
}

func (r *SQLRepository) StockCounts(ctx context.Context) (lowStock, outOfStock int64, err error) {
	err = r.pool.QueryRow(ctx, `SELECT
  COUNT(*) FILTER (WHERE stock > 0 AND stock < low_stock_threshold),
  COUNT(*) FILTER (WHERE stock = 0)
FROM products`).Scan(&lowStock, &outOfStock)
	return
}

func (r *SQLRepository) TopProducts(ctx context.Context, limit int) ([]ProductSales, error) {
	rows, err := r.pool.Query(ctx, `SELECT p.id, p.name, SUM(i.quantity), SUM(i.quantity * i.price)
FROM sale_items i
JOIN products p ON p.id = i.product_id
GROUP BY p.id, p.name
ORDER BY SUM(i.quantity) DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	top := []ProductSales{}
	for rows.Next() {
		var p ProductSales
		if err := rows.Scan(&p.ProductID, &p.Name, &p.Quantity, &p.Revenue); err != nil {
			return nil, err
		}
		top = append(top, p)
	}
	return top, rows.Err()
}

func (r *SQLRepository) SettledSales(ctx context.Context) ([]MonthlySaleRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT created_at, total FROM sales WHERE is_paid = TRUE ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sales := []MonthlySaleRow{}
	for rows.Next() {
		var row MonthlySaleRow
		if err := rows.Scan(&row.CreatedAt, &row.Total); err != nil {
			return nil, err
		}
		sales = append(sales, row)
	}
	return sales, rows.Err()
}
