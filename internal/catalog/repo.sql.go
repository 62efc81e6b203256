package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mercurio-erp/mercurio-erp/internal/ownership"
	"github.com/mercurio-erp/mercurio-erp/internal/platform/db"
	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

// Repository persists products and their ownership shares in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the operations that must share one transaction.
type TxRepository interface {
	InsertProduct(ctx context.Context, product Product) (int64, error)
	UpdateProduct(ctx context.Context, id int64, product Product) error
	ReplaceShares(ctx context.Context, productID int64, shares []ownership.Share) error
	RefreshUnpaidSaleItemPrices(ctx context.Context, productID int64, price float64) error
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

func (r *Repository) List(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, variant, weight, unit, category, price, stock, low_stock_threshold, created_at, updated_at
FROM products ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	products := []Product{}
	index := map[int64]int{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Variant, &p.Weight, &p.Unit, &p.Category, &p.Price, &p.Stock, &p.LowStockThreshold, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Owners = []ownership.Share{}
		index[p.ID] = len(products)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	shareRows, err := r.pool.Query(ctx, `SELECT product_id, owner_id, percentage FROM product_owners ORDER BY product_id, owner_id`)
	if err != nil {
		return nil, err
	}
	defer shareRows.Close()
	for shareRows.Next() {
		var productID int64
		var share ownership.Share
		if err := shareRows.Scan(&productID, &share.OwnerID, &share.Percentage); err != nil {
			return nil, err
		}
		if i, ok := index[productID]; ok {
			products[i].Owners = append(products[i].Owners, share)
		}
	}
	return products, shareRows.Err()
}

func (r *Repository) Get(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx, `SELECT id, name, variant, weight, unit, category, price, stock, low_stock_threshold, created_at, updated_at
FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Variant, &p.Weight, &p.Unit, &p.Category, &p.Price, &p.Stock, &p.LowStockThreshold, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, shared.ErrNotFound
	}
	if err != nil {
		return Product{}, err
	}
	rows, err := r.pool.Query(ctx, `SELECT owner_id, percentage FROM product_owners WHERE product_id = $1 ORDER BY owner_id`, id)
	if err != nil {
		return Product{}, err
	}
	defer rows.Close()
	p.Owners = []ownership.Share{}
	for rows.Next() {
		var share ownership.Share
		if err := rows.Scan(&share.OwnerID, &share.Percentage); err != nil {
			return Product{}, err
		}
		p.Owners = append(p.Owners, share)
	}
	return p, rows.Err()
}

func (r *Repository) NameExists(ctx context.Context, nameKey string, excludeID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE name_key = $1 AND id <> $2)`,
		nameKey, excludeID).Scan(&exists)
	return exists, err
}

// OwnersExist reports whether every id in the set references a stored owner.
func (r *Repository) OwnersExist(ctx context.Context, ids []int64) (bool, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(DISTINCT id) FROM owners WHERE id = ANY($1)`, ids).Scan(&count)
	if err != nil {
		return false, err
	}
	distinct := map[int64]struct{}{}
	for _, id := range ids {
		distinct[id] = struct{}{}
	}
	return count == int64(len(distinct)), nil
}

func (r *Repository) CountPurchases(ctx context.Context, ids []int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchases WHERE product_id = ANY($1)`, ids).Scan(&count)
	return count, err
}

func (r *Repository) CountSaleItems(ctx context.Context, ids []int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sale_items WHERE product_id = ANY($1)`, ids).Scan(&count)
	return count, err
}

func (r *Repository) DeleteByIDs(ctx context.Context, ids []int64) error {
	// product_owners rows go with the product via ON DELETE CASCADE.
	_, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = ANY($1)`, ids)
	return err
}

func (r *txRepository) InsertProduct(ctx context.Context, product Product) (int64, error) {
	var id int64
	now := time.Now().UTC()
	err := r.tx.QueryRow(ctx, `INSERT INTO products (name, name_key, variant, weight, unit, category, price, stock, low_stock_threshold, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10) RETURNING id`,
		product.Name, shared.NormalizeName(product.Name), product.Variant, product.Weight, product.Unit,
		product.Category, product.Price, product.Stock, product.LowStockThreshold, now).Scan(&id)
	if isUniqueViolation(err) {
		return 0, ErrDuplicateName
	}
	return id, err
}

func (r *txRepository) UpdateProduct(ctx context.Context, id int64, product Product) error {
	tag, err := r.tx.Exec(ctx, `UPDATE products SET name=$1, name_key=$2, variant=$3, weight=$4, unit=$5, category=$6, price=$7, stock=$8, low_stock_threshold=$9, updated_at=$10
WHERE id=$11`,
		product.Name, shared.NormalizeName(product.Name), product.Variant, product.Weight, product.Unit,
		product.Category, product.Price, product.Stock, product.LowStockThreshold, time.Now().UTC(), id)
	if isUniqueViolation(err) {
		return ErrDuplicateName
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ReplaceShares swaps the ownership split wholesale: delete all, insert new.
func (r *txRepository) ReplaceShares(ctx context.Context, productID int64, shares []ownership.Share) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM product_owners WHERE product_id = $1`, productID); err != nil {
		return err
	}
	for _, share := range shares {
		_, err := r.tx.Exec(ctx, `INSERT INTO product_owners (product_id, owner_id, percentage) VALUES ($1,$2,$3)`,
			productID, share.OwnerID, share.Percentage)
		if isForeignKeyViolation(err) {
			return ownership.ErrUnknownOwner
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// RefreshUnpaidSaleItemPrices re-stamps the unit price on sale items that
// belong to still-unpaid sales, so open monthly bills track the new price.
func (r *txRepository) RefreshUnpaidSaleItemPrices(ctx context.Context, productID int64, price float64) error {
	_, err := r.tx.Exec(ctx, `UPDATE sale_items SET price = $1
WHERE product_id = $2 AND sale_id IN (SELECT id FROM sales WHERE is_paid = FALSE)`, price, productID)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
