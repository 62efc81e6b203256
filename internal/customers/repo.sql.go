package customers

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

// Repository persists customers in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) List(ctx context.Context) ([]Customer, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, phone, reference, created_at, updated_at FROM customers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	customers := []Customer{}
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Reference, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id int64) (Customer, error) {
	var c Customer
	err := r.pool.QueryRow(ctx, `SELECT id, name, phone, reference, created_at, updated_at FROM customers WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Phone, &c.Reference, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, shared.ErrNotFound
	}
	return c, err
}

func (r *Repository) NameExists(ctx context.Context, nameKey string, excludeID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM customers WHERE name_key = $1 AND id <> $2)`,
		nameKey, excludeID).Scan(&exists)
	return exists, err
}

func (r *Repository) Create(ctx context.Context, customer Customer) (int64, error) {
	var id int64
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx, `INSERT INTO customers (name, name_key, phone, reference, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$5) RETURNING id`,
		customer.Name, shared.NormalizeName(customer.Name), customer.Phone, customer.Reference, now).Scan(&id)
	if isUniqueViolation(err) {
		return 0, ErrDuplicateName
	}
	return id, err
}

func (r *Repository) Update(ctx context.Context, id int64, customer Customer) error {
	tag, err := r.pool.Exec(ctx, `UPDATE customers SET name=$1, name_key=$2, phone=$3, reference=$4, updated_at=$5 WHERE id=$6`,
		customer.Name, shared.NormalizeName(customer.Name), customer.Phone, customer.Reference, time.Now().UTC(), id)
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

// CountUnpaidSales counts unpaid sales referencing any customer in the set.
func (r *Repository) CountUnpaidSales(ctx context.Context, ids []int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM sales WHERE customer_id = ANY($1) AND is_paid = FALSE`, ids).Scan(&count)
	return count, err
}

func (r *Repository) DeleteByIDs(ctx context.Context, ids []int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id = ANY($1)`, ids)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
