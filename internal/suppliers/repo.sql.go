package suppliers

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

// Repository persists suppliers in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) List(ctx context.Context) ([]Supplier, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, phone, address, created_at, updated_at FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	suppliers := []Supplier{}
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.Phone, &s.Address, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id int64) (Supplier, error) {
	var s Supplier
	err := r.pool.QueryRow(ctx, `SELECT id, name, phone, address, created_at, updated_at FROM suppliers WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.Phone, &s.Address, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Supplier{}, shared.ErrNotFound
	}
	return s, err
}

func (r *Repository) NameExists(ctx context.Context, nameKey string, excludeID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM suppliers WHERE name_key = $1 AND id <> $2)`,
		nameKey, excludeID).Scan(&exists)
	return exists, err
}

func (r *Repository) Create(ctx context.Context, supplier Supplier) (int64, error) {
	var id int64
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx, `INSERT INTO suppliers (name, name_key, phone, address, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$5) RETURNING id`,
		supplier.Name, shared.NormalizeName(supplier.Name), supplier.Phone, supplier.Address, now).Scan(&id)
	if isUniqueViolation(err) {
		return 0, ErrDuplicateName
	}
	return id, err
}

func (r *Repository) Update(ctx context.Context, id int64, supplier Supplier) error {
	tag, err := r.pool.Exec(ctx, `UPDATE suppliers SET name=$1, name_key=$2, phone=$3, address=$4, updated_at=$5 WHERE id=$6`,
		supplier.Name, shared.NormalizeName(supplier.Name), supplier.Phone, supplier.Address, time.Now().UTC(), id)
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

func (r *Repository) CountPurchases(ctx context.Context, ids []int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchases WHERE supplier_id = ANY($1)`, ids).Scan(&count)
	return count, err
}

func (r *Repository) DeleteByIDs(ctx context.Context, ids []int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM suppliers WHERE id = ANY($1)`, ids)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
