package owners

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

// Repository persists owners in PostgreSQL. The owners.name_key column keeps
// the normalized name under a unique index, so the duplicate pre-check is
// backed by the storage layer as well.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) List(ctx context.Context) ([]Owner, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, alias, created_at, updated_at FROM owners ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	owners := []Owner{}
	for rows.Next() {
		var o Owner
		if err := rows.Scan(&o.ID, &o.Name, &o.Alias, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		owners = append(owners, o)
	}
	return owners, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id int64) (Owner, error) {
	var o Owner
	err := r.pool.QueryRow(ctx, `SELECT id, name, alias, created_at, updated_at FROM owners WHERE id = $1`, id).
		Scan(&o.ID, &o.Name, &o.Alias, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Owner{}, shared.ErrNotFound
	}
	return o, err
}

// NameExists reports whether another owner already uses the normalized name.
// excludeID skips the row being updated; pass 0 on create.
func (r *Repository) NameExists(ctx context.Context, nameKey string, excludeID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM owners WHERE name_key = $1 AND id <> $2)`,
		nameKey, excludeID).Scan(&exists)
	return exists, err
}

func (r *Repository) Create(ctx context.Context, owner Owner) (int64, error) {
	var id int64
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx, `INSERT INTO owners (name, name_key, alias, created_at, updated_at)
VALUES ($1,$2,$3,$4,$4) RETURNING id`,
		owner.Name, shared.NormalizeName(owner.Name), owner.Alias, now).Scan(&id)
	if isUniqueViolation(err) {
		return 0, ErrDuplicateName
	}
	return id, err
}

func (r *Repository) Update(ctx context.Context, id int64, owner Owner) error {
	tag, err := r.pool.Exec(ctx, `UPDATE owners SET name=$1, name_key=$2, alias=$3, updated_at=$4 WHERE id=$5`,
		owner.Name, shared.NormalizeName(owner.Name), owner.Alias, time.Now().UTC(), id)
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

func (r *Repository) CountProductShares(ctx context.Context, ids []int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM product_owners WHERE owner_id = ANY($1)`, ids).Scan(&count)
	return count, err
}

func (r *Repository) CountExpenseShares(ctx context.Context, ids []int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM expense_owners WHERE owner_id = ANY($1)`, ids).Scan(&count)
	return count, err
}

func (r *Repository) DeleteByIDs(ctx context.Context, ids []int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM owners WHERE id = ANY($1)`, ids)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
