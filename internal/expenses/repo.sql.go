package expenses

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mercurio-erp/mercurio-erp/internal/ownership"
	"github.com/mercurio-erp/mercurio-erp/internal/platform/db"
	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

// Repository persists expenses and their ownership shares in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the operations that must share one transaction.
type TxRepository interface {
	InsertExpense(ctx context.Context, expense Expense) (int64, error)
	UpdateExpense(ctx context.Context, id int64, expense Expense) error
	ReplaceShares(ctx context.Context, expenseID int64, shares []ownership.Share) error
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

func (r *Repository) List(ctx context.Context) ([]Expense, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, category, description, amount, payment_method, created_at
FROM expenses ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	expenses := []Expense{}
	index := map[int64]int{}
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.Category, &e.Description, &e.Amount, &e.PaymentMethod, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Owners = []ownership.Share{}
		index[e.ID] = len(expenses)
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	shareRows, err := r.pool.Query(ctx, `SELECT expense_id, owner_id, percentage FROM expense_owners ORDER BY expense_id, owner_id`)
	if err != nil {
		return nil, err
	}
	defer shareRows.Close()
	for shareRows.Next() {
		var expenseID int64
		var share ownership.Share
		if err := shareRows.Scan(&expenseID, &share.OwnerID, &share.Percentage); err != nil {
			return nil, err
		}
		if i, ok := index[expenseID]; ok {
			expenses[i].Owners = append(expenses[i].Owners, share)
		}
	}
	return expenses, shareRows.Err()
}

func (r *Repository) Get(ctx context.Context, id int64) (Expense, error) {
	var e Expense
	err := r.pool.QueryRow(ctx, `SELECT id, category, description, amount, payment_method, created_at
FROM expenses WHERE id = $1`, id).Scan(&e.ID, &e.Category, &e.Description, &e.Amount, &e.PaymentMethod, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Expense{}, shared.ErrNotFound
	}
	if err != nil {
		return Expense{}, err
	}

	rows, err := r.pool.Query(ctx, `SELECT owner_id, percentage FROM expense_owners WHERE expense_id = $1 ORDER BY owner_id`, id)
	if err != nil {
		return Expense{}, err
	}
	defer rows.Close()
	e.Owners = []ownership.Share{}
	for rows.Next() {
		var share ownership.Share
		if err := rows.Scan(&share.OwnerID, &share.Percentage); err != nil {
			return Expense{}, err
		}
		e.Owners = append(e.Owners, share)
	}
	return e, rows.Err()
}

func (r *Repository) OwnersExist(ctx context.Context, ids []int64) (bool, error) {
	distinct := map[int64]struct{}{}
	for _, id := range ids {
		distinct[id] = struct{}{}
	}
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM owners WHERE id = ANY($1)`, ids).Scan(&count)
	if err != nil {
		return false, err
	}
	return count == int64(len(distinct)), nil
}

func (r *Repository) DeleteByIDs(ctx context.Context, ids []int64) error {
	// expense_owners rows go with the expense via ON DELETE CASCADE.
	_, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = ANY($1)`, ids)
	return err
}

func (t *txRepository) InsertExpense(ctx context.Context, expense Expense) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO expenses (category, description, amount, payment_method, created_at)
VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		expense.Category, expense.Description, expense.Amount, expense.PaymentMethod, expense.CreatedAt).Scan(&id)
	return id, err
}

func (t *txRepository) UpdateExpense(ctx context.Context, id int64, expense Expense) error {
	tag, err := t.tx.Exec(ctx, `UPDATE expenses SET category=$2, description=$3, amount=$4, payment_method=$5 WHERE id=$1`,
		id, expense.Category, expense.Description, expense.Amount, expense.PaymentMethod)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ReplaceShares swaps the full share set: delete everything, insert the new
// split. Never a diff.
func (t *txRepository) ReplaceShares(ctx context.Context, expenseID int64, shares []ownership.Share) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM expense_owners WHERE expense_id = $1`, expenseID); err != nil {
		return err
	}
	for _, share := range shares {
		_, err := t.tx.Exec(ctx, `INSERT INTO expense_owners (expense_id, owner_id, percentage) VALUES ($1,$2,$3)`,
			expenseID, share.OwnerID, share.Percentage)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				return ownership.ErrUnknownOwner
			}
			return err
		}
	}
	return nil
}
