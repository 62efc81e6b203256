package notifications

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists notifications in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, title, message, link string) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO notifications (title, message, link, is_read, created_at) VALUES ($1,$2,$3,FALSE,$4)`,
		title, message, link, time.Now().UTC())
	return err
}

func (r *Repository) List(ctx context.Context) ([]Notification, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, title, message, link, is_read, created_at
FROM notifications ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	notifications := []Notification{}
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.Title, &n.Message, &n.Link, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *Repository) MarkRead(ctx context.Context, ids []int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = ANY($1)`, ids)
	return err
}

func (r *Repository) UnreadCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE is_read = FALSE`).Scan(&count)
	return count, err
}

// PurgeRead drops read notifications older than cutoff.
func (r *Repository) PurgeRead(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM notifications WHERE is_read = TRUE AND created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
