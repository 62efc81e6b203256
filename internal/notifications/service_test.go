package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	rows   map[int64]Notification
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: make(map[int64]Notification)}
}

func (r *memoryRepo) Insert(ctx context.Context, title, message, link string) error {
	r.nextID++
	r.rows[r.nextID] = Notification{ID: r.nextID, Title: title, Message: message, Link: link, CreatedAt: time.Now()}
	return nil
}

func (r *memoryRepo) List(ctx context.Context) ([]Notification, error) {
	result := []Notification{}
	for _, n := range r.rows {
		result = append(result, n)
	}
	return result, nil
}

func (r *memoryRepo) MarkRead(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		if n, ok := r.rows[id]; ok {
			n.IsRead = true
			r.rows[id] = n
		}
	}
	return nil
}

func (r *memoryRepo) UnreadCount(ctx context.Context) (int64, error) {
	var count int64
	for _, n := range r.rows {
		if !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *memoryRepo) PurgeRead(ctx context.Context, cutoff time.Time) (int64, error) {
	var purged int64
	for id, n := range r.rows {
		if n.IsRead && n.CreatedAt.Before(cutoff) {
			delete(r.rows, id)
			purged++
		}
	}
	return purged, nil
}

func TestMarkReadPurgesOldReadNotifications(t *testing.T) {
	repo := newMemoryRepo()
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	svc := NewService(repo, func() time.Time { return now })
	ctx := context.Background()

	// An already-read notification from two months ago.
	repo.nextID++
	repo.rows[repo.nextID] = Notification{ID: repo.nextID, Title: "Sin Stock", IsRead: true, CreatedAt: now.Add(-60 * 24 * time.Hour)}
	stale := repo.nextID

	require.NoError(t, svc.Create(ctx, "Últimas Unidades", "Quedan 2 unidades de Yerba", "/products"))
	fresh := repo.nextID

	require.NoError(t, svc.MarkRead(ctx, []int64{fresh}))

	_, staleKept := repo.rows[stale]
	require.False(t, staleKept)
	require.True(t, repo.rows[fresh].IsRead)
}

func TestUnreadCount(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, "Sin Stock", "El producto Yerba se quedó sin stock", "/products"))
	require.NoError(t, svc.Create(ctx, "Sin Stock", "El producto Azúcar se quedó sin stock", "/products"))

	count, err := svc.UnreadCount(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	require.NoError(t, svc.MarkRead(ctx, []int64{1}))
	count, err = svc.UnreadCount(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}
