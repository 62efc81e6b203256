// Package jobs holds the background maintenance tasks processed by the
// Asynq worker.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/mercurio-erp/mercurio-erp/internal/notifications"
	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskNotificationPurge sweeps read notifications past retention.
	TaskNotificationPurge = "notifications:purge"
	// TaskIdempotencyCleanup removes expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// IdempotencyRetention is how long processed request keys are kept. Clients
// never retry across days; a generous window keeps the table small without
// risking a false duplicate.
const IdempotencyRetention = 7 * 24 * time.Hour

// NewNotificationPurgeTask constructs the purge task.
func NewNotificationPurgeTask() *asynq.Task {
	return asynq.NewTask(TaskNotificationPurge, nil)
}

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil)
}

// NotificationPurgeHandler processes TaskNotificationPurge.
func NotificationPurgeHandler(svc *notifications.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		purged, err := svc.PurgeRead(ctx)
		if err != nil {
			return err
		}
		logger.Info("notification purge", slog.Int64("purged", purged))
		return nil
	}
}

// IdempotencyCleanupHandler processes TaskIdempotencyCleanup.
func IdempotencyCleanupHandler(store *shared.IdempotencyStore, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		if err := store.Cleanup(ctx, IdempotencyRetention); err != nil {
			return err
		}
		logger.Info("idempotency cleanup done")
		return nil
	}
}
