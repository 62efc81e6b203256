package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLog captures a mutation for the audit trail.
type AuditLog struct {
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
}

// AuditLogger persists audit entries. Recording is fire-and-forget from the
// caller's perspective; services ignore the returned error after commit so an
// audit hiccup never fails a finished mutation.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger constructs the logger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record inserts one audit row.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil || l.pool == nil {
		return errors.New("audit logger not initialised")
	}
	meta, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO audit_logs (action, entity, entity_id, meta, created_at)
VALUES ($1,$2,$3,$4,$5)`, log.Action, log.Entity, log.EntityID, meta, time.Now().UTC())
	return err
}
