// Package audit writes insert-only audit rows for entity mutations.
// Recording is best effort: a failed insert is logged and never fails the
// mutation that triggered it.
package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Actions recorded in the audit log.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Entry describes one mutation.
type Entry struct {
	ActorID  uuid.UUID
	Entity   string
	EntityID uuid.UUID
	Action   string
}

// Recorder persists audit entries.
type Recorder interface {
	Record(ctx context.Context, e Entry)
}

// PostgresRecorder implements Recorder using pgxpool.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewRecorder creates a Recorder backed by the given connection pool.
func NewRecorder(pool *pgxpool.Pool) Recorder {
	return &PostgresRecorder{pool: pool}
}

// Record inserts an audit row. Failures are logged, not returned.
func (r *PostgresRecorder) Record(ctx context.Context, e Entry) {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_log (actor_id, entity, entity_id, action) VALUES ($1, $2, $3, $4)`,
		e.ActorID, e.Entity, e.EntityID, e.Action,
	)
	if err != nil {
		slog.Warn("failed to record audit entry",
			"error", err, "entity", e.Entity, "entityId", e.EntityID, "action", e.Action)
	}
}

// NopRecorder discards entries. Used in tests and when auditing is disabled.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(context.Context, Entry) {}
