package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRecorder persists audit events to the audit_events table.
type PGRecorder struct {
	pool *pgxpool.Pool
}

func NewPGRecorder(pool *pgxpool.Pool) *PGRecorder {
	return &PGRecorder{pool: pool}
}

func (r *PGRecorder) Record(ctx context.Context, event Event) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_events (id, workflow_id, claim_id, event_type, actor, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID, event.WorkflowID, event.ClaimID, event.Type, event.Actor, event.Detail, event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit event %s: %w", event.ID, err)
	}
	return nil
}
