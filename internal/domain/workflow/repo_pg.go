package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/claimflow/claimflow/internal/domain/adjudication"
	"github.com/claimflow/claimflow/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type historyPG struct{ pool *pgxpool.Pool }

func NewHistoryPG(pool *pgxpool.Pool) HistoryRepository { return &historyPG{pool: pool} }

func (r *historyPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

// stepSnapshot is the persisted shape of a WorkflowStep. Stage results
// are stored as raw JSON and not rehydrated on read; callers of history
// data inspect statuses and errors, not live stage structs.
type stepSnapshot struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Critical    bool            `json:"critical"`
	Status      string          `json:"status"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Duration    time.Duration   `json:"duration_ns,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
}

func (r *historyPG) SaveExecution(ctx context.Context, e *WorkflowExecution) error {
	steps, err := json.Marshal(e.Steps)
	if err != nil {
		return fmt.Errorf("encode steps for workflow %s: %w", e.ID, err)
	}
	metadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata for workflow %s: %w", e.ID, err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO workflow_executions (id, claim_id, type, status, priority, mode,
			initiator, steps, started_at, completed_at, duration_ns, failure_reason, metadata)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			steps = EXCLUDED.steps,
			completed_at = EXCLUDED.completed_at,
			duration_ns = EXCLUDED.duration_ns,
			failure_reason = EXCLUDED.failure_reason`,
		e.ID, e.ClaimID, e.Type, e.Status, e.Priority, e.Mode,
		e.Initiator, steps, e.StartedAt, e.CompletedAt, int64(e.Duration), e.FailureReason, metadata)
	return err
}

func (r *historyPG) GetExecution(ctx context.Context, id string) (*WorkflowExecution, error) {
	var (
		e          WorkflowExecution
		steps      []byte
		metadata   []byte
		durationNS int64
	)
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, claim_id, type, status, priority, mode, initiator, steps,
			started_at, completed_at, duration_ns, failure_reason, metadata
		FROM workflow_executions WHERE id = $1`, id).
		Scan(&e.ID, &e.ClaimID, &e.Type, &e.Status, &e.Priority, &e.Mode, &e.Initiator, &steps,
			&e.StartedAt, &e.CompletedAt, &durationNS, &e.FailureReason, &metadata)
	if err != nil {
		return nil, err
	}
	e.Duration = time.Duration(durationNS)

	var snaps []stepSnapshot
	if err := json.Unmarshal(steps, &snaps); err != nil {
		return nil, fmt.Errorf("decode steps for workflow %s: %w", id, err)
	}
	e.Steps = make([]*WorkflowStep, len(snaps))
	for i, s := range snaps {
		e.Steps[i] = &WorkflowStep{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Critical:    s.Critical,
			Status:      s.Status,
			StartedAt:   s.StartedAt,
			CompletedAt: s.CompletedAt,
			Duration:    s.Duration,
			Error:       s.Error,
		}
	}
	if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata for workflow %s: %w", id, err)
	}
	return &e, nil
}

const decisionCols = `id, claim_id, status, approved_amount_cents,
	member_responsibility_cents, insurer_responsibility_cents,
	denial_reasons, applied_rules, investigation_required, decided_at`

func scanDecision(row pgx.Row) (*adjudication.Decision, error) {
	var d adjudication.Decision
	err := row.Scan(&d.ID, &d.ClaimID, &d.Status, &d.ApprovedAmountCents,
		&d.MemberResponsibilityCents, &d.InsurerResponsibilityCents,
		&d.DenialReasons, &d.AppliedRules, &d.InvestigationRequired, &d.DecidedAt)
	return &d, err
}

func (r *historyPG) SaveDecision(ctx context.Context, d *adjudication.Decision) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO adjudication_decisions (id, claim_id, status, approved_amount_cents,
			member_responsibility_cents, insurer_responsibility_cents,
			denial_reasons, applied_rules, investigation_required, decided_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		d.ID, d.ClaimID, d.Status, d.ApprovedAmountCents,
		d.MemberResponsibilityCents, d.InsurerResponsibilityCents,
		d.DenialReasons, d.AppliedRules, d.InvestigationRequired, d.DecidedAt)
	return err
}

func (r *historyPG) ListDecisionsByClaim(ctx context.Context, claimID uuid.UUID) ([]*adjudication.Decision, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+decisionCols+` FROM adjudication_decisions WHERE claim_id = $1 ORDER BY decided_at DESC`, claimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*adjudication.Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
