package workflow

import (
	"context"

	"github.com/google/uuid"

	"github.com/claimflow/claimflow/internal/domain/adjudication"
)

// HistoryRepository persists terminal run snapshots and decisions.
// Executions are written once at run completion; decisions are append-only.
// ListDecisionsByClaim returns decisions newest first.
type HistoryRepository interface {
	SaveExecution(ctx context.Context, e *WorkflowExecution) error
	GetExecution(ctx context.Context, id string) (*WorkflowExecution, error)
	SaveDecision(ctx context.Context, d *adjudication.Decision) error
	ListDecisionsByClaim(ctx context.Context, claimID uuid.UUID) ([]*adjudication.Decision, error)
}
