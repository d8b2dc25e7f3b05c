package workflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/claimflow/claimflow/internal/domain/adjudication"
)

// Workflow types.
const (
	TypeStandard      = "standard"
	TypeExpedited     = "expedited"
	TypeManualReview  = "manual_review"
	TypeInvestigation = "investigation"
)

// Run statuses. pending and running are the only non-terminal states.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Step statuses.
const (
	StepPending    = "pending"
	StepInProgress = "in_progress"
	StepCompleted  = "completed"
	StepFailed     = "failed"
	StepSkipped    = "skipped"
)

// Priorities derived from the billed amount.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Processing modes.
const (
	ModeAutomatic = "automatic"
	ModeManual    = "manual"
)

var validTypes = map[string]bool{
	TypeStandard: true, TypeExpedited: true, TypeManualReview: true, TypeInvestigation: true,
}

// ValidType reports whether t is a known workflow type.
func ValidType(t string) bool { return validTypes[t] }

// stepStatusRank orders step statuses so transitions only move forward.
var stepStatusRank = map[string]int{
	StepPending:    0,
	StepInProgress: 1,
	StepCompleted:  2,
	StepFailed:     2,
	StepSkipped:    2,
}

// WorkflowStep is one unit of work in a run's step list.
type WorkflowStep struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name"`
	Description string                   `json:"description,omitempty"`
	Critical    bool                     `json:"critical"`
	Status      string                   `json:"status"`
	StartedAt   *time.Time               `json:"started_at,omitempty"`
	CompletedAt *time.Time               `json:"completed_at,omitempty"`
	Duration    time.Duration            `json:"duration_ns,omitempty"`
	Result      adjudication.StageResult `json:"result,omitempty"`
	Error       string                   `json:"error,omitempty"`
}

// transition moves the step to a new status, rejecting backward moves.
func (s *WorkflowStep) transition(to string) error {
	fromRank, ok := stepStatusRank[s.Status]
	if !ok {
		return fmt.Errorf("step %s has unknown status %s", s.ID, s.Status)
	}
	toRank, ok := stepStatusRank[to]
	if !ok {
		return fmt.Errorf("unknown step status %s", to)
	}
	if toRank <= fromRank {
		return fmt.Errorf("step %s cannot move from %s to %s", s.ID, s.Status, to)
	}
	s.Status = to
	return nil
}

// Metadata carries claim facts captured at run start.
type Metadata struct {
	AmountCents    int64     `json:"amount_cents"`
	MemberID       uuid.UUID `json:"member_id"`
	ProviderID     uuid.UUID `json:"provider_id"`
	ForceReprocess bool      `json:"force_reprocess,omitempty"`
}

// WorkflowExecution is the full record of one adjudication run. Field
// access for registered runs is synchronized through the Registry.
type WorkflowExecution struct {
	ID            string          `json:"id"`
	ClaimID       uuid.UUID       `json:"claim_id"`
	Type          string          `json:"type"`
	Status        string          `json:"status"`
	Priority      string          `json:"priority"`
	Mode          string          `json:"mode"`
	Initiator     string          `json:"initiator"`
	Steps         []*WorkflowStep `json:"steps"`
	StartedAt     time.Time       `json:"started_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	Duration      time.Duration   `json:"duration_ns,omitempty"`
	FailureReason string          `json:"failure_reason,omitempty"`
	Metadata      Metadata        `json:"metadata"`
}

// StepByID returns the named step, or nil.
func (e *WorkflowExecution) StepByID(id string) *WorkflowStep {
	for _, s := range e.Steps {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// WorkflowResult is the compiled outcome returned to callers.
type WorkflowResult struct {
	WorkflowID            string                 `json:"workflow_id"`
	ClaimID               uuid.UUID              `json:"claim_id"`
	Status                string                 `json:"status"`
	Decision              *adjudication.Decision `json:"decision,omitempty"`
	EOBGenerated          bool                   `json:"eob_generated"`
	PaymentEstimatedCents int64                  `json:"payment_estimated_cents"`
	Alerts                []string               `json:"alerts,omitempty"`
	NextSteps             []string               `json:"next_steps,omitempty"`
	QualityScore          int                    `json:"quality_score"`
	ComplianceScore       int                    `json:"compliance_score"`
	AuditRequired         bool                   `json:"audit_required"`
	FailureReason         string                 `json:"failure_reason,omitempty"`
	Duration              time.Duration          `json:"duration_ns"`
}

// ProcessOptions tunes a single ProcessClaim invocation. Zero values let
// the orchestrator resolve type, priority and mode from the claim.
type ProcessOptions struct {
	WorkflowType   string `json:"workflow_type,omitempty"`
	Priority       string `json:"priority,omitempty"`
	Initiator      string `json:"initiator,omitempty"`
	Mode           string `json:"mode,omitempty"`
	ForceReprocess bool   `json:"force_reprocess,omitempty"`
}
