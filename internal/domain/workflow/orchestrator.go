package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/claimflow/claimflow/internal/config"
	"github.com/claimflow/claimflow/internal/domain/adjudication"
	"github.com/claimflow/claimflow/internal/domain/claim"
	"github.com/claimflow/claimflow/internal/domain/eob"
	"github.com/claimflow/claimflow/internal/domain/refdata"
	"github.com/claimflow/claimflow/internal/platform/audit"
)

var (
	ErrWorkflowCancelled = errors.New("workflow cancelled")
	ErrWorkflowNotFound  = errors.New("workflow not found")
	ErrClaimFinalized    = errors.New("claim already has a terminal disposition")
	ErrNoDecision        = errors.New("claim has no adjudication decision")
)

// ClaimStore is the narrow claim access the orchestrator needs: one read
// at run start and one status write at run end.
type ClaimStore interface {
	Get(ctx context.Context, id uuid.UUID) (*claim.Claim, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, note *string) error
}

// Notifier receives fire-and-forget alert dispatches.
type Notifier interface {
	DispatchAlerts(ctx context.Context, claimID string, alerts []string, data map[string]string)
}

// Config holds the orchestrator's tuning knobs. Amounts are integer cents.
type Config struct {
	HighValueThresholdCents   int64         `json:"high_value_threshold_cents"`
	MediumValueThresholdCents int64         `json:"medium_value_threshold_cents"`
	ExpeditedMaxAmountCents   int64         `json:"expedited_max_amount_cents"`
	ExpeditedMaxAge           time.Duration `json:"expedited_max_age"`
	LargeClaimThresholdCents  int64         `json:"large_claim_threshold_cents"`
	WorkflowTimeout           time.Duration `json:"workflow_timeout"`
	ManualWorkflowTimeout     time.Duration `json:"manual_workflow_timeout"`
	SlowRunThreshold          time.Duration `json:"slow_run_threshold"`
}

// ConfigFromApp copies the orchestration knobs out of the app config.
func ConfigFromApp(cfg *config.Config) Config {
	return Config{
		HighValueThresholdCents:   cfg.HighValueThresholdCents,
		MediumValueThresholdCents: cfg.MediumValueThresholdCents,
		ExpeditedMaxAmountCents:   cfg.ExpeditedMaxAmountCents,
		ExpeditedMaxAge:           cfg.ExpeditedMaxAge,
		LargeClaimThresholdCents:  cfg.LargeClaimThresholdCents,
		WorkflowTimeout:           cfg.WorkflowTimeout,
		ManualWorkflowTimeout:     cfg.ManualWorkflowTimeout,
		SlowRunThreshold:          cfg.SlowRunThreshold,
	}
}

// ConfigPatch is a partial configuration override. Nil fields keep their
// current value.
type ConfigPatch struct {
	HighValueThresholdCents   *int64         `json:"high_value_threshold_cents,omitempty"`
	MediumValueThresholdCents *int64         `json:"medium_value_threshold_cents,omitempty"`
	ExpeditedMaxAmountCents   *int64         `json:"expedited_max_amount_cents,omitempty"`
	ExpeditedMaxAge           *time.Duration `json:"expedited_max_age,omitempty"`
	LargeClaimThresholdCents  *int64         `json:"large_claim_threshold_cents,omitempty"`
	WorkflowTimeout           *time.Duration `json:"workflow_timeout,omitempty"`
	ManualWorkflowTimeout     *time.Duration `json:"manual_workflow_timeout,omitempty"`
	SlowRunThreshold          *time.Duration `json:"slow_run_threshold,omitempty"`
}

// Deps wires the orchestrator's collaborators.
type Deps struct {
	Claims      ClaimStore
	Refdata     refdata.Provider
	Eligibility *adjudication.EligibilityChecker
	Necessity   *adjudication.NecessityValidator
	Fraud       *adjudication.FraudAnalyzer
	Financial   *adjudication.FinancialCalculator
	Engine      *adjudication.Engine
	EOB         *eob.Generator
	History     HistoryRepository
	Audit       audit.Recorder
	Notifier    Notifier
	Registry    *Registry
	Logger      zerolog.Logger
}

// Orchestrator runs claims through their workflow step lists. Runs for
// different claims execute concurrently and independently; within one run,
// steps execute strictly in order.
type Orchestrator struct {
	deps Deps
	cfg  Config
}

func NewOrchestrator(deps Deps, cfg Config) *Orchestrator {
	if deps.Registry == nil {
		deps.Registry = NewRegistry()
	}
	return &Orchestrator{deps: deps, cfg: cfg}
}

// Configuration returns the current tuning knobs.
func (o *Orchestrator) Configuration() Config {
	var cfg Config
	o.deps.Registry.mutate(func() { cfg = o.cfg })
	return cfg
}

// UpdateConfiguration applies a guarded partial override and returns the
// resulting configuration.
func (o *Orchestrator) UpdateConfiguration(patch ConfigPatch) (Config, error) {
	next := o.Configuration()
	if patch.HighValueThresholdCents != nil {
		next.HighValueThresholdCents = *patch.HighValueThresholdCents
	}
	if patch.MediumValueThresholdCents != nil {
		next.MediumValueThresholdCents = *patch.MediumValueThresholdCents
	}
	if patch.ExpeditedMaxAmountCents != nil {
		next.ExpeditedMaxAmountCents = *patch.ExpeditedMaxAmountCents
	}
	if patch.ExpeditedMaxAge != nil {
		next.ExpeditedMaxAge = *patch.ExpeditedMaxAge
	}
	if patch.LargeClaimThresholdCents != nil {
		next.LargeClaimThresholdCents = *patch.LargeClaimThresholdCents
	}
	if patch.WorkflowTimeout != nil {
		next.WorkflowTimeout = *patch.WorkflowTimeout
	}
	if patch.ManualWorkflowTimeout != nil {
		next.ManualWorkflowTimeout = *patch.ManualWorkflowTimeout
	}
	if patch.SlowRunThreshold != nil {
		next.SlowRunThreshold = *patch.SlowRunThreshold
	}

	if next.MediumValueThresholdCents >= next.HighValueThresholdCents {
		return Config{}, fmt.Errorf("medium threshold %d must be below high threshold %d",
			next.MediumValueThresholdCents, next.HighValueThresholdCents)
	}
	if next.ExpeditedMaxAmountCents <= 0 || next.ExpeditedMaxAmountCents > next.MediumValueThresholdCents {
		return Config{}, fmt.Errorf("expedited cap %d must be in (0, %d]",
			next.ExpeditedMaxAmountCents, next.MediumValueThresholdCents)
	}
	if next.WorkflowTimeout <= 0 || next.WorkflowTimeout > config.MaxAutomaticTimeout {
		return Config{}, fmt.Errorf("workflow timeout %s must be in (0, %s]",
			next.WorkflowTimeout, config.MaxAutomaticTimeout)
	}
	if next.ManualWorkflowTimeout <= 0 || next.ManualWorkflowTimeout > config.MaxManualTimeout {
		return Config{}, fmt.Errorf("manual workflow timeout %s must be in (0, %s]",
			next.ManualWorkflowTimeout, config.MaxManualTimeout)
	}

	o.deps.Registry.mutate(func() { o.cfg = next })
	o.deps.Logger.Info().Interface("config", next).Msg("workflow configuration updated")
	return next, nil
}

// runState accumulates stage outputs over a single run.
type runState struct {
	eligibility   *adjudication.EligibilityResult
	necessity     *adjudication.NecessityResult
	fraud         *adjudication.FraudResult
	financial     *adjudication.FinancialResult
	decision      *adjudication.Decision
	eobDoc        *eob.Document
	skipRemaining bool
}

// ProcessClaim runs one claim through its resolved workflow. It returns
// the compiled result, or an error for input failures and cancellation.
// A run that fails mid-flight still returns a result describing the
// failure.
func (o *Orchestrator) ProcessClaim(ctx context.Context, claimID uuid.UUID, opts ProcessOptions) (*WorkflowResult, error) {
	c, err := o.deps.Claims.Get(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("load claim %s: %w", claimID, err)
	}
	if c.Status == claim.StatusCancelled {
		return nil, fmt.Errorf("claim %s is cancelled", claimID)
	}
	if claim.Terminal(c.Status) && !opts.ForceReprocess {
		return nil, fmt.Errorf("%w: claim %s is %s", ErrClaimFinalized, claimID, c.Status)
	}

	cfg := o.Configuration()
	wfType := opts.WorkflowType
	if wfType == "" {
		wfType = o.selectWorkflowType(ctx, c, cfg)
	} else if !ValidType(wfType) {
		return nil, fmt.Errorf("unknown workflow type %s", wfType)
	}
	priority := opts.Priority
	if priority == "" {
		priority = priorityFor(c.BilledAmountCents, cfg)
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModeAutomatic
		if wfType == TypeManualReview || wfType == TypeInvestigation {
			mode = ModeManual
		}
	}
	initiator := opts.Initiator
	if initiator == "" {
		initiator = "system"
	}

	timeout := cfg.WorkflowTimeout
	if mode == ModeManual {
		timeout = cfg.ManualWorkflowTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	exec := &WorkflowExecution{
		ID:        uuid.New().String(),
		ClaimID:   c.ID,
		Type:      wfType,
		Status:    StatusPending,
		Priority:  priority,
		Mode:      mode,
		Initiator: initiator,
		Steps:     newSteps(wfType),
		StartedAt: time.Now(),
		Metadata: Metadata{
			AmountCents:    c.BilledAmountCents,
			MemberID:       c.MemberID,
			ProviderID:     c.ProviderID,
			ForceReprocess: opts.ForceReprocess,
		},
	}
	o.deps.Registry.add(exec)
	o.recordAudit(ctx, exec, audit.EventWorkflowStarted, fmt.Sprintf("%s workflow started", wfType))
	if err := o.deps.Claims.UpdateStatus(ctx, c.ID, claim.StatusProcessing, nil); err != nil {
		o.deps.Logger.Warn().Err(err).Str("claim_id", c.ID.String()).Msg("failed to mark claim processing")
	}

	o.deps.Registry.mutate(func() {
		if exec.Status == StatusPending {
			exec.Status = StatusRunning
		}
	})

	st := &runState{}
	o.runSteps(runCtx, exec, c, st)

	end := time.Now()
	o.deps.Registry.mutate(func() {
		exec.CompletedAt = &end
		exec.Duration = end.Sub(exec.StartedAt)
		if exec.Status == StatusRunning {
			exec.Status = StatusCompleted
		}
	})

	result := o.compileResult(exec, st, cfg)
	o.finalizeRun(context.WithoutCancel(ctx), exec, c, st, result)

	if o.deps.Registry.status(exec) == StatusCancelled {
		return nil, fmt.Errorf("%w: workflow %s", ErrWorkflowCancelled, exec.ID)
	}
	return result, nil
}

// runSteps iterates the resolved step list. The registry lock is only
// taken for bookkeeping, never across a step execution.
func (o *Orchestrator) runSteps(ctx context.Context, exec *WorkflowExecution, c *claim.Claim, st *runState) {
	for _, step := range exec.Steps {
		if o.deps.Registry.status(exec) == StatusCancelled {
			o.deps.Logger.Info().
				Str("workflow_id", exec.ID).
				Str("step", step.ID).
				Msg("cancellation observed, stopping before next step")
			return
		}
		if ctx.Err() != nil {
			o.deps.Registry.mutate(func() {
				exec.Status = StatusFailed
				exec.FailureReason = "workflow timed out"
			})
			return
		}
		if st.skipRemaining && skippableAfterIneligibility[step.ID] {
			o.deps.Registry.mutate(func() { _ = step.transition(StepSkipped) })
			continue
		}

		started := time.Now()
		o.deps.Registry.mutate(func() {
			_ = step.transition(StepInProgress)
			step.StartedAt = &started
		})

		result, err := o.executeStep(ctx, step.ID, c, st)

		finished := time.Now()
		if err != nil {
			o.deps.Registry.mutate(func() {
				_ = step.transition(StepFailed)
				step.CompletedAt = &finished
				step.Duration = finished.Sub(started)
				step.Error = err.Error()
			})
			o.deps.Logger.Error().Err(err).
				Str("workflow_id", exec.ID).
				Str("step", step.ID).
				Bool("critical", step.Critical).
				Msg("workflow step failed")
			if step.Critical {
				o.deps.Registry.mutate(func() {
					exec.Status = StatusFailed
					exec.FailureReason = fmt.Sprintf("step %s failed: %v", step.ID, err)
				})
				return
			}
			continue
		}

		o.deps.Registry.mutate(func() {
			_ = step.transition(StepCompleted)
			step.CompletedAt = &finished
			step.Duration = finished.Sub(started)
			step.Result = result
		})
		if step.ID == stepEligibility && st.eligibility != nil && !st.eligibility.Eligible {
			st.skipRemaining = true
		}
	}
}

// executeStep dispatches by step id. Panics are converted into step
// errors so no stage failure escapes the run record.
func (o *Orchestrator) executeStep(ctx context.Context, stepID string, c *claim.Claim, st *runState) (result adjudication.StageResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("step %s panicked: %v", stepID, r)
		}
	}()

	switch stepID {
	case stepValidate:
		return nil, c.Validate()
	case stepEligibility:
		res, err := o.deps.Eligibility.Execute(ctx, c)
		if err != nil {
			return nil, err
		}
		st.eligibility = res
		return res, nil
	case stepFraud:
		res, err := o.deps.Fraud.Execute(ctx, c)
		if err != nil {
			return nil, err
		}
		st.fraud = res
		return res, nil
	case stepNecessity:
		res, err := o.deps.Necessity.Execute(ctx, c)
		if err != nil {
			return nil, err
		}
		st.necessity = res
		return res, nil
	case stepFinancial:
		necessityFailed := st.necessity != nil && st.necessity.Verdict == adjudication.VerdictFail
		res, err := o.deps.Financial.Execute(ctx, c, necessityFailed)
		if err != nil {
			return nil, err
		}
		st.financial = res
		return res, nil
	case stepDecision:
		d, err := o.deps.Engine.Decide(c, st.eligibility, st.necessity, st.fraud, st.financial)
		if err != nil {
			return nil, err
		}
		st.decision = d
		return d, nil
	case stepGenerateEOB:
		if st.decision == nil {
			return nil, fmt.Errorf("no decision available for eob generation")
		}
		doc, err := o.deps.EOB.Generate(c, st.decision, st.financial)
		if err != nil {
			return nil, err
		}
		st.eobDoc = doc
		return doc, nil
	case stepEnhancedReview:
		findings := &adjudication.ReviewFindings{
			Reviewer: "investigation-queue",
			Outcome:  "queued_for_investigation",
		}
		if st.fraud != nil {
			findings.Notes = st.fraud.Signals
		}
		return findings, nil
	case stepManualClinicalReview:
		findings := &adjudication.ReviewFindings{
			Reviewer: "clinical-review-queue",
			Outcome:  "queued_for_clinical_review",
		}
		if st.necessity != nil {
			findings.Notes = st.necessity.Notes
		}
		return findings, nil
	}
	return nil, fmt.Errorf("unknown step %s", stepID)
}

func (o *Orchestrator) compileResult(exec *WorkflowExecution, st *runState, cfg Config) *WorkflowResult {
	snap, _ := o.deps.Registry.Get(exec.ID)
	if snap == nil {
		snap = snapshot(exec)
	}

	result := &WorkflowResult{
		WorkflowID:      snap.ID,
		ClaimID:         snap.ClaimID,
		Status:          snap.Status,
		Decision:        st.decision,
		EOBGenerated:    st.eobDoc != nil,
		FailureReason:   snap.FailureReason,
		QualityScore:    QualityScore(snap, cfg.SlowRunThreshold),
		ComplianceScore: ComplianceScore(snap),
		AuditRequired:   AuditRequired(snap, st.decision, st.fraud, cfg.LargeClaimThresholdCents),
		Alerts:          Alerts(st.decision, st.fraud, cfg.LargeClaimThresholdCents),
		NextSteps:       NextSteps(snap, st.decision),
		Duration:        snap.Duration,
	}
	if st.decision != nil {
		result.PaymentEstimatedCents = st.decision.ApprovedAmountCents
	}
	return result
}

// finalizeRun persists the run, writes the claim status, emits the
// terminal audit event and dispatches notifications. It always leaves
// the registry without the run.
func (o *Orchestrator) finalizeRun(ctx context.Context, exec *WorkflowExecution, c *claim.Claim, st *runState, result *WorkflowResult) {
	status := o.deps.Registry.status(exec)

	if st.decision != nil {
		if err := o.deps.History.SaveDecision(ctx, st.decision); err != nil {
			o.deps.Logger.Error().Err(err).Str("workflow_id", exec.ID).Msg("failed to persist decision")
		}
	}
	if err := o.deps.History.SaveExecution(ctx, exec); err != nil {
		o.deps.Logger.Error().Err(err).Str("workflow_id", exec.ID).Msg("failed to persist execution")
	}

	switch status {
	case StatusCancelled:
		note := "workflow cancelled before completion"
		if err := o.deps.Claims.UpdateStatus(ctx, c.ID, claim.StatusSubmitted, &note); err != nil {
			o.deps.Logger.Warn().Err(err).Str("claim_id", c.ID.String()).Msg("failed to reset cancelled claim")
		}
		o.recordAudit(ctx, exec, audit.EventWorkflowCancelled, note)
	case StatusFailed:
		reason := exec.FailureReason
		if err := o.deps.Claims.UpdateStatus(ctx, c.ID, claim.StatusUnderReview, &reason); err != nil {
			o.deps.Logger.Warn().Err(err).Str("claim_id", c.ID.String()).Msg("failed to mark claim for review")
		}
		o.recordAudit(ctx, exec, audit.EventWorkflowFailed, reason)
	default:
		var note *string
		if st.decision != nil && len(st.decision.DenialReasons) > 0 {
			joined := st.decision.DenialReasons[0]
			note = &joined
		}
		if st.decision != nil {
			if err := o.deps.Claims.UpdateStatus(ctx, c.ID, st.decision.Status, note); err != nil {
				o.deps.Logger.Warn().Err(err).Str("claim_id", c.ID.String()).Msg("failed to write claim disposition")
			}
		}
		o.recordAudit(ctx, exec, audit.EventWorkflowCompleted, fmt.Sprintf("workflow completed in %s", exec.Duration))
		if o.deps.Notifier != nil && len(result.Alerts) > 0 {
			data := map[string]string{
				"claim_id": c.ID.String(),
				"amount":   eob.FormatCents(c.BilledAmountCents),
			}
			if st.decision != nil {
				data["status"] = st.decision.Status
			}
			o.deps.Notifier.DispatchAlerts(ctx, c.ID.String(), result.Alerts, data)
		}
	}

	o.deps.Registry.remove(exec.ID)
	o.deps.Logger.Info().
		Str("workflow_id", exec.ID).
		Str("claim_id", c.ID.String()).
		Str("status", status).
		Dur("duration", exec.Duration).
		Msg("workflow finished")
}

func (o *Orchestrator) recordAudit(ctx context.Context, exec *WorkflowExecution, eventType, detail string) {
	event := audit.NewEvent(exec.ID, exec.ClaimID, eventType, exec.Initiator, detail)
	if err := o.deps.Audit.Record(ctx, event); err != nil {
		o.deps.Logger.Error().Err(err).Str("workflow_id", exec.ID).Msg("failed to record audit event")
	}
}

// selectWorkflowType resolves the workflow variant from the claim amount
// and known risk markers.
func (o *Orchestrator) selectWorkflowType(ctx context.Context, c *claim.Claim, cfg Config) string {
	if c.BilledAmountCents > cfg.HighValueThresholdCents {
		return TypeInvestigation
	}
	if c.BilledAmountCents > cfg.MediumValueThresholdCents {
		return TypeManualReview
	}
	if network, err := o.deps.Refdata.GetNetworkStatus(ctx, c.ProviderID); err == nil && network.FlaggedForReview {
		return TypeManualReview
	}
	if history, err := o.deps.Refdata.GetMemberHistory(ctx, c.MemberID); err == nil && history.PriorFraudFlags > 0 {
		return TypeManualReview
	}
	if c.BilledAmountCents <= cfg.ExpeditedMaxAmountCents && time.Since(c.SubmittedAt) <= cfg.ExpeditedMaxAge {
		return TypeExpedited
	}
	return TypeStandard
}

func priorityFor(amountCents int64, cfg Config) string {
	switch {
	case amountCents > cfg.HighValueThresholdCents:
		return PriorityUrgent
	case amountCents > cfg.MediumValueThresholdCents:
		return PriorityHigh
	case amountCents > cfg.ExpeditedMaxAmountCents:
		return PriorityMedium
	}
	return PriorityLow
}

// GetWorkflowStatus returns an active run from the registry, falling
// back to persisted history for terminal runs.
func (o *Orchestrator) GetWorkflowStatus(ctx context.Context, id string) (*WorkflowExecution, error) {
	if e, ok := o.deps.Registry.Get(id); ok {
		return e, nil
	}
	e, err := o.deps.History.GetExecution(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
	}
	return e, nil
}

// CancelWorkflow cooperatively cancels an active run.
func (o *Orchestrator) CancelWorkflow(id string) bool {
	return o.deps.Registry.Cancel(id)
}

// GetActiveWorkflows lists snapshots of the currently registered runs.
func (o *Orchestrator) GetActiveWorkflows() []*WorkflowExecution {
	return o.deps.Registry.List()
}

// ListDecisions returns the claim's adjudication history, newest first.
// Reprocessed claims accumulate one decision per run.
func (o *Orchestrator) ListDecisions(ctx context.Context, claimID uuid.UUID) ([]*adjudication.Decision, error) {
	return o.deps.History.ListDecisionsByClaim(ctx, claimID)
}

// GenerateEOB rebuilds the member-facing document from the claim's most
// recent decision. The per-run financial breakdown is not retained, so
// deductible and copay detail lines are zero on regenerated documents.
func (o *Orchestrator) GenerateEOB(ctx context.Context, claimID uuid.UUID) (*eob.Document, error) {
	c, err := o.deps.Claims.Get(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("load claim %s: %w", claimID, err)
	}
	decisions, err := o.deps.History.ListDecisionsByClaim(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("list decisions for claim %s: %w", claimID, err)
	}
	if len(decisions) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoDecision, claimID)
	}
	return o.deps.EOB.Generate(c, decisions[0], nil)
}
