package adjudication

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/claimflow/claimflow/internal/domain/claim"
)

// Rule identifiers recorded on a decision, in precedence order.
const (
	RuleEligibilityDenial  = "eligibility-denial"
	RuleNecessityFail      = "necessity-fail"
	RuleFraudInvestigation = "fraud-investigation"
	RuleMemberCostShare    = "member-cost-share"
	RuleAutoApprove        = "auto-approve"
)

// Decision is the adjudication outcome for a single workflow run. A new
// record is written on every run; existing decisions are never mutated.
type Decision struct {
	ID                         uuid.UUID `db:"id" json:"id"`
	ClaimID                    uuid.UUID `db:"claim_id" json:"claim_id"`
	Status                     string    `db:"status" json:"status"`
	ApprovedAmountCents        int64     `db:"approved_amount_cents" json:"approved_amount_cents"`
	MemberResponsibilityCents  int64     `db:"member_responsibility_cents" json:"member_responsibility_cents"`
	InsurerResponsibilityCents int64     `db:"insurer_responsibility_cents" json:"insurer_responsibility_cents"`
	DenialReasons              []string  `db:"denial_reasons" json:"denial_reasons,omitempty"`
	AppliedRules               []string  `db:"applied_rules" json:"applied_rules"`
	InvestigationRequired      bool      `db:"investigation_required" json:"investigation_required"`
	DecidedAt                  time.Time `db:"decided_at" json:"decided_at"`
}

// Engine resolves stage results into a final claim disposition.
type Engine struct {
	logger zerolog.Logger
}

func NewEngine(logger zerolog.Logger) *Engine {
	return &Engine{logger: logger}
}

// Decide applies the precedence rules: eligibility denial first, then
// necessity failure, then fraud investigation, then cost-share split.
// Eligibility is always required; the financial breakdown is required
// unless the claim is ineligible. Necessity and fraud results are
// optional because some workflow variants skip those stages.
func (e *Engine) Decide(c *claim.Claim, eligibility *EligibilityResult, necessity *NecessityResult, fraud *FraudResult, financial *FinancialResult) (*Decision, error) {
	if eligibility == nil {
		return nil, fmt.Errorf("decide claim %s: eligibility result is required", c.ID)
	}

	d := &Decision{
		ID:        uuid.New(),
		ClaimID:   c.ID,
		DecidedAt: time.Now(),
	}

	if !eligibility.Eligible {
		d.Status = claim.StatusDenied
		d.DenialReasons = eligibility.DenialReasons
		d.MemberResponsibilityCents = c.BilledAmountCents
		d.AppliedRules = []string{RuleEligibilityDenial}
		e.logDecision(c, d)
		return d, nil
	}

	if financial == nil {
		return nil, fmt.Errorf("decide claim %s: financial result is required for eligible claims", c.ID)
	}
	d.MemberResponsibilityCents = financial.MemberResponsibilityCents
	d.InsurerResponsibilityCents = financial.InsurerResponsibilityCents

	if necessity != nil && necessity.Verdict == VerdictFail {
		d.Status = claim.StatusDenied
		d.DenialReasons = []string{"medical necessity not established"}
		d.InsurerResponsibilityCents = 0
		d.MemberResponsibilityCents = c.BilledAmountCents
		d.AppliedRules = []string{RuleNecessityFail}
		e.logDecision(c, d)
		return d, nil
	}

	if fraud != nil && fraud.RiskAtLeast(RiskMedium) {
		d.Status = claim.StatusDenied
		d.DenialReasons = []string{fmt.Sprintf("fraud risk level %s requires investigation", fraud.Level)}
		d.InvestigationRequired = true
		d.AppliedRules = []string{RuleFraudInvestigation}
		e.logDecision(c, d)
		return d, nil
	}

	d.ApprovedAmountCents = financial.InsurerResponsibilityCents
	if financial.MemberResponsibilityCents > 0 {
		d.Status = claim.StatusPartiallyApproved
		d.AppliedRules = []string{RuleMemberCostShare}
	} else {
		d.Status = claim.StatusApproved
		d.AppliedRules = []string{RuleAutoApprove}
	}
	e.logDecision(c, d)
	return d, nil
}

func (e *Engine) logDecision(c *claim.Claim, d *Decision) {
	e.logger.Info().
		Str("claim_id", c.ID.String()).
		Str("decision_id", d.ID.String()).
		Str("status", d.Status).
		Int64("approved_cents", d.ApprovedAmountCents).
		Bool("investigation_required", d.InvestigationRequired).
		Msg("claim adjudicated")
}
