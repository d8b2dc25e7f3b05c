package workflow

import (
	"time"

	"github.com/claimflow/claimflow/internal/domain/adjudication"
	"github.com/claimflow/claimflow/internal/domain/claim"
)

// mandatorySteps must reach completed for a run to be fully compliant.
var mandatorySteps = map[string]bool{
	stepValidate:    true,
	stepEligibility: true,
	stepFinancial:   true,
}

// QualityScore grades a run out of 100: each failed step costs 10 points,
// and a run slower than slowThreshold costs another 10. Floor is 0.
func QualityScore(e *WorkflowExecution, slowThreshold time.Duration) int {
	score := 100
	for _, s := range e.Steps {
		if s.Status == StepFailed {
			score -= 10
		}
	}
	if slowThreshold > 0 && e.Duration > slowThreshold {
		score -= 10
	}
	if score < 0 {
		score = 0
	}
	return score
}

// ComplianceScore grades a run out of 100: each mandatory step that did
// not complete costs 25 points. Floor is 0.
func ComplianceScore(e *WorkflowExecution) int {
	score := 100
	for _, s := range e.Steps {
		if mandatorySteps[s.ID] && s.Status != StepCompleted {
			score -= 25
		}
	}
	if score < 0 {
		score = 0
	}
	return score
}

// AuditRequired flags runs that need a manual audit pass: large approved
// amounts, any failed step, or high fraud risk.
func AuditRequired(e *WorkflowExecution, d *adjudication.Decision, f *adjudication.FraudResult, largeThresholdCents int64) bool {
	if d != nil && d.ApprovedAmountCents > largeThresholdCents {
		return true
	}
	for _, s := range e.Steps {
		if s.Status == StepFailed {
			return true
		}
	}
	if f != nil && f.RiskAtLeast(adjudication.RiskHigh) {
		return true
	}
	return false
}

// Alerts derives the notification keys for a finished run.
func Alerts(d *adjudication.Decision, f *adjudication.FraudResult, largeThresholdCents int64) []string {
	var alerts []string
	if f != nil && f.RiskAtLeast(adjudication.RiskHigh) {
		alerts = append(alerts, "investigation_required")
	}
	if d != nil {
		switch d.Status {
		case claim.StatusDenied:
			alerts = append(alerts, "member_notification")
		case claim.StatusApproved, claim.StatusPartiallyApproved:
			if d.ApprovedAmountCents > largeThresholdCents {
				alerts = append(alerts, "secondary_review")
			}
		}
	}
	return alerts
}

// NextSteps suggests follow-up actions based on the run outcome.
func NextSteps(e *WorkflowExecution, d *adjudication.Decision) []string {
	if e.Status == StatusFailed {
		return []string{"review failure", "reprocess claim"}
	}
	if d == nil {
		return nil
	}
	switch d.Status {
	case claim.StatusDenied:
		return []string{"send denial letter", "notify provider"}
	case claim.StatusApproved, claim.StatusPartiallyApproved:
		return []string{"process payment", "send EOB"}
	}
	return nil
}
