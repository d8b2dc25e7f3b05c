package workflow

import (
	"testing"
	"time"

	"github.com/claimflow/claimflow/internal/domain/adjudication"
	"github.com/claimflow/claimflow/internal/domain/claim"
)

func execWithSteps(statuses map[string]string) *WorkflowExecution {
	e := &WorkflowExecution{Steps: newSteps(TypeStandard), Status: StatusCompleted}
	for id, status := range statuses {
		e.StepByID(id).Status = status
	}
	return e
}

func completedExec() *WorkflowExecution {
	e := &WorkflowExecution{Steps: newSteps(TypeStandard), Status: StatusCompleted}
	for _, s := range e.Steps {
		s.Status = StepCompleted
	}
	return e
}

func TestQualityScore(t *testing.T) {
	slow := 5 * time.Second

	e := completedExec()
	if got := QualityScore(e, slow); got != 100 {
		t.Errorf("clean run: expected 100, got %d", got)
	}

	e = completedExec()
	e.StepByID(stepFraud).Status = StepFailed
	e.StepByID(stepNecessity).Status = StepFailed
	if got := QualityScore(e, slow); got != 80 {
		t.Errorf("two failures: expected 80, got %d", got)
	}

	e = completedExec()
	e.Duration = 6 * time.Second
	if got := QualityScore(e, slow); got != 90 {
		t.Errorf("slow run: expected 90, got %d", got)
	}

	e = completedExec()
	e.Duration = 6 * time.Second
	for _, s := range e.Steps {
		s.Status = StepFailed
	}
	if got := QualityScore(e, slow); got != 20 {
		t.Errorf("everything failed: expected 20, got %d", got)
	}
}

func TestComplianceScore(t *testing.T) {
	if got := ComplianceScore(completedExec()); got != 100 {
		t.Errorf("clean run: expected 100, got %d", got)
	}

	e := execWithSteps(map[string]string{stepFinancial: StepSkipped})
	if got := ComplianceScore(e); got != 75 {
		t.Errorf("financial skipped: expected 75, got %d", got)
	}

	e = execWithSteps(map[string]string{
		stepValidate:    StepFailed,
		stepEligibility: StepPending,
		stepFinancial:   StepPending,
	})
	if got := ComplianceScore(e); got != 25 {
		t.Errorf("validation failure: expected 25, got %d", got)
	}

	if got := ComplianceScore(&WorkflowExecution{Steps: newSteps(TypeStandard)}); got != 25 {
		t.Errorf("nothing ran: expected 25, got %d", got)
	}
}

func TestAuditRequired(t *testing.T) {
	large := int64(1000000)

	if AuditRequired(completedExec(), nil, nil, large) {
		t.Error("clean run without decision should not need audit")
	}

	d := &adjudication.Decision{Status: claim.StatusApproved, ApprovedAmountCents: 1500000}
	if !AuditRequired(completedExec(), d, nil, large) {
		t.Error("large approval should need audit")
	}

	e := completedExec()
	e.StepByID(stepFraud).Status = StepFailed
	if !AuditRequired(e, nil, nil, large) {
		t.Error("failed step should need audit")
	}

	f := &adjudication.FraudResult{Level: adjudication.RiskHigh}
	if !AuditRequired(completedExec(), nil, f, large) {
		t.Error("high fraud risk should need audit")
	}

	f = &adjudication.FraudResult{Level: adjudication.RiskMedium}
	if AuditRequired(completedExec(), nil, f, large) {
		t.Error("medium fraud risk alone should not need audit")
	}
}

func TestAlerts(t *testing.T) {
	large := int64(1000000)

	if got := Alerts(nil, nil, large); got != nil {
		t.Errorf("no inputs: expected no alerts, got %v", got)
	}

	d := &adjudication.Decision{Status: claim.StatusDenied}
	f := &adjudication.FraudResult{Level: adjudication.RiskCritical}
	got := Alerts(d, f, large)
	want := []string{"investigation_required", "member_notification"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("expected %v, got %v", want, got)
	}

	d = &adjudication.Decision{Status: claim.StatusApproved, ApprovedAmountCents: 2000000}
	got = Alerts(d, nil, large)
	if len(got) != 1 || got[0] != "secondary_review" {
		t.Errorf("large approval: expected secondary_review, got %v", got)
	}

	d = &adjudication.Decision{Status: claim.StatusApproved, ApprovedAmountCents: 50000}
	if got := Alerts(d, nil, large); got != nil {
		t.Errorf("small approval: expected no alerts, got %v", got)
	}
}

func TestNextSteps(t *testing.T) {
	e := completedExec()

	got := NextSteps(e, &adjudication.Decision{Status: claim.StatusDenied})
	if len(got) != 2 || got[0] != "send denial letter" {
		t.Errorf("denied: unexpected next steps %v", got)
	}

	got = NextSteps(e, &adjudication.Decision{Status: claim.StatusPartiallyApproved})
	if len(got) != 2 || got[0] != "process payment" {
		t.Errorf("partial approval: unexpected next steps %v", got)
	}

	failed := &WorkflowExecution{Status: StatusFailed}
	got = NextSteps(failed, nil)
	if len(got) != 2 || got[1] != "reprocess claim" {
		t.Errorf("failed run: unexpected next steps %v", got)
	}

	if got := NextSteps(e, nil); got != nil {
		t.Errorf("no decision: expected nil, got %v", got)
	}
}
