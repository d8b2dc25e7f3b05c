package workflow

import "testing"

func TestStepTransition_Forward(t *testing.T) {
	s := &WorkflowStep{ID: stepValidate, Status: StepPending}
	if err := s.transition(StepInProgress); err != nil {
		t.Fatalf("pending to in_progress: %v", err)
	}
	if err := s.transition(StepCompleted); err != nil {
		t.Fatalf("in_progress to completed: %v", err)
	}
}

func TestStepTransition_NoBackwardMoves(t *testing.T) {
	s := &WorkflowStep{ID: stepValidate, Status: StepCompleted}
	for _, to := range []string{StepPending, StepInProgress, StepFailed, StepSkipped} {
		if err := s.transition(to); err == nil {
			t.Errorf("expected error moving completed step to %s", to)
		}
	}
	if s.Status != StepCompleted {
		t.Errorf("rejected transition must not change status, got %s", s.Status)
	}
}

func TestStepTransition_PendingToSkipped(t *testing.T) {
	s := &WorkflowStep{ID: stepFraud, Status: StepPending}
	if err := s.transition(StepSkipped); err != nil {
		t.Fatalf("pending to skipped: %v", err)
	}
}

func TestStepTransition_UnknownStatus(t *testing.T) {
	s := &WorkflowStep{ID: stepValidate, Status: StepPending}
	if err := s.transition("paused"); err == nil {
		t.Error("expected error for unknown target status")
	}
}

func TestValidType(t *testing.T) {
	for _, typ := range []string{TypeStandard, TypeExpedited, TypeManualReview, TypeInvestigation} {
		if !ValidType(typ) {
			t.Errorf("expected %s to be valid", typ)
		}
	}
	if ValidType("turbo") || ValidType("") {
		t.Error("unexpected valid type")
	}
}

func TestStepByID(t *testing.T) {
	e := &WorkflowExecution{Steps: newSteps(TypeStandard)}
	if s := e.StepByID(stepDecision); s == nil || s.ID != stepDecision {
		t.Errorf("expected decision step, got %+v", s)
	}
	if s := e.StepByID("nope"); s != nil {
		t.Errorf("expected nil for unknown step, got %+v", s)
	}
}
