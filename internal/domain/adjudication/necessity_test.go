package adjudication

import (
	"context"
	"testing"

	"github.com/claimflow/claimflow/internal/domain/refdata"
)

func TestNecessity_StrongGuidelineMatch(t *testing.T) {
	provider, c := seedRefdata()
	validator := NewNecessityValidator(provider, testLogger)

	result, err := validator.Execute(context.Background(), c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Score != 90 {
		t.Errorf("expected score 90, got %d", result.Score)
	}
	if result.Verdict != VerdictPass {
		t.Errorf("expected pass, got %s", result.Verdict)
	}
	if result.RequiresClinicalReview {
		t.Error("expected no clinical review for a passing score")
	}
	if len(result.MatchedGuidelines) != 1 || result.MatchedGuidelines[0] != "GL-BRONCHITIS" {
		t.Errorf("unexpected matched guidelines: %v", result.MatchedGuidelines)
	}
}

func TestNecessity_NoGuidelineMatch(t *testing.T) {
	provider, c := seedRefdata()
	c.DiagnosisCodes = []string{"Z99.9"}
	validator := NewNecessityValidator(provider, testLogger)

	result, err := validator.Execute(context.Background(), c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Score != 50 {
		t.Errorf("expected fallback score 50, got %d", result.Score)
	}
	if result.Verdict != VerdictReviewRequired {
		t.Errorf("expected review_required, got %s", result.Verdict)
	}
	if !result.RequiresClinicalReview {
		t.Error("expected clinical review when no guideline matches")
	}
}

func TestNecessity_LowScoreFails(t *testing.T) {
	provider, c := seedRefdata()
	c.DiagnosisCodes = []string{"M54.5"}
	provider.PutGuideline(&refdata.Guideline{
		ID:                       "GL-WEAK",
		DiagnosisCodes:           []string{"M54.5"},
		ProcedureCodes:           []string{"99213"},
		DiagnosisSupport:         30,
		ProcedureAppropriateness: 25,
		ComplianceWeight:         20,
	})
	validator := NewNecessityValidator(provider, testLogger)

	result, err := validator.Execute(context.Background(), c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// (40*30 + 35*25 + 25*20) / 100 = 25
	if result.Score != 25 {
		t.Errorf("expected score 25, got %d", result.Score)
	}
	if result.Verdict != VerdictFail {
		t.Errorf("expected fail, got %s", result.Verdict)
	}
}

func TestNecessity_MidScoreRequiresReview(t *testing.T) {
	provider, c := seedRefdata()
	c.DiagnosisCodes = []string{"M54.5"}
	provider.PutGuideline(&refdata.Guideline{
		ID:                       "GL-MID",
		DiagnosisCodes:           []string{"M54.5"},
		ProcedureCodes:           []string{"99213"},
		DiagnosisSupport:         60,
		ProcedureAppropriateness: 60,
		ComplianceWeight:         60,
	})
	validator := NewNecessityValidator(provider, testLogger)

	result, err := validator.Execute(context.Background(), c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Score != 60 {
		t.Errorf("expected score 60, got %d", result.Score)
	}
	if result.Verdict != VerdictReviewRequired {
		t.Errorf("expected review_required, got %s", result.Verdict)
	}
	if !result.RequiresClinicalReview {
		t.Error("expected clinical review flag")
	}
}

func TestNecessity_DemographicPenalty(t *testing.T) {
	provider, c := seedRefdata()
	minAge := 65
	c.DiagnosisCodes = []string{"M54.5"}
	provider.PutGuideline(&refdata.Guideline{
		ID:                       "GL-SENIOR",
		DiagnosisCodes:           []string{"M54.5"},
		ProcedureCodes:           []string{"99213"},
		DiagnosisSupport:         95,
		ProcedureAppropriateness: 90,
		ComplianceWeight:         85,
		MinAge:                   &minAge,
	})
	validator := NewNecessityValidator(provider, testLogger)

	result, err := validator.Execute(context.Background(), c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Member is in their forties, so the base score 90 drops by 15.
	if result.Score != 75 {
		t.Errorf("expected penalized score 75, got %d", result.Score)
	}
	if result.Verdict != VerdictReviewRequired {
		t.Errorf("expected review_required, got %s", result.Verdict)
	}
}

func TestNecessity_ExperimentalForcesReview(t *testing.T) {
	provider, c := seedRefdata()
	c.DiagnosisCodes = []string{"M54.5"}
	provider.PutGuideline(&refdata.Guideline{
		ID:                       "GL-EXPERIMENTAL",
		DiagnosisCodes:           []string{"M54.5"},
		ProcedureCodes:           []string{"99213"},
		DiagnosisSupport:         95,
		ProcedureAppropriateness: 95,
		ComplianceWeight:         95,
		Experimental:             true,
	})
	validator := NewNecessityValidator(provider, testLogger)

	result, err := validator.Execute(context.Background(), c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Verdict != VerdictPass {
		t.Errorf("expected pass verdict, got %s", result.Verdict)
	}
	if !result.RequiresClinicalReview {
		t.Error("expected experimental procedure to force clinical review")
	}
}

func TestNecessity_BestOfMultipleGuidelines(t *testing.T) {
	provider, c := seedRefdata()
	provider.PutGuideline(&refdata.Guideline{
		ID:                       "GL-WEAKER",
		DiagnosisCodes:           []string{"J20.9"},
		ProcedureCodes:           []string{"99213"},
		DiagnosisSupport:         50,
		ProcedureAppropriateness: 50,
		ComplianceWeight:         50,
	})
	validator := NewNecessityValidator(provider, testLogger)

	result, err := validator.Execute(context.Background(), c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Score != 90 {
		t.Errorf("expected best score 90, got %d", result.Score)
	}
	if len(result.MatchedGuidelines) != 2 {
		t.Errorf("expected both guidelines recorded, got %v", result.MatchedGuidelines)
	}
}
