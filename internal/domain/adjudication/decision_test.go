package adjudication

import (
	"testing"

	"github.com/claimflow/claimflow/internal/domain/claim"
)

func TestDecide_EligibilityDenialWinsOverEverything(t *testing.T) {
	_, c := seedRefdata()
	engine := NewEngine(testLogger)

	d, err := engine.Decide(c,
		&EligibilityResult{Eligible: false, DenialReasons: []string{"policy is not active"}},
		&NecessityResult{Score: 95, Verdict: VerdictPass},
		&FraudResult{Level: RiskNone},
		&FinancialResult{OriginalAmountCents: 100000, InsurerResponsibilityCents: 100000},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Status != claim.StatusDenied {
		t.Errorf("expected denied, got %s", d.Status)
	}
	if d.ApprovedAmountCents != 0 {
		t.Errorf("expected no approved amount, got %d", d.ApprovedAmountCents)
	}
	if d.MemberResponsibilityCents != c.BilledAmountCents {
		t.Errorf("expected member owes full amount, got %d", d.MemberResponsibilityCents)
	}
	if len(d.AppliedRules) != 1 || d.AppliedRules[0] != RuleEligibilityDenial {
		t.Errorf("unexpected applied rules: %v", d.AppliedRules)
	}
	if d.DenialReasons[0] != "policy is not active" {
		t.Errorf("unexpected denial reasons: %v", d.DenialReasons)
	}
}

func TestDecide_EligibilityDenialToleratesNilFinancial(t *testing.T) {
	_, c := seedRefdata()
	engine := NewEngine(testLogger)

	d, err := engine.Decide(c,
		&EligibilityResult{Eligible: false, DenialReasons: []string{"member is not active"}},
		nil, nil, nil,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Status != claim.StatusDenied {
		t.Errorf("expected denied, got %s", d.Status)
	}
}

func TestDecide_NecessityFailure(t *testing.T) {
	_, c := seedRefdata()
	engine := NewEngine(testLogger)

	d, err := engine.Decide(c,
		&EligibilityResult{Eligible: true},
		&NecessityResult{Score: 25, Verdict: VerdictFail},
		&FraudResult{Level: RiskNone},
		&FinancialResult{OriginalAmountCents: 100000, MemberResponsibilityCents: 100000},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Status != claim.StatusDenied {
		t.Errorf("expected denied, got %s", d.Status)
	}
	if d.DenialReasons[0] != "medical necessity not established" {
		t.Errorf("unexpected denial reasons: %v", d.DenialReasons)
	}
	if d.AppliedRules[0] != RuleNecessityFail {
		t.Errorf("unexpected applied rules: %v", d.AppliedRules)
	}
}

func TestDecide_FraudInvestigation(t *testing.T) {
	_, c := seedRefdata()
	engine := NewEngine(testLogger)

	for _, level := range []string{RiskMedium, RiskHigh, RiskCritical} {
		d, err := engine.Decide(c,
			&EligibilityResult{Eligible: true},
			&NecessityResult{Score: 90, Verdict: VerdictPass},
			&FraudResult{Level: level, InvestigationRequired: true},
			&FinancialResult{OriginalAmountCents: 100000, InsurerResponsibilityCents: 93000, MemberResponsibilityCents: 7000},
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.Status != claim.StatusDenied {
			t.Errorf("level %s: expected denied, got %s", level, d.Status)
		}
		if !d.InvestigationRequired {
			t.Errorf("level %s: expected investigation flag", level)
		}
		if d.AppliedRules[0] != RuleFraudInvestigation {
			t.Errorf("level %s: unexpected applied rules: %v", level, d.AppliedRules)
		}
	}
}

func TestDecide_PartialApproval(t *testing.T) {
	_, c := seedRefdata()
	engine := NewEngine(testLogger)

	d, err := engine.Decide(c,
		&EligibilityResult{Eligible: true},
		&NecessityResult{Score: 90, Verdict: VerdictPass},
		&FraudResult{Level: RiskLow},
		&FinancialResult{OriginalAmountCents: 100000, InsurerResponsibilityCents: 93000, MemberResponsibilityCents: 7000},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Status != claim.StatusPartiallyApproved {
		t.Errorf("expected partially approved, got %s", d.Status)
	}
	if d.ApprovedAmountCents != 93000 {
		t.Errorf("expected approved amount 93000, got %d", d.ApprovedAmountCents)
	}
	if d.AppliedRules[0] != RuleMemberCostShare {
		t.Errorf("unexpected applied rules: %v", d.AppliedRules)
	}
}

func TestDecide_FullApproval(t *testing.T) {
	_, c := seedRefdata()
	engine := NewEngine(testLogger)

	d, err := engine.Decide(c,
		&EligibilityResult{Eligible: true},
		&NecessityResult{Score: 90, Verdict: VerdictPass},
		&FraudResult{Level: RiskNone},
		&FinancialResult{OriginalAmountCents: 100000, InsurerResponsibilityCents: 100000},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Status != claim.StatusApproved {
		t.Errorf("expected approved, got %s", d.Status)
	}
	if d.ApprovedAmountCents != 100000 {
		t.Errorf("expected approved amount 100000, got %d", d.ApprovedAmountCents)
	}
}

func TestDecide_SkippedStagesTolerated(t *testing.T) {
	_, c := seedRefdata()
	engine := NewEngine(testLogger)

	// Expedited runs carry no fraud or necessity results.
	d, err := engine.Decide(c,
		&EligibilityResult{Eligible: true},
		nil, nil,
		&FinancialResult{OriginalAmountCents: 50000, InsurerResponsibilityCents: 50000},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Status != claim.StatusApproved {
		t.Errorf("expected approved, got %s", d.Status)
	}
}

func TestDecide_MissingRequiredInputs(t *testing.T) {
	_, c := seedRefdata()
	engine := NewEngine(testLogger)

	if _, err := engine.Decide(c, nil, nil, nil, nil); err == nil {
		t.Error("expected error for missing eligibility result")
	}
	if _, err := engine.Decide(c, &EligibilityResult{Eligible: true}, nil, nil, nil); err == nil {
		t.Error("expected error for missing financial result on eligible claim")
	}
}
