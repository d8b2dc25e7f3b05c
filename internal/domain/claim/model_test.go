package claim

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func validClaim() *Claim {
	return &Claim{
		MemberID:          uuid.New(),
		ProviderID:        uuid.New(),
		BenefitPlanID:     "PLAN-GOLD",
		BilledAmountCents: 100000,
		Currency:          "USD",
		ServiceDate:       time.Now().AddDate(0, 0, -7),
		SubmittedAt:       time.Now(),
		DiagnosisCodes:    []string{"J20.9"},
		ProcedureCodes:    []string{"99213"},
		Status:            StatusSubmitted,
	}
}

func TestClaim_Validate(t *testing.T) {
	if err := validClaim().Validate(); err != nil {
		t.Fatalf("expected valid claim, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Claim)
	}{
		{"missing member", func(c *Claim) { c.MemberID = uuid.Nil }},
		{"missing provider", func(c *Claim) { c.ProviderID = uuid.Nil }},
		{"missing plan", func(c *Claim) { c.BenefitPlanID = "" }},
		{"zero amount", func(c *Claim) { c.BilledAmountCents = 0 }},
		{"negative amount", func(c *Claim) { c.BilledAmountCents = -500 }},
		{"zero service date", func(c *Claim) { c.ServiceDate = time.Time{} }},
		{"future service date", func(c *Claim) { c.ServiceDate = time.Now().AddDate(0, 0, 2) }},
		{"no diagnosis codes", func(c *Claim) { c.DiagnosisCodes = nil }},
		{"no procedure codes", func(c *Claim) { c.ProcedureCodes = nil }},
		{"unknown status", func(c *Claim) { c.Status = "pending-ish" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validClaim()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusSubmitted, StatusProcessing, StatusApproved, StatusPartiallyApproved, StatusDenied, StatusUnderReview, StatusCancelled} {
		if !ValidStatus(s) {
			t.Errorf("expected %s to be valid", s)
		}
	}
	if ValidStatus("archived") {
		t.Error("expected archived to be invalid")
	}
}

func TestTerminal(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{StatusApproved, true},
		{StatusPartiallyApproved, true},
		{StatusDenied, true},
		{StatusCancelled, true},
		{StatusSubmitted, false},
		{StatusProcessing, false},
		{StatusUnderReview, false},
	}
	for _, tt := range tests {
		if got := Terminal(tt.status); got != tt.want {
			t.Errorf("Terminal(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
