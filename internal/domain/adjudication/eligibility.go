package adjudication

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/claimflow/claimflow/internal/domain/claim"
	"github.com/claimflow/claimflow/internal/domain/refdata"
)

// EligibilityResult reports whether the claim may be adjudicated at all.
// DenialReasons lists every failing check in check order, not just the first.
type EligibilityResult struct {
	Eligible              bool     `json:"eligible"`
	DenialReasons         []string `json:"denial_reasons,omitempty"`
	RemainingBenefitCents int64    `json:"remaining_benefit_cents"`
	PreauthVerified       bool     `json:"preauth_verified"`
}

// EligibilityChecker verifies coverage before any other stage runs.
type EligibilityChecker struct {
	refdata refdata.Provider
	logger  zerolog.Logger
}

func NewEligibilityChecker(provider refdata.Provider, logger zerolog.Logger) *EligibilityChecker {
	return &EligibilityChecker{refdata: provider, logger: logger}
}

func (e *EligibilityChecker) Execute(ctx context.Context, c *claim.Claim) (*EligibilityResult, error) {
	plan, err := e.refdata.GetBenefitPlan(ctx, c.BenefitPlanID)
	if err != nil {
		return nil, fmt.Errorf("lookup benefit plan %s: %w", c.BenefitPlanID, err)
	}
	member, err := e.refdata.GetMemberStatus(ctx, c.MemberID)
	if err != nil {
		return nil, fmt.Errorf("lookup member %s: %w", c.MemberID, err)
	}
	network, err := e.refdata.GetNetworkStatus(ctx, c.ProviderID)
	if err != nil {
		return nil, fmt.Errorf("lookup provider network %s: %w", c.ProviderID, err)
	}

	var reasons []string
	if !plan.PolicyActive {
		reasons = append(reasons, "policy is not active")
	}
	if c.ServiceDate.Before(plan.EffectiveDate) {
		reasons = append(reasons, "service date precedes policy effective date")
	}
	if plan.TermDate != nil && c.ServiceDate.After(*plan.TermDate) {
		reasons = append(reasons, "service date is after policy termination")
	}
	if !member.Active {
		reasons = append(reasons, "member is not active")
	}
	waitingEnds := member.EnrolledAt.AddDate(0, 0, plan.WaitingPeriodDays)
	if c.ServiceDate.Before(waitingEnds) {
		reasons = append(reasons, "waiting period not satisfied")
	}
	remaining := plan.RemainingBenefitCents()
	if remaining < c.BilledAmountCents {
		reasons = append(reasons, "insufficient remaining annual benefit")
	}
	if !network.InNetwork {
		reasons = append(reasons, "provider is out of network")
	}

	preauthRequired := plan.PreauthRequired
	if !preauthRequired {
		for _, proc := range c.ProcedureCodes {
			for _, required := range plan.PreauthProcedures {
				if proc == required {
					preauthRequired = true
					break
				}
			}
		}
	}
	preauthVerified := !preauthRequired || c.PreauthRef != nil
	if preauthRequired && c.PreauthRef == nil {
		reasons = append(reasons, "preauthorization is required but missing")
	}

	result := &EligibilityResult{
		Eligible:              len(reasons) == 0,
		DenialReasons:         reasons,
		RemainingBenefitCents: remaining,
		PreauthVerified:       preauthVerified,
	}
	if !result.Eligible {
		e.logger.Debug().
			Str("claim_id", c.ID.String()).
			Strs("denial_reasons", reasons).
			Msg("claim failed eligibility")
	}
	return result, nil
}
