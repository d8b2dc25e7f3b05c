package adjudication

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/claimflow/claimflow/internal/domain/claim"
	"github.com/claimflow/claimflow/internal/domain/refdata"
)

// FinancialResult is the cost-share breakdown in integer cents.
// MemberResponsibilityCents + InsurerResponsibilityCents +
// ProviderDiscountCents always equals OriginalAmountCents.
type FinancialResult struct {
	OriginalAmountCents        int64 `json:"original_amount_cents"`
	ProviderDiscountCents      int64 `json:"provider_discount_cents"`
	DeductibleAppliedCents     int64 `json:"deductible_applied_cents"`
	CopayAppliedCents          int64 `json:"copay_applied_cents"`
	CoinsuranceAppliedCents    int64 `json:"coinsurance_applied_cents"`
	MemberResponsibilityCents  int64 `json:"member_responsibility_cents"`
	InsurerResponsibilityCents int64 `json:"insurer_responsibility_cents"`
}

// FinancialCalculator applies the benefit's coverage parameters in fixed
// order: network discount, deductible, copay, coinsurance.
type FinancialCalculator struct {
	refdata refdata.Provider
	logger  zerolog.Logger
}

func NewFinancialCalculator(provider refdata.Provider, logger zerolog.Logger) *FinancialCalculator {
	return &FinancialCalculator{refdata: provider, logger: logger}
}

// Execute computes the cost share. When the necessity stage failed, the
// member owes the full billed amount and no benefit applies.
func (f *FinancialCalculator) Execute(ctx context.Context, c *claim.Claim, necessityFailed bool) (*FinancialResult, error) {
	original := c.BilledAmountCents
	if necessityFailed {
		return &FinancialResult{
			OriginalAmountCents:       original,
			MemberResponsibilityCents: original,
		}, nil
	}

	plan, err := f.refdata.GetBenefitPlan(ctx, c.BenefitPlanID)
	if err != nil {
		return nil, fmt.Errorf("lookup benefit plan %s: %w", c.BenefitPlanID, err)
	}

	discount := original * int64(plan.NetworkDiscountPct) / 100
	discounted := original - discount

	deductibleRemaining := plan.DeductibleCents - plan.DeductibleMetCents
	if deductibleRemaining < 0 {
		deductibleRemaining = 0
	}
	deductibleApplied := minCents(deductibleRemaining, discounted)
	afterDeductible := discounted - deductibleApplied

	copayApplied := minCents(plan.CopayCents, afterDeductible)
	afterCopay := afterDeductible - copayApplied

	coinsuranceApplied := afterCopay * int64(plan.CoinsurancePct) / 100

	member := deductibleApplied + copayApplied + coinsuranceApplied
	insurer := original - discount - member

	result := &FinancialResult{
		OriginalAmountCents:        original,
		ProviderDiscountCents:      discount,
		DeductibleAppliedCents:     deductibleApplied,
		CopayAppliedCents:          copayApplied,
		CoinsuranceAppliedCents:    coinsuranceApplied,
		MemberResponsibilityCents:  member,
		InsurerResponsibilityCents: insurer,
	}
	f.logger.Debug().
		Str("claim_id", c.ID.String()).
		Int64("member_cents", member).
		Int64("insurer_cents", insurer).
		Msg("financial responsibility calculated")
	return result, nil
}

func minCents(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
