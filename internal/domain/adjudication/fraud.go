package adjudication

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/claimflow/claimflow/internal/domain/claim"
	"github.com/claimflow/claimflow/internal/domain/refdata"
)

// Fraud risk levels, lowest to highest.
const (
	RiskNone     = "none"
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

// Signal weights for the additive risk score.
const (
	scoreAmountAboveTypical = 30
	scoreVeryHighFrequency  = 20
	scoreHighFrequency      = 10
	scoreProviderFlagged    = 25
	scorePriorFraudFlags    = 20
	scoreRoundAmount        = 5
	scoreNewPolicy          = 10

	typicalAmountMultiple = 3
	veryHighClaimCount    = 10
	highClaimCount        = 5
	roundAmountFloorCents = 500000
	roundAmountStepCents  = 100000
	newPolicyMaxAgeDays   = 30
)

// FraudResult carries the additive risk score, the derived level and the
// contributing signal names.
type FraudResult struct {
	Score                 int      `json:"score"`
	Level                 string   `json:"level"`
	Signals               []string `json:"signals,omitempty"`
	InvestigationRequired bool     `json:"investigation_required"`
}

// RiskAtLeast reports whether the result's level is at or above the given
// level in the none < low < medium < high < critical ordering.
func (r *FraudResult) RiskAtLeast(level string) bool {
	return riskRank(r.Level) >= riskRank(level)
}

func riskRank(level string) int {
	switch level {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	case RiskCritical:
		return 4
	}
	return 0
}

// FraudAnalyzer scores claims against provider and member risk signals.
type FraudAnalyzer struct {
	refdata refdata.Provider
	logger  zerolog.Logger
}

func NewFraudAnalyzer(provider refdata.Provider, logger zerolog.Logger) *FraudAnalyzer {
	return &FraudAnalyzer{refdata: provider, logger: logger}
}

func (a *FraudAnalyzer) Execute(ctx context.Context, c *claim.Claim) (*FraudResult, error) {
	network, err := a.refdata.GetNetworkStatus(ctx, c.ProviderID)
	if err != nil {
		return nil, fmt.Errorf("lookup provider network %s: %w", c.ProviderID, err)
	}
	history, err := a.refdata.GetMemberHistory(ctx, c.MemberID)
	if err != nil {
		return nil, fmt.Errorf("lookup member history %s: %w", c.MemberID, err)
	}

	score := 0
	var signals []string

	if typical := typicalAmountFor(network, c.ProcedureCodes); typical > 0 && c.BilledAmountCents > typical*typicalAmountMultiple {
		score += scoreAmountAboveTypical
		signals = append(signals, "amount_above_typical")
	}
	switch {
	case history.RecentClaimCount > veryHighClaimCount:
		score += scoreVeryHighFrequency
		signals = append(signals, "high_claim_frequency")
	case history.RecentClaimCount > highClaimCount:
		score += scoreHighFrequency
		signals = append(signals, "high_claim_frequency")
	}
	if network.FlaggedForReview {
		score += scoreProviderFlagged
		signals = append(signals, "provider_flagged")
	}
	if history.PriorFraudFlags > 0 {
		score += scorePriorFraudFlags
		signals = append(signals, "prior_fraud_flags")
	}
	if c.BilledAmountCents >= roundAmountFloorCents && c.BilledAmountCents%roundAmountStepCents == 0 {
		score += scoreRoundAmount
		signals = append(signals, "round_amount")
	}
	if history.PolicyAgeDays < newPolicyMaxAgeDays {
		score += scoreNewPolicy
		signals = append(signals, "new_policy")
	}

	level := levelForScore(score)
	result := &FraudResult{
		Score:                 score,
		Level:                 level,
		Signals:               signals,
		InvestigationRequired: riskRank(level) >= riskRank(RiskMedium),
	}
	if result.InvestigationRequired {
		a.logger.Debug().
			Str("claim_id", c.ID.String()).
			Int("score", score).
			Str("level", level).
			Strs("signals", signals).
			Msg("fraud risk requires investigation")
	}
	return result, nil
}

func typicalAmountFor(network *refdata.NetworkStatus, procedures []string) int64 {
	var total int64
	for _, code := range procedures {
		total += network.TypicalAmounts[code]
	}
	return total
}

func levelForScore(score int) string {
	switch {
	case score >= 70:
		return RiskCritical
	case score >= 40:
		return RiskHigh
	case score >= 20:
		return RiskMedium
	case score >= 1:
		return RiskLow
	}
	return RiskNone
}
