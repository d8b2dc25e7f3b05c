package adjudication

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/claimflow/claimflow/internal/domain/claim"
	"github.com/claimflow/claimflow/internal/domain/refdata"
)

// Necessity verdicts.
const (
	VerdictPass           = "pass"
	VerdictReviewRequired = "review_required"
	VerdictFail           = "fail"
)

// Score weighting and thresholds for the necessity calculation.
const (
	weightDiagnosisSupport         = 40
	weightProcedureAppropriateness = 35
	weightGuidelineCompliance      = 25
	demographicPenalty             = 15
	passThreshold                  = 80
	failThreshold                  = 40
	unmatchedGuidelineScore        = 50
)

// NecessityResult scores how well the claim is supported by clinical
// guidelines. Scores are 0-100.
type NecessityResult struct {
	Score                  int      `json:"score"`
	Verdict                string   `json:"verdict"`
	RequiresClinicalReview bool     `json:"requires_clinical_review"`
	MatchedGuidelines      []string `json:"matched_guidelines,omitempty"`
	Notes                  []string `json:"notes,omitempty"`
}

// NecessityValidator matches claims against the clinical guideline corpus.
type NecessityValidator struct {
	refdata refdata.Provider
	logger  zerolog.Logger
}

func NewNecessityValidator(provider refdata.Provider, logger zerolog.Logger) *NecessityValidator {
	return &NecessityValidator{refdata: provider, logger: logger}
}

func (v *NecessityValidator) Execute(ctx context.Context, c *claim.Claim) (*NecessityResult, error) {
	member, err := v.refdata.GetMemberStatus(ctx, c.MemberID)
	if err != nil {
		return nil, fmt.Errorf("lookup member %s: %w", c.MemberID, err)
	}

	var matched []*refdata.Guideline
	seen := make(map[string]bool)
	for _, code := range c.DiagnosisCodes {
		guidelines, err := v.refdata.GetGuidelines(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("lookup guidelines for %s: %w", code, err)
		}
		for _, g := range guidelines {
			if !seen[g.ID] {
				seen[g.ID] = true
				matched = append(matched, g)
			}
		}
	}

	if len(matched) == 0 {
		return &NecessityResult{
			Score:                  unmatchedGuidelineScore,
			Verdict:                VerdictReviewRequired,
			RequiresClinicalReview: true,
			Notes:                  []string{"no clinical guideline matched the diagnosis codes"},
		}, nil
	}

	// Prefer guidelines that also cover a billed procedure code.
	var notes []string
	pool := guidelinesCoveringProcedures(matched, c.ProcedureCodes)
	if len(pool) == 0 {
		pool = matched
		notes = append(notes, "no matched guideline covers the billed procedures")
	}

	age := member.AgeAt(c.ServiceDate)
	best := -1
	var bestGuideline *refdata.Guideline
	matchedIDs := make([]string, 0, len(pool))
	for _, g := range pool {
		matchedIDs = append(matchedIDs, g.ID)
		score := (weightDiagnosisSupport*g.DiagnosisSupport +
			weightProcedureAppropriateness*g.ProcedureAppropriateness +
			weightGuidelineCompliance*g.ComplianceWeight) / 100
		if age >= 0 && outsideAgeRange(age, g.MinAge, g.MaxAge) {
			score -= demographicPenalty
		}
		if score < 0 {
			score = 0
		}
		if score > best {
			best = score
			bestGuideline = g
		}
	}

	verdict := VerdictFail
	switch {
	case best >= passThreshold:
		verdict = VerdictPass
	case best >= failThreshold:
		verdict = VerdictReviewRequired
	}

	requiresReview := verdict == VerdictReviewRequired
	if bestGuideline.Experimental {
		requiresReview = true
		notes = append(notes, "procedure is experimental")
	}
	if bestGuideline.Cosmetic {
		requiresReview = true
		notes = append(notes, "procedure is cosmetic")
	}

	v.logger.Debug().
		Str("claim_id", c.ID.String()).
		Int("score", best).
		Str("verdict", verdict).
		Msg("necessity validated")

	return &NecessityResult{
		Score:                  best,
		Verdict:                verdict,
		RequiresClinicalReview: requiresReview,
		MatchedGuidelines:      matchedIDs,
		Notes:                  notes,
	}, nil
}

func guidelinesCoveringProcedures(guidelines []*refdata.Guideline, procedures []string) []*refdata.Guideline {
	var covering []*refdata.Guideline
	for _, g := range guidelines {
		for _, code := range procedures {
			if g.CoversProcedure(code) {
				covering = append(covering, g)
				break
			}
		}
	}
	return covering
}

func outsideAgeRange(age int, minAge, maxAge *int) bool {
	if minAge != nil && age < *minAge {
		return true
	}
	if maxAge != nil && age > *maxAge {
		return true
	}
	return false
}
