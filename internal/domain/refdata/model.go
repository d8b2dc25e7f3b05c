package refdata

import (
	"time"

	"github.com/google/uuid"
)

// BenefitPlan describes the coverage terms applied during adjudication.
// Monetary fields are integer cents, percentage fields whole percents.
type BenefitPlan struct {
	PlanID             string     `db:"plan_id" json:"plan_id"`
	Name               string     `db:"name" json:"name"`
	PolicyActive       bool       `db:"policy_active" json:"policy_active"`
	EffectiveDate      time.Time  `db:"effective_date" json:"effective_date"`
	TermDate           *time.Time `db:"term_date" json:"term_date,omitempty"`
	WaitingPeriodDays  int        `db:"waiting_period_days" json:"waiting_period_days"`
	AnnualLimitCents   int64      `db:"annual_limit_cents" json:"annual_limit_cents"`
	UsedToDateCents    int64      `db:"used_to_date_cents" json:"used_to_date_cents"`
	DeductibleCents    int64      `db:"deductible_cents" json:"deductible_cents"`
	DeductibleMetCents int64      `db:"deductible_met_cents" json:"deductible_met_cents"`
	CopayCents         int64      `db:"copay_cents" json:"copay_cents"`
	CoinsurancePct     int        `db:"coinsurance_pct" json:"coinsurance_pct"`
	NetworkDiscountPct int        `db:"network_discount_pct" json:"network_discount_pct"`
	PreauthRequired    bool       `db:"preauth_required" json:"preauth_required"`
	PreauthProcedures  []string   `db:"preauth_procedures" json:"preauth_procedures"`
}

// RemainingBenefitCents returns the unspent part of the annual limit.
func (p *BenefitPlan) RemainingBenefitCents() int64 {
	remaining := p.AnnualLimitCents - p.UsedToDateCents
	if remaining < 0 {
		return 0
	}
	return remaining
}

// MemberStatus is the enrollment record for a member.
type MemberStatus struct {
	MemberID   uuid.UUID  `db:"member_id" json:"member_id"`
	Active     bool       `db:"active" json:"active"`
	EnrolledAt time.Time  `db:"enrolled_at" json:"enrolled_at"`
	BirthDate  *time.Time `db:"birth_date" json:"birth_date,omitempty"`
}

// AgeAt returns the member's age in whole years at the given date,
// or -1 when the birth date is unknown.
func (m *MemberStatus) AgeAt(at time.Time) int {
	if m.BirthDate == nil {
		return -1
	}
	age := at.Year() - m.BirthDate.Year()
	anniversary := m.BirthDate.AddDate(age, 0, 0)
	if anniversary.After(at) {
		age--
	}
	return age
}

// NetworkStatus is the network standing of a provider. TypicalAmounts maps
// procedure codes to the provider's typical billed amount in cents.
type NetworkStatus struct {
	ProviderID       uuid.UUID        `db:"provider_id" json:"provider_id"`
	InNetwork        bool             `db:"in_network" json:"in_network"`
	FlaggedForReview bool             `db:"flagged_for_review" json:"flagged_for_review"`
	TypicalAmounts   map[string]int64 `db:"typical_amounts" json:"typical_amounts"`
}

// Guideline is a clinical guideline entry matched against diagnosis and
// procedure codes. Sub-scores are on a 0-100 scale.
type Guideline struct {
	ID                       string   `db:"id" json:"id"`
	DiagnosisCodes           []string `db:"diagnosis_codes" json:"diagnosis_codes"`
	ProcedureCodes           []string `db:"procedure_codes" json:"procedure_codes"`
	DiagnosisSupport         int      `db:"diagnosis_support" json:"diagnosis_support"`
	ProcedureAppropriateness int      `db:"procedure_appropriateness" json:"procedure_appropriateness"`
	ComplianceWeight         int      `db:"compliance_weight" json:"compliance_weight"`
	MinAge                   *int     `db:"min_age" json:"min_age,omitempty"`
	MaxAge                   *int     `db:"max_age" json:"max_age,omitempty"`
	Experimental             bool     `db:"experimental" json:"experimental"`
	Cosmetic                 bool     `db:"cosmetic" json:"cosmetic"`
}

// CoversProcedure reports whether the guideline lists the procedure code.
func (g *Guideline) CoversProcedure(code string) bool {
	for _, p := range g.ProcedureCodes {
		if p == code {
			return true
		}
	}
	return false
}

// MemberHistory summarizes a member's recent claim activity.
type MemberHistory struct {
	MemberID         uuid.UUID `db:"member_id" json:"member_id"`
	RecentClaimCount int       `db:"recent_claim_count" json:"recent_claim_count"`
	PriorFraudFlags  int       `db:"prior_fraud_flags" json:"prior_fraud_flags"`
	PolicyAgeDays    int       `db:"policy_age_days" json:"policy_age_days"`
}
