package claim

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Claim statuses. A claim moves from submitted through processing to a
// terminal disposition written by the workflow that adjudicated it.
const (
	StatusSubmitted         = "submitted"
	StatusProcessing        = "processing"
	StatusApproved          = "approved"
	StatusPartiallyApproved = "partially_approved"
	StatusDenied            = "denied"
	StatusUnderReview       = "under_review"
	StatusCancelled         = "cancelled"
)

var validStatuses = map[string]bool{
	StatusSubmitted: true, StatusProcessing: true, StatusApproved: true,
	StatusPartiallyApproved: true, StatusDenied: true, StatusUnderReview: true,
	StatusCancelled: true,
}

// ValidStatus reports whether s is a known claim status.
func ValidStatus(s string) bool { return validStatuses[s] }

// Claim maps to the claims table. Monetary amounts are integer cents.
type Claim struct {
	ID                uuid.UUID `db:"id" json:"id"`
	MemberID          uuid.UUID `db:"member_id" json:"member_id"`
	ProviderID        uuid.UUID `db:"provider_id" json:"provider_id"`
	BenefitPlanID     string    `db:"benefit_plan_id" json:"benefit_plan_id"`
	BilledAmountCents int64     `db:"billed_amount_cents" json:"billed_amount_cents"`
	Currency          string    `db:"currency" json:"currency"`
	ServiceDate       time.Time `db:"service_date" json:"service_date"`
	SubmittedAt       time.Time `db:"submitted_at" json:"submitted_at"`
	Description       *string   `db:"description" json:"description,omitempty"`
	DiagnosisCodes    []string  `db:"diagnosis_codes" json:"diagnosis_codes"`
	ProcedureCodes    []string  `db:"procedure_codes" json:"procedure_codes"`
	PreauthRef        *string   `db:"preauth_ref" json:"preauth_ref,omitempty"`
	Status            string    `db:"status" json:"status"`
	StatusNote        *string   `db:"status_note" json:"status_note,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// Validate checks the structural requirements for a submitted claim.
func (c *Claim) Validate() error {
	if c.MemberID == uuid.Nil {
		return fmt.Errorf("member_id is required")
	}
	if c.ProviderID == uuid.Nil {
		return fmt.Errorf("provider_id is required")
	}
	if c.BenefitPlanID == "" {
		return fmt.Errorf("benefit_plan_id is required")
	}
	if c.BilledAmountCents <= 0 {
		return fmt.Errorf("billed_amount_cents must be positive")
	}
	if c.ServiceDate.IsZero() {
		return fmt.Errorf("service_date is required")
	}
	if c.ServiceDate.After(time.Now()) {
		return fmt.Errorf("service_date cannot be in the future")
	}
	if len(c.DiagnosisCodes) == 0 {
		return fmt.Errorf("at least one diagnosis code is required")
	}
	if len(c.ProcedureCodes) == 0 {
		return fmt.Errorf("at least one procedure code is required")
	}
	if c.Status != "" && !validStatuses[c.Status] {
		return fmt.Errorf("invalid claim status: %s", c.Status)
	}
	return nil
}

// Terminal reports whether the status is a final disposition.
func Terminal(status string) bool {
	switch status {
	case StatusApproved, StatusPartiallyApproved, StatusDenied, StatusCancelled:
		return true
	}
	return false
}
