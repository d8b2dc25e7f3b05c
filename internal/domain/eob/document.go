package eob

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Document is the internal explanation-of-benefits model. Every renderer
// works from this one structure.
type Document struct {
	EOBNumber string     `json:"eob_number"`
	ClaimID   uuid.UUID  `json:"claim_id"`
	MemberID  uuid.UUID  `json:"member_id"`
	IssuedAt  time.Time  `json:"issued_at"`
	Status    string     `json:"status"`
	Currency  string     `json:"currency"`
	Lines     []LineItem `json:"lines"`
	Totals    Totals     `json:"totals"`
	Notes     []string   `json:"notes,omitempty"`
}

// StageKind marks the document as the generate-eob step result.
func (d *Document) StageKind() string { return "eob" }

// LineItem is one billed procedure on the claim.
type LineItem struct {
	ProcedureCode string `json:"procedure_code"`
	Description   string `json:"description,omitempty"`
	BilledCents   int64  `json:"billed_cents"`
}

// Totals is the monetary summary of the adjudication, in integer cents.
type Totals struct {
	BilledCents               int64 `json:"billed_cents"`
	DiscountCents             int64 `json:"discount_cents"`
	DeductibleCents           int64 `json:"deductible_cents"`
	CopayCents                int64 `json:"copay_cents"`
	CoinsuranceCents          int64 `json:"coinsurance_cents"`
	MemberResponsibilityCents int64 `json:"member_responsibility_cents"`
	InsurerPaysCents          int64 `json:"insurer_pays_cents"`
}

// FormatCents renders an integer cent amount as a dollar string.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
