package eob

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/claimflow/claimflow/internal/domain/adjudication"
	"github.com/claimflow/claimflow/internal/domain/claim"
)

// Generator builds EOB documents from a decided claim.
type Generator struct {
	logger zerolog.Logger
}

func NewGenerator(logger zerolog.Logger) *Generator {
	return &Generator{logger: logger}
}

// Generate builds the member-facing document for a terminal disposition.
// The financial breakdown may be nil for eligibility denials.
func (g *Generator) Generate(c *claim.Claim, d *adjudication.Decision, f *adjudication.FinancialResult) (*Document, error) {
	if c == nil || d == nil {
		return nil, fmt.Errorf("generate eob: claim and decision are required")
	}

	doc := &Document{
		EOBNumber: eobNumber(d),
		ClaimID:   c.ID,
		MemberID:  c.MemberID,
		IssuedAt:  time.Now(),
		Status:    d.Status,
		Currency:  c.Currency,
	}

	perLine := c.BilledAmountCents
	if n := int64(len(c.ProcedureCodes)); n > 0 {
		perLine = c.BilledAmountCents / n
	}
	remainder := c.BilledAmountCents - perLine*int64(len(c.ProcedureCodes))
	for i, code := range c.ProcedureCodes {
		amount := perLine
		if i == 0 {
			amount += remainder
		}
		doc.Lines = append(doc.Lines, LineItem{ProcedureCode: code, BilledCents: amount})
	}

	doc.Totals = Totals{
		BilledCents:               c.BilledAmountCents,
		MemberResponsibilityCents: d.MemberResponsibilityCents,
		InsurerPaysCents:          d.InsurerResponsibilityCents,
	}
	if f != nil {
		doc.Totals.DiscountCents = f.ProviderDiscountCents
		doc.Totals.DeductibleCents = f.DeductibleAppliedCents
		doc.Totals.CopayCents = f.CopayAppliedCents
		doc.Totals.CoinsuranceCents = f.CoinsuranceAppliedCents
	}

	switch d.Status {
	case claim.StatusApproved:
		doc.Notes = append(doc.Notes, "Your claim was approved in full.")
	case claim.StatusPartiallyApproved:
		doc.Notes = append(doc.Notes,
			fmt.Sprintf("Your claim was approved with a member cost share of %s.", FormatCents(d.MemberResponsibilityCents)))
	case claim.StatusDenied:
		doc.Notes = append(doc.Notes, "Your claim was denied.")
		doc.Notes = append(doc.Notes, d.DenialReasons...)
	}

	g.logger.Debug().
		Str("claim_id", c.ID.String()).
		Str("eob_number", doc.EOBNumber).
		Str("status", doc.Status).
		Msg("eob generated")
	return doc, nil
}

func eobNumber(d *adjudication.Decision) string {
	short := strings.ToUpper(strings.ReplaceAll(d.ID.String(), "-", ""))[:12]
	return "EOB-" + short
}
