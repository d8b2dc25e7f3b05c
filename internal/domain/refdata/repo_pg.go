package refdata

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/claimflow/claimflow/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// RepoPG serves reference lookups from Postgres.
type RepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) *RepoPG { return &RepoPG{pool: pool} }

func (r *RepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *RepoPG) GetBenefitPlan(ctx context.Context, planID string) (*BenefitPlan, error) {
	var p BenefitPlan
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT plan_id, name, policy_active, effective_date, term_date,
			waiting_period_days, annual_limit_cents, used_to_date_cents,
			deductible_cents, deductible_met_cents, copay_cents,
			coinsurance_pct, network_discount_pct, preauth_required, preauth_procedures
		FROM benefit_plans WHERE plan_id = $1`, planID).Scan(
		&p.PlanID, &p.Name, &p.PolicyActive, &p.EffectiveDate, &p.TermDate,
		&p.WaitingPeriodDays, &p.AnnualLimitCents, &p.UsedToDateCents,
		&p.DeductibleCents, &p.DeductibleMetCents, &p.CopayCents,
		&p.CoinsurancePct, &p.NetworkDiscountPct, &p.PreauthRequired, &p.PreauthProcedures)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *RepoPG) GetMemberStatus(ctx context.Context, memberID uuid.UUID) (*MemberStatus, error) {
	var m MemberStatus
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT member_id, active, enrolled_at, birth_date
		FROM member_status WHERE member_id = $1`, memberID).Scan(
		&m.MemberID, &m.Active, &m.EnrolledAt, &m.BirthDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *RepoPG) GetNetworkStatus(ctx context.Context, providerID uuid.UUID) (*NetworkStatus, error) {
	var n NetworkStatus
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT provider_id, in_network, flagged_for_review, typical_amounts
		FROM provider_network WHERE provider_id = $1`, providerID).Scan(
		&n.ProviderID, &n.InNetwork, &n.FlaggedForReview, &n.TypicalAmounts)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *RepoPG) GetGuidelines(ctx context.Context, diagnosisCode string) ([]*Guideline, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, diagnosis_codes, procedure_codes, diagnosis_support,
			procedure_appropriateness, compliance_weight, min_age, max_age,
			experimental, cosmetic
		FROM clinical_guidelines WHERE $1 = ANY(diagnosis_codes)
		ORDER BY id`, diagnosisCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Guideline
	for rows.Next() {
		var g Guideline
		if err := rows.Scan(&g.ID, &g.DiagnosisCodes, &g.ProcedureCodes, &g.DiagnosisSupport,
			&g.ProcedureAppropriateness, &g.ComplianceWeight, &g.MinAge, &g.MaxAge,
			&g.Experimental, &g.Cosmetic); err != nil {
			return nil, err
		}
		items = append(items, &g)
	}
	return items, rows.Err()
}

func (r *RepoPG) GetMemberHistory(ctx context.Context, memberID uuid.UUID) (*MemberHistory, error) {
	var h MemberHistory
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT member_id, recent_claim_count, prior_fraud_flags, policy_age_days
		FROM member_history WHERE member_id = $1`, memberID).Scan(
		&h.MemberID, &h.RecentClaimCount, &h.PriorFraudFlags, &h.PolicyAgeDays)
	if errors.Is(err, pgx.ErrNoRows) {
		// No history yet is a clean slate, not an error.
		return &MemberHistory{MemberID: memberID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}
