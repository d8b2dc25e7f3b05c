package claim

import (
	"context"
	"fmt"
	"strings"

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

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const claimCols = `id, member_id, provider_id, benefit_plan_id,
	billed_amount_cents, currency, service_date, submitted_at, description,
	diagnosis_codes, procedure_codes, preauth_ref, status, status_note,
	created_at, updated_at`

func scanClaim(row pgx.Row) (*Claim, error) {
	var c Claim
	err := row.Scan(&c.ID, &c.MemberID, &c.ProviderID, &c.BenefitPlanID,
		&c.BilledAmountCents, &c.Currency, &c.ServiceDate, &c.SubmittedAt, &c.Description,
		&c.DiagnosisCodes, &c.ProcedureCodes, &c.PreauthRef, &c.Status, &c.StatusNote,
		&c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (r *repoPG) Create(ctx context.Context, c *Claim) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO claims (id, member_id, provider_id, benefit_plan_id,
			billed_amount_cents, currency, service_date, submitted_at, description,
			diagnosis_codes, procedure_codes, preauth_ref, status, status_note)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		c.ID, c.MemberID, c.ProviderID, c.BenefitPlanID,
		c.BilledAmountCents, c.Currency, c.ServiceDate, c.SubmittedAt, c.Description,
		c.DiagnosisCodes, c.ProcedureCodes, c.PreauthRef, c.Status, c.StatusNote)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Claim, error) {
	return scanClaim(r.conn(ctx).QueryRow(ctx, `SELECT `+claimCols+` FROM claims WHERE id = $1`, id))
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string, note *string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE claims SET status = $2, status_note = $3, updated_at = NOW()
		WHERE id = $1`, id, status, note)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("claim %s not found", id)
	}
	return nil
}

func (r *repoPG) ListByMember(ctx context.Context, memberID uuid.UUID, limit, offset int) ([]*Claim, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM claims WHERE member_id = $1`, memberID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+claimCols+` FROM claims WHERE member_id = $1 ORDER BY submitted_at DESC LIMIT $2 OFFSET $3`, memberID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, nil
}

// searchColumns maps permitted query params to claim table columns.
var searchColumns = map[string]string{
	"status":          "status",
	"member_id":       "member_id",
	"provider_id":     "provider_id",
	"benefit_plan_id": "benefit_plan_id",
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Claim, int, error) {
	where := make([]string, 0, len(params))
	args := make([]interface{}, 0, len(params))
	for _, key := range []string{"status", "member_id", "provider_id", "benefit_plan_id"} {
		val, ok := params[key]
		if !ok || val == "" {
			continue
		}
		args = append(args, val)
		where = append(where, fmt.Sprintf("%s = $%d", searchColumns[key], len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM claims`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataArgs := append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+claimCols+` FROM claims`+clause+
			fmt.Sprintf(` ORDER BY submitted_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2),
		dataArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, nil
}
