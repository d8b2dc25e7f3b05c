package refdata

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a reference record does not exist.
var ErrNotFound = errors.New("reference data not found")

// Provider serves the read-only reference lookups the adjudication stages
// depend on. Implementations must be safe for concurrent use.
type Provider interface {
	GetBenefitPlan(ctx context.Context, planID string) (*BenefitPlan, error)
	GetMemberStatus(ctx context.Context, memberID uuid.UUID) (*MemberStatus, error)
	GetNetworkStatus(ctx context.Context, providerID uuid.UUID) (*NetworkStatus, error)
	GetGuidelines(ctx context.Context, diagnosisCode string) ([]*Guideline, error)
	GetMemberHistory(ctx context.Context, memberID uuid.UUID) (*MemberHistory, error)
}
