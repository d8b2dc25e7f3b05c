package claim

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, c *Claim) error
	GetByID(ctx context.Context, id uuid.UUID) (*Claim, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, note *string) error
	ListByMember(ctx context.Context, memberID uuid.UUID, limit, offset int) ([]*Claim, int, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Claim, int, error)
}
