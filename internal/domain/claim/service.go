package claim

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	claims Repository
}

func NewService(claims Repository) *Service {
	return &Service{claims: claims}
}

// Submit validates and stores a newly submitted claim.
func (s *Service) Submit(ctx context.Context, c *Claim) error {
	if c.Status == "" {
		c.Status = StatusSubmitted
	}
	if c.Currency == "" {
		c.Currency = "USD"
	}
	if c.SubmittedAt.IsZero() {
		c.SubmittedAt = time.Now()
	}
	if err := c.Validate(); err != nil {
		return err
	}
	return s.claims.Create(ctx, c)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Claim, error) {
	return s.claims.GetByID(ctx, id)
}

// UpdateStatus moves a claim to a new status. Cancelled claims are frozen.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string, note *string) error {
	if !validStatuses[status] {
		return fmt.Errorf("invalid claim status: %s", status)
	}
	current, err := s.claims.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == StatusCancelled {
		return fmt.Errorf("claim %s is cancelled and cannot change status", id)
	}
	return s.claims.UpdateStatus(ctx, id, status, note)
}

func (s *Service) ListByMember(ctx context.Context, memberID uuid.UUID, limit, offset int) ([]*Claim, int, error) {
	return s.claims.ListByMember(ctx, memberID, limit, offset)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Claim, int, error) {
	return s.claims.Search(ctx, params, limit, offset)
}
