package claim

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockRepo struct {
	items map[uuid.UUID]*Claim
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*Claim)}
}

func (m *mockRepo) Create(_ context.Context, c *Claim) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = time.Now()
	m.items[c.ID] = c
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Claim, error) {
	c, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return c, nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string, note *string) error {
	c, ok := m.items[id]
	if !ok {
		return fmt.Errorf("not found")
	}
	c.Status = status
	c.StatusNote = note
	c.UpdatedAt = time.Now()
	return nil
}

func (m *mockRepo) ListByMember(_ context.Context, memberID uuid.UUID, limit, offset int) ([]*Claim, int, error) {
	var result []*Claim
	for _, c := range m.items {
		if c.MemberID == memberID {
			result = append(result, c)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) Search(_ context.Context, params map[string]string, limit, offset int) ([]*Claim, int, error) {
	var result []*Claim
	for _, c := range m.items {
		if status := params["status"]; status != "" && c.Status != status {
			continue
		}
		result = append(result, c)
	}
	return result, len(result), nil
}

func TestSubmit_Defaults(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	c := validClaim()
	c.Status = ""
	c.Currency = ""
	c.SubmittedAt = time.Time{}

	if err := svc.Submit(context.Background(), c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Status != StatusSubmitted {
		t.Errorf("expected default status submitted, got %s", c.Status)
	}
	if c.Currency != "USD" {
		t.Errorf("expected default currency USD, got %s", c.Currency)
	}
	if c.SubmittedAt.IsZero() {
		t.Error("expected submitted_at to be set")
	}
	if _, ok := repo.items[c.ID]; !ok {
		t.Error("expected claim to be stored")
	}
}

func TestSubmit_InvalidClaim(t *testing.T) {
	svc := NewService(newMockRepo())

	c := validClaim()
	c.MemberID = uuid.Nil
	if err := svc.Submit(context.Background(), c); err == nil {
		t.Error("expected validation error")
	}
}

func TestUpdateStatus(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	c := validClaim()
	if err := svc.Submit(context.Background(), c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	note := "adjudication complete"
	if err := svc.UpdateStatus(context.Background(), c.ID, StatusApproved, &note); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := repo.GetByID(context.Background(), c.ID)
	if got.Status != StatusApproved {
		t.Errorf("expected status approved, got %s", got.Status)
	}
	if got.StatusNote == nil || *got.StatusNote != note {
		t.Error("expected status note to be stored")
	}
}

func TestUpdateStatus_InvalidStatus(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	c := validClaim()
	if err := svc.Submit(context.Background(), c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.UpdateStatus(context.Background(), c.ID, "archived", nil); err == nil {
		t.Error("expected invalid status error")
	}
}

func TestUpdateStatus_CancelledClaimFrozen(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	c := validClaim()
	if err := svc.Submit(context.Background(), c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.UpdateStatus(context.Background(), c.ID, StatusCancelled, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.UpdateStatus(context.Background(), c.ID, StatusApproved, nil); err == nil {
		t.Error("expected cancelled claim to reject status change")
	}
}

func TestListByMember(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	memberID := uuid.New()

	for i := 0; i < 3; i++ {
		c := validClaim()
		c.MemberID = memberID
		if err := svc.Submit(context.Background(), c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	other := validClaim()
	if err := svc.Submit(context.Background(), other); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items, total, err := svc.ListByMember(context.Background(), memberID, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 3 || len(items) != 3 {
		t.Errorf("expected 3 claims for member, got total=%d len=%d", total, len(items))
	}
}
