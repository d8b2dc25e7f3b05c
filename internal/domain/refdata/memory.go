package refdata

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryProvider is an in-memory Provider used by tests and the one-shot
// CLI processing command.
type MemoryProvider struct {
	mu         sync.RWMutex
	plans      map[string]*BenefitPlan
	members    map[uuid.UUID]*MemberStatus
	networks   map[uuid.UUID]*NetworkStatus
	guidelines []*Guideline
	histories  map[uuid.UUID]*MemberHistory
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		plans:     make(map[string]*BenefitPlan),
		members:   make(map[uuid.UUID]*MemberStatus),
		networks:  make(map[uuid.UUID]*NetworkStatus),
		histories: make(map[uuid.UUID]*MemberHistory),
	}
}

func (p *MemoryProvider) PutBenefitPlan(plan *BenefitPlan) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plans[plan.PlanID] = plan
}

func (p *MemoryProvider) PutMemberStatus(m *MemberStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.members[m.MemberID] = m
}

func (p *MemoryProvider) PutNetworkStatus(n *NetworkStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.networks[n.ProviderID] = n
}

func (p *MemoryProvider) PutGuideline(g *Guideline) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.guidelines = append(p.guidelines, g)
}

func (p *MemoryProvider) PutMemberHistory(h *MemberHistory) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.histories[h.MemberID] = h
}

func (p *MemoryProvider) GetBenefitPlan(_ context.Context, planID string) (*BenefitPlan, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	plan, ok := p.plans[planID]
	if !ok {
		return nil, ErrNotFound
	}
	return plan, nil
}

func (p *MemoryProvider) GetMemberStatus(_ context.Context, memberID uuid.UUID) (*MemberStatus, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	m, ok := p.members[memberID]
	if !ok {
		return nil, ErrNotFound
	}
	return m, nil
}

func (p *MemoryProvider) GetNetworkStatus(_ context.Context, providerID uuid.UUID) (*NetworkStatus, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n, ok := p.networks[providerID]
	if !ok {
		return nil, ErrNotFound
	}
	return n, nil
}

func (p *MemoryProvider) GetGuidelines(_ context.Context, diagnosisCode string) ([]*Guideline, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var matched []*Guideline
	for _, g := range p.guidelines {
		for _, code := range g.DiagnosisCodes {
			if code == diagnosisCode {
				matched = append(matched, g)
				break
			}
		}
	}
	return matched, nil
}

func (p *MemoryProvider) GetMemberHistory(_ context.Context, memberID uuid.UUID) (*MemberHistory, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	h, ok := p.histories[memberID]
	if !ok {
		return &MemberHistory{MemberID: memberID}, nil
	}
	return h, nil
}
