package participant

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"ascend/internal/network/models"
	"ascend/pkg/domain"
	"ascend/pkg/platform/sentinel"
)

// InMemory keeps the network as parent pointers plus a child index. All
// reads return clones.
type InMemory struct {
	mu       sync.RWMutex
	byID     map[domain.ParticipantID]*models.Participant
	byCode   map[models.ReferralCode]domain.ParticipantID
	children map[domain.ParticipantID][]domain.ParticipantID
	order    []domain.ParticipantID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:     make(map[domain.ParticipantID]*models.Participant),
		byCode:   make(map[models.ReferralCode]domain.ParticipantID),
		children: make(map[domain.ParticipantID][]domain.ParticipantID),
	}
}

// Create inserts a participant. A participant that arrives already linked
// must reference an existing parent.
func (s *InMemory) Create(_ context.Context, p *models.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[p.ID]; exists {
		return sentinel.ErrConflict
	}
	if _, taken := s.byCode[p.ReferralCode]; taken {
		return sentinel.ErrAlreadyUsed
	}
	if p.UplineID != nil {
		if _, ok := s.byID[*p.UplineID]; !ok {
			return sentinel.ErrNotFound
		}
		s.children[*p.UplineID] = append(s.children[*p.UplineID], p.ID)
	}
	s.byID[p.ID] = p.Clone()
	s.byCode[p.ReferralCode] = p.ID
	s.order = append(s.order, p.ID)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.ParticipantID) (*models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return p.Clone(), nil
}

func (s *InMemory) FindByReferralCode(_ context.Context, code models.ReferralCode) (*models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byCode[code]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

// Ancestors walks parent pointers, closest first, at most maxDepth hops.
func (s *InMemory) Ancestors(_ context.Context, id domain.ParticipantID, maxDepth int) ([]*models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := make([]*models.Participant, 0, maxDepth)
	for len(out) < maxDepth && p.UplineID != nil {
		p = s.byID[*p.UplineID]
		out = append(out, p.Clone())
	}
	return out, nil
}

func (s *InMemory) ListChildren(_ context.Context, id domain.ParticipantID) ([]*models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.byID[id]; !ok {
		return nil, sentinel.ErrNotFound
	}
	ids := s.children[id]
	out := make([]*models.Participant, 0, len(ids))
	for _, childID := range ids {
		out = append(out, s.byID[childID].Clone())
	}
	return out, nil
}

// LinkUpline sets child's parent if child is unlinked and parent is not
// child's descendant. With maxDepth > 0 the deepest node of child's subtree
// must stay within maxDepth levels of its root after the link. The checks
// and the write happen under one lock.
func (s *InMemory) LinkUpline(_ context.Context, childID, parentID domain.ParticipantID, maxDepth int, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	child, ok := s.byID[childID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if _, ok := s.byID[parentID]; !ok {
		return sentinel.ErrNotFound
	}
	if child.UplineID != nil {
		return ErrAlreadyLinked
	}
	// parent is a descendant of child iff child appears on parent's chain.
	parentDepth := -1
	for cursor := &parentID; cursor != nil; cursor = s.byID[*cursor].UplineID {
		if *cursor == childID {
			return ErrCycle
		}
		parentDepth++
	}
	if maxDepth > 0 && parentDepth+1+s.height(childID) > maxDepth {
		return ErrTooDeep
	}
	child.ApplyLink(parentID, now)
	s.children[parentID] = append(s.children[parentID], childID)
	return nil
}

// height is the number of levels below id. Callers hold the lock.
func (s *InMemory) height(id domain.ParticipantID) int {
	h := 0
	level := s.children[id]
	for len(level) > 0 {
		h++
		var next []domain.ParticipantID
		for _, c := range level {
			next = append(next, s.children[c]...)
		}
		level = next
	}
	return h
}

// CountDescendants returns the size of the subtree below id.
func (s *InMemory) CountDescendants(_ context.Context, id domain.ParticipantID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.byID[id]; !ok {
		return 0, sentinel.ErrNotFound
	}
	count := 0
	queue := append([]domain.ParticipantID(nil), s.children[id]...)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		count++
		queue = append(queue, s.children[next]...)
	}
	return count, nil
}

func (s *InMemory) AddActivity(_ context.Context, id domain.ParticipantID, points, tasks int64) (*models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	p.Stats.Points += points
	p.Stats.CompletedTasks += tasks
	return p.Clone(), nil
}

func (s *InMemory) AddLifetimeSales(_ context.Context, id domain.ParticipantID, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	p.Stats.LifetimeSales = p.Stats.LifetimeSales.Add(amount)
	return nil
}

// UpdateStanding caches the rank engine's output. The tier never moves down.
func (s *InMemory) UpdateStanding(_ context.Context, id domain.ParticipantID, tier domain.Tier, lifetimeCommission decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if p.Tier.Below(tier) {
		p.Tier = tier
	}
	p.Stats.LifetimeCommission = lifetimeCommission
	return nil
}

func (s *InMemory) SetPlan(_ context.Context, id domain.ParticipantID, planID domain.PlanID, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	pid := planID
	p.PlanID = &pid
	p.PlanVersion = version
	return nil
}

// ListIDs pages through participants in registration order.
func (s *InMemory) ListIDs(_ context.Context, offset, limit int) ([]domain.ParticipantID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if offset >= len(s.order) {
		return nil, nil
	}
	end := min(offset+limit, len(s.order))
	return append([]domain.ParticipantID(nil), s.order[offset:end]...), nil
}

// Count returns the number of registered participants.
func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}

