package plan

import (
	"context"
	"sort"
	"sync"

	"ascend/internal/plan/models"
	"ascend/pkg/domain"
	"ascend/pkg/platform/sentinel"
)

// InMemory keeps every version of every plan plus the purchase history.
type InMemory struct {
	mu          sync.RWMutex
	versions    map[domain.PlanID][]*models.Plan
	activations map[domain.ParticipantID][]*models.Activation
}

func NewInMemory() *InMemory {
	return &InMemory{
		versions:    make(map[domain.PlanID][]*models.Plan),
		activations: make(map[domain.ParticipantID][]*models.Activation),
	}
}

// CreateVersion appends a version. It must be exactly one past the latest.
func (s *InMemory) CreateVersion(_ context.Context, p *models.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.versions[p.ID]
	if p.Version != len(existing)+1 {
		return sentinel.ErrConflict
	}
	s.versions[p.ID] = append(existing, p.Clone())
	return nil
}

func (s *InMemory) FindLatest(_ context.Context, id domain.PlanID) (*models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	versions := s.versions[id]
	if len(versions) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return versions[len(versions)-1].Clone(), nil
}

func (s *InMemory) FindVersion(_ context.Context, id domain.PlanID, version int) (*models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	versions := s.versions[id]
	if version < 1 || version > len(versions) {
		return nil, sentinel.ErrNotFound
	}
	return versions[version-1].Clone(), nil
}

// ListActive returns the latest version of each active plan, by name.
func (s *InMemory) ListActive(_ context.Context) ([]*models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Plan
	for _, versions := range s.versions {
		latest := versions[len(versions)-1]
		if latest.Active {
			out = append(out, latest.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// SetActive flips the flag on every version so history reads consistently.
func (s *InMemory) SetActive(_ context.Context, id domain.PlanID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	versions := s.versions[id]
	if len(versions) == 0 {
		return sentinel.ErrNotFound
	}
	for _, v := range versions {
		v.Active = active
	}
	return nil
}

func (s *InMemory) RecordActivation(_ context.Context, a *models.Activation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *a
	s.activations[a.ParticipantID] = append(s.activations[a.ParticipantID], &copied)
	return nil
}

// ListActivations returns a participant's purchases, newest first.
func (s *InMemory) ListActivations(_ context.Context, participantID domain.ParticipantID) ([]*models.Activation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.activations[participantID]
	out := make([]*models.Activation, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		copied := *history[i]
		out = append(out, &copied)
	}
	return out, nil
}
