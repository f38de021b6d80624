package payout

import (
	"context"
	"sort"
	"sync"

	"ascend/internal/payout/models"
	"ascend/pkg/domain"
	"ascend/pkg/platform/sentinel"
)

// InMemory keeps payout requests in a map. Requests are never removed.
type InMemory struct {
	mu       sync.RWMutex
	requests map[domain.PayoutRequestID]*models.Request
}

func NewInMemory() *InMemory {
	return &InMemory{requests: make(map[domain.PayoutRequestID]*models.Request)}
}

func (s *InMemory) Create(_ context.Context, r *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[r.ID]; exists {
		return sentinel.ErrConflict
	}
	s.requests[r.ID] = r.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.PayoutRequestID) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r.Clone(), nil
}

// ListByPayee returns the payee's requests, newest first.
func (s *InMemory) ListByPayee(_ context.Context, payee domain.ParticipantID) ([]*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Request
	for _, r := range s.requests {
		if r.PayeeID == payee {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	return out, nil
}

// Update stores r only if the stored request is still in status from.
func (s *InMemory) Update(_ context.Context, r *models.Request, from models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.requests[r.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Status != from {
		return sentinel.ErrInvalidState
	}
	s.requests[r.ID] = r.Clone()
	return nil
}
