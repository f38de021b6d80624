package sale

import (
	"context"
	"sort"
	"sync"
	"time"

	"ascend/internal/commission/models"
	"ascend/pkg/domain"
	"ascend/pkg/platform/sentinel"
)

// InMemory stores sales for tests and single-node development.
type InMemory struct {
	mu    sync.RWMutex
	sales map[domain.SaleID]*models.Sale
}

func NewInMemory() *InMemory {
	return &InMemory{sales: make(map[domain.SaleID]*models.Sale)}
}

func (s *InMemory) Create(_ context.Context, sale *models.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sales[sale.ID]; exists {
		return sentinel.ErrConflict
	}
	s.sales[sale.ID] = sale.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.SaleID) (*models.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sale, ok := s.sales[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return sale.Clone(), nil
}

// MarkVoided voids a recorded sale. Voiding twice is ErrInvalidState.
func (s *InMemory) MarkVoided(_ context.Context, id domain.SaleID, reason string, at time.Time) (*models.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sale, ok := s.sales[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := sale.Void(reason, at); err != nil {
		return nil, sentinel.ErrInvalidState
	}
	return sale.Clone(), nil
}

// MarkComputed records that commission was computed for the sale. The first
// mark wins; later marks are no-ops.
func (s *InMemory) MarkComputed(_ context.Context, id domain.SaleID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sale, ok := s.sales[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if sale.ComputedAt == nil {
		sale.ComputedAt = &at
	}
	return nil
}

// ListBySeller returns the seller's sales, oldest first.
func (s *InMemory) ListBySeller(_ context.Context, seller domain.ParticipantID) ([]*models.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Sale
	for _, sale := range s.sales {
		if sale.SellerID == seller {
			out = append(out, sale.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out, nil
}
