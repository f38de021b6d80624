package line

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"ascend/internal/commission/models"
	"ascend/pkg/domain"
	"ascend/pkg/platform/sentinel"
)

// InMemory is the ledger for tests and single-node development. Every write
// takes the next value of a store-wide revision counter.
type InMemory struct {
	mu       sync.RWMutex
	lines    map[domain.LineID]*models.Line
	byKey    map[models.NaturalKey]domain.LineID
	bySale   map[domain.SaleID][]domain.LineID
	byPayee  map[domain.ParticipantID][]domain.LineID
	revision int64
}

func NewInMemory() *InMemory {
	return &InMemory{
		lines:   make(map[domain.LineID]*models.Line),
		byKey:   make(map[models.NaturalKey]domain.LineID),
		bySale:  make(map[domain.SaleID][]domain.LineID),
		byPayee: make(map[domain.ParticipantID][]domain.LineID),
	}
}

// InsertBatch writes all lines or none.
func (s *InMemory) InsertBatch(_ context.Context, lines []*models.Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[models.NaturalKey]struct{}, len(lines))
	for _, l := range lines {
		if _, exists := s.byKey[l.Key()]; exists {
			return ErrDuplicateLine
		}
		if _, dup := seen[l.Key()]; dup {
			return ErrDuplicateLine
		}
		seen[l.Key()] = struct{}{}
	}
	for _, l := range lines {
		stored := l.Clone()
		s.bump(stored)
		l.Revision = stored.Revision
		s.lines[stored.ID] = stored
		s.byKey[stored.Key()] = stored.ID
		s.bySale[stored.SaleID] = append(s.bySale[stored.SaleID], stored.ID)
		s.byPayee[stored.PayeeID] = append(s.byPayee[stored.PayeeID], stored.ID)
	}
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.LineID) (*models.Line, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lines[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return l.Clone(), nil
}

// ListBySale returns the sale's lines ordered by level.
func (s *InMemory) ListBySale(_ context.Context, saleID domain.SaleID) ([]*models.Line, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.collect(s.bySale[saleID], func(*models.Line) bool { return true })
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out, nil
}

// ListByPayee returns the payee's lines matching filter, newest first.
func (s *InMemory) ListByPayee(_ context.Context, payee domain.ParticipantID, filter models.LineFilter) ([]*models.Line, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.collect(s.byPayee[payee], filter.Matches)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *InMemory) ListByPayout(_ context.Context, requestID domain.PayoutRequestID) ([]*models.Line, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Line
	for _, l := range s.lines {
		if l.PayoutRequestID != nil && *l.PayoutRequestID == requestID {
			out = append(out, l.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ListPayable returns approved, unreserved lines in currency, oldest first.
func (s *InMemory) ListPayable(_ context.Context, payee domain.ParticipantID, currency domain.Currency) ([]*models.Line, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.collect(s.byPayee[payee], func(l *models.Line) bool {
		return l.Status == models.LineApproved && !l.IsReserved() && l.Currency == currency
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// UpdateStatus moves a line from one status to another. A line not in from
// is ErrInvalidState.
func (s *InMemory) UpdateStatus(_ context.Context, id domain.LineID, from, to models.LineStatus, at time.Time) (*models.Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lines[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if l.Status != from {
		return nil, sentinel.ErrInvalidState
	}
	if err := l.Transition(to, at); err != nil {
		return nil, sentinel.ErrInvalidState
	}
	s.bump(l)
	return l.Clone(), nil
}

func (s *InMemory) FlagReconciliation(_ context.Context, id domain.LineID) (*models.Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lines[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	l.NeedsReconciliation = true
	s.bump(l)
	return l.Clone(), nil
}

// Reserve attaches every line to the payout request, or none of them.
func (s *InMemory) Reserve(_ context.Context, ids []domain.LineID, requestID domain.PayoutRequestID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		l, ok := s.lines[id]
		if !ok {
			return sentinel.ErrNotFound
		}
		if l.Status != models.LineApproved || l.IsReserved() {
			return ErrNotReservable
		}
	}
	for _, id := range ids {
		l := s.lines[id]
		reserved := requestID
		l.PayoutRequestID = &reserved
		s.bump(l)
	}
	return nil
}

// Release detaches every line still reserved by the request.
func (s *InMemory) Release(_ context.Context, requestID domain.PayoutRequestID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	released := 0
	for _, l := range s.lines {
		if l.PayoutRequestID != nil && *l.PayoutRequestID == requestID && l.Status != models.LinePaid {
			l.PayoutRequestID = nil
			s.bump(l)
			released++
		}
	}
	return released, nil
}

// Revision is the highest revision among the payee's lines, 0 when none.
func (s *InMemory) Revision(_ context.Context, payee domain.ParticipantID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rev int64
	for _, id := range s.byPayee[payee] {
		if r := s.lines[id].Revision; r > rev {
			rev = r
		}
	}
	return rev, nil
}

func (s *InMemory) LevelTotals(ctx context.Context, payee domain.ParticipantID, currency domain.Currency, period models.Period) (map[int]models.LevelTotal, error) {
	lines, _ := s.ListByPayee(ctx, payee, models.LineFilter{Currency: currency.String(), Period: period})
	return models.SumByLevel(lines), nil
}

func (s *InMemory) StatusTotals(ctx context.Context, payee domain.ParticipantID, currency domain.Currency) (map[models.LineStatus]decimal.Decimal, error) {
	lines, _ := s.ListByPayee(ctx, payee, models.LineFilter{Currency: currency.String()})
	return models.SumByStatus(lines), nil
}

func (s *InMemory) Buckets(ctx context.Context, payee domain.ParticipantID, currency domain.Currency, period models.Period, g models.Granularity) ([]models.Bucket, error) {
	lines, _ := s.ListByPayee(ctx, payee, models.LineFilter{Currency: currency.String(), Period: period})
	return models.SumByBucket(lines, g), nil
}

// LifetimeTotal sums every non-cancelled line in currency.
func (s *InMemory) LifetimeTotal(ctx context.Context, payee domain.ParticipantID, currency domain.Currency) (decimal.Decimal, error) {
	totals, _ := s.StatusTotals(ctx, payee, currency)
	return totals[models.LinePending].Add(totals[models.LineApproved]).Add(totals[models.LinePaid]), nil
}

func (s *InMemory) bump(l *models.Line) {
	s.revision++
	l.Revision = s.revision
}

func (s *InMemory) collect(ids []domain.LineID, keep func(*models.Line) bool) []*models.Line {
	var out []*models.Line
	for _, id := range ids {
		if l := s.lines[id]; keep(l) {
			out = append(out, l.Clone())
		}
	}
	return out
}
