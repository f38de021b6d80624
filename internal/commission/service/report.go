package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"ascend/internal/commission/models"
	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
)

// ByLevel totals a payee's non-cancelled lines per level within period.
func (s *Service) ByLevel(ctx context.Context, payee domain.ParticipantID, currency domain.Currency, period models.Period) (map[int]models.LevelTotal, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	params := fmt.Sprintf("%d-%d", period.From.Unix(), period.To.Unix())
	return cached(ctx, s, "level", payee, currency, params, func() (map[int]models.LevelTotal, error) {
		return s.lines.LevelTotals(ctx, payee, currency, period)
	})
}

// ByStatus totals a payee's lines per status. Every status is present.
func (s *Service) ByStatus(ctx context.Context, payee domain.ParticipantID, currency domain.Currency) (map[models.LineStatus]decimal.Decimal, error) {
	return cached(ctx, s, "status", payee, currency, "", func() (map[models.LineStatus]decimal.Decimal, error) {
		return s.lines.StatusTotals(ctx, payee, currency)
	})
}

// ByPeriod buckets a payee's non-cancelled lines by day or month.
func (s *Service) ByPeriod(ctx context.Context, payee domain.ParticipantID, currency domain.Currency, period models.Period, g models.Granularity) ([]models.Bucket, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	params := fmt.Sprintf("%s-%d-%d", g, period.From.Unix(), period.To.Unix())
	return cached(ctx, s, "period", payee, currency, params, func() ([]models.Bucket, error) {
		return s.lines.Buckets(ctx, payee, currency, period, g)
	})
}

// LifetimeCommission sums a payee's non-cancelled lines in currency.
func (s *Service) LifetimeCommission(ctx context.Context, payee domain.ParticipantID, currency domain.Currency) (decimal.Decimal, error) {
	total, err := s.lines.LifetimeTotal(ctx, payee, currency)
	if err != nil {
		return decimal.Zero, dErrors.Wrap(err, dErrors.CodeInternal, "failed to total commission")
	}
	return total, nil
}

// cached serves a report from the aggregate cache when the payee's ledger
// revision is unchanged. Cache failures fall through to the store.
func cached[T any](ctx context.Context, s *Service, kind string, payee domain.ParticipantID, currency domain.Currency, params string, load func() (T, error)) (T, error) {
	var zero T
	if s.cache == nil {
		return loadReport(load)
	}
	rev, err := s.lines.Revision(ctx, payee)
	if err != nil {
		return zero, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read ledger revision")
	}
	key := fmt.Sprintf("%s:%s:%s:%d:%s", kind, payee, currency, rev, params)

	var hit T
	found, err := s.cache.Get(ctx, key, &hit)
	switch {
	case err != nil:
		s.metrics.IncCacheLookup("error")
		s.logger.WarnContext(ctx, "aggregate cache read failed", "key", key, "error", err)
	case found:
		s.metrics.IncCacheLookup("hit")
		return hit, nil
	default:
		s.metrics.IncCacheLookup("miss")
	}

	value, err := loadReport(load)
	if err != nil {
		return zero, err
	}
	if err := s.cache.Set(ctx, key, value); err != nil {
		s.logger.WarnContext(ctx, "aggregate cache write failed", "key", key, "error", err)
	}
	return value, nil
}

func loadReport[T any](load func() (T, error)) (T, error) {
	value, err := load()
	if err != nil {
		var zero T
		return zero, dErrors.Wrap(err, dErrors.CodeInternal, "failed to aggregate ledger")
	}
	return value, nil
}
