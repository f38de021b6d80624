package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/mock/gomock"

	"ascend/internal/commission/models"
	"ascend/internal/commission/service/mocks"
	dErrors "ascend/pkg/domain-errors"
)

func (s *CommissionServiceSuite) TestReports() {
	seller, p1, _ := s.scenario()
	first := s.recordSale(seller, "1000.00")
	s.recordSale(seller, "500.00")
	_, err := s.service.Cancel(s.ctx, first.Lines[1].ID, "dispute")
	s.Require().NoError(err)

	s.Run("by level", func() {
		byLevel, err := s.service.ByLevel(s.ctx, p1.ID, "USD", models.Period{})
		s.Require().NoError(err)
		s.Require().Len(byLevel, 1)
		s.Equal(1, byLevel[1].Count)
		s.True(byLevel[1].Total.Equal(s.amount("30.00")))
	})

	s.Run("by status", func() {
		byStatus, err := s.service.ByStatus(s.ctx, p1.ID, "USD")
		s.Require().NoError(err)
		s.True(byStatus[models.LineCancelled].Equal(s.amount("60.00")))
		s.True(byStatus[models.LinePending].Equal(s.amount("30.00")))
		s.True(byStatus[models.LinePaid].IsZero())
	})

	s.Run("by period", func() {
		buckets, err := s.service.ByPeriod(s.ctx, seller.ID, "USD", models.Period{}, models.Daily)
		s.Require().NoError(err)
		s.Require().Len(buckets, 1)
		s.Equal(2, buckets[0].Count)
		s.True(buckets[0].Total.Equal(s.amount("300.00")))
	})

	s.Run("lifetime ignores cancelled lines and other currencies", func() {
		total, err := s.service.LifetimeCommission(s.ctx, seller.ID, "USD")
		s.Require().NoError(err)
		s.True(total.Equal(s.amount("300.00")))

		eur, err := s.service.LifetimeCommission(s.ctx, seller.ID, "EUR")
		s.Require().NoError(err)
		s.True(eur.IsZero())
	})

	s.Run("rejects an inverted period", func() {
		now := time.Now()
		_, err := s.service.ByLevel(s.ctx, seller.ID, "USD", models.Period{From: now, To: now.Add(-time.Hour)})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *CommissionServiceSuite) TestReportCache() {
	cache := mocks.NewMockAggregateCache(s.ctrl)
	s.service = s.build(WithAggregateCache(cache))
	seller, _, _ := s.scenario()
	s.recordSale(seller, "100.00")

	var keys []string
	s.Run("a miss loads from the ledger and fills the cache", func() {
		cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil)
		cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, key string, _ any) error {
				keys = append(keys, key)
				return nil
			})
		byStatus, err := s.service.ByStatus(s.ctx, seller.ID, "USD")
		s.Require().NoError(err)
		s.True(byStatus[models.LinePending].Equal(s.amount("20.00")))
		s.Require().Len(keys, 1)
		s.True(strings.HasPrefix(keys[0], "status:"+seller.ID.String()+":USD:"))
	})

	s.Run("a ledger write changes the key", func() {
		s.recordSale(seller, "50.00")
		cache.EXPECT().Get(gomock.Any(), gomock.Not(keys[0]), gomock.Any()).Return(false, nil)
		cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		_, err := s.service.ByStatus(s.ctx, seller.ID, "USD")
		s.Require().NoError(err)
	})

	s.Run("a hit skips the ledger", func() {
		cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, _ string, dst any) (bool, error) {
				levels := dst.(*map[int]models.LevelTotal)
				*levels = map[int]models.LevelTotal{0: {Count: 9}}
				return true, nil
			})
		byLevel, err := s.service.ByLevel(s.ctx, seller.ID, "USD", models.Period{})
		s.Require().NoError(err)
		s.Equal(9, byLevel[0].Count)
	})

	s.Run("cache failures fall through to the ledger", func() {
		cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, errors.New("redis down"))
		cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis down"))
		byLevel, err := s.service.ByLevel(s.ctx, seller.ID, "USD", models.Period{})
		s.Require().NoError(err)
		s.Equal(2, byLevel[0].Count)
	})
}
