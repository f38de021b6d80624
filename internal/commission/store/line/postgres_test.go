//go:build integration

package line

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"ascend/internal/commission/models"
	salestore "ascend/internal/commission/store/sale"
	netmodels "ascend/internal/network/models"
	"ascend/internal/network/store/participant"
	"ascend/pkg/domain"
	"ascend/pkg/platform/sentinel"
	"ascend/pkg/testutil/containers"
)

type PostgresLineSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresStore
	sales *salestore.PostgresStore
	ctx   context.Context
	now   time.Time
	payee *netmodels.Participant
}

func TestPostgresLineSuite(t *testing.T) {
	suite.Run(t, new(PostgresLineSuite))
}

func (s *PostgresLineSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = NewPostgres(s.pg.DB)
	s.sales = salestore.NewPostgres(s.pg.DB)
	s.ctx = context.Background()
}

func (s *PostgresLineSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(s.ctx))
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	code, err := netmodels.NewReferralCode()
	s.Require().NoError(err)
	s.payee, err = netmodels.NewParticipant(domain.NewParticipantID(), code, "payee@example.com", "payee", s.now)
	s.Require().NoError(err)
	s.Require().NoError(participant.NewPostgres(s.pg.DB).Create(s.ctx, s.payee))
}

func (s *PostgresLineSuite) sale() *models.Sale {
	sale, err := models.NewSale(domain.NewSaleID(), s.payee.ID,
		domain.Money{Amount: decimal.RequireFromString("1000.00"), Currency: "USD"},
		map[string]string{"channel": "web"}, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.sales.Create(s.ctx, sale))
	return sale
}

func (s *PostgresLineSuite) line(sale *models.Sale, level int, amount string) *models.Line {
	return &models.Line{
		ID:             domain.NewLineID(),
		SaleID:         sale.ID,
		PayeeID:        s.payee.ID,
		Level:          level,
		Amount:         decimal.RequireFromString(amount),
		Currency:       "USD",
		RateApplied:    decimal.RequireFromString("0.054"),
		BaseRate:       decimal.RequireFromString("0.05"),
		TierMultiplier: decimal.RequireFromString("1.08"),
		PlanID:         domain.NewPlanID(),
		PlanVersion:    1,
		Status:         models.LinePending,
		CreatedAt:      s.now,
	}
}

func (s *PostgresLineSuite) TestSaleRoundTrip() {
	sale := s.sale()

	found, err := s.sales.FindByID(s.ctx, sale.ID)
	s.Require().NoError(err)
	s.True(found.Amount.Equal(decimal.RequireFromString("1000")))
	s.Equal("web", found.Metadata["channel"])

	voided, err := s.sales.MarkVoided(s.ctx, sale.ID, "refund", s.now.Add(time.Hour))
	s.Require().NoError(err)
	s.True(voided.IsVoided())

	_, err = s.sales.MarkVoided(s.ctx, sale.ID, "refund", s.now)
	s.ErrorIs(err, sentinel.ErrInvalidState)
	_, err = s.sales.MarkVoided(s.ctx, domain.NewSaleID(), "refund", s.now)
	s.ErrorIs(err, sentinel.ErrNotFound)

	orphan, err := models.NewSale(domain.NewSaleID(), domain.NewParticipantID(),
		domain.Money{Amount: decimal.NewFromInt(1), Currency: "USD"}, nil, s.now)
	s.Require().NoError(err)
	s.ErrorIs(s.sales.Create(s.ctx, orphan), sentinel.ErrNotFound)
}

func (s *PostgresLineSuite) TestInsertBatchEnforcesNaturalKey() {
	sale := s.sale()
	first := s.line(sale, 0, "200.00")
	s.Require().NoError(s.store.InsertBatch(s.ctx, []*models.Line{first, s.line(sale, 1, "54.00")}))
	s.Positive(first.Revision)

	err := s.store.InsertBatch(s.ctx, []*models.Line{s.line(sale, 2, "1"), s.line(sale, 0, "200.00")})
	s.ErrorIs(err, ErrDuplicateLine)

	lines, err := s.store.ListBySale(s.ctx, sale.ID)
	s.Require().NoError(err)
	s.Require().Len(lines, 2)
	s.True(lines[1].RateApplied.Equal(decimal.RequireFromString("0.054")))
	s.True(lines[1].TierMultiplier.Equal(decimal.RequireFromString("1.08")))
}

func (s *PostgresLineSuite) TestLifecycleAndReservation() {
	sale := s.sale()
	a, b := s.line(sale, 0, "200.00"), s.line(sale, 1, "60.00")
	s.Require().NoError(s.store.InsertBatch(s.ctx, []*models.Line{a, b}))

	_, err := s.store.UpdateStatus(s.ctx, a.ID, models.LineApproved, models.LinePaid, s.now)
	s.ErrorIs(err, sentinel.ErrInvalidState)

	for _, l := range []*models.Line{a, b} {
		updated, err := s.store.UpdateStatus(s.ctx, l.ID, models.LinePending, models.LineApproved, s.now)
		s.Require().NoError(err)
		s.Greater(updated.Revision, l.Revision)
	}

	payable, err := s.store.ListPayable(s.ctx, s.payee.ID, "USD")
	s.Require().NoError(err)
	s.Len(payable, 2)

	request := domain.NewPayoutRequestID()
	s.Require().NoError(s.store.Reserve(s.ctx, []domain.LineID{a.ID, b.ID}, request))
	s.ErrorIs(s.store.Reserve(s.ctx, []domain.LineID{a.ID}, domain.NewPayoutRequestID()), ErrNotReservable)

	paid, err := s.store.UpdateStatus(s.ctx, a.ID, models.LineApproved, models.LinePaid, s.now.Add(time.Hour))
	s.Require().NoError(err)
	s.Require().NotNil(paid.PaidAt)

	released, err := s.store.Release(s.ctx, request)
	s.Require().NoError(err)
	s.Equal(1, released)

	cancelled, err := s.store.UpdateStatus(s.ctx, b.ID, models.LineApproved, models.LineCancelled, s.now)
	s.Require().NoError(err)
	s.False(cancelled.IsReserved())

	flagged, err := s.store.FlagReconciliation(s.ctx, a.ID)
	s.Require().NoError(err)
	s.True(flagged.NeedsReconciliation)
}

func (s *PostgresLineSuite) TestAggregates() {
	sale := s.sale()
	s.Require().NoError(s.store.InsertBatch(s.ctx, []*models.Line{
		s.line(sale, 0, "200.00"),
		s.line(sale, 1, "60.00"),
		s.line(sale, 2, "50.00"),
	}))
	other := s.line(s.sale(), 2, "25.00")
	s.Require().NoError(s.store.InsertBatch(s.ctx, []*models.Line{other}))
	_, err := s.store.UpdateStatus(s.ctx, other.ID, models.LinePending, models.LineCancelled, s.now)
	s.Require().NoError(err)

	byLevel, err := s.store.LevelTotals(s.ctx, s.payee.ID, "USD", models.Period{})
	s.Require().NoError(err)
	s.Len(byLevel, 3)
	s.Equal(1, byLevel[2].Count)

	byStatus, err := s.store.StatusTotals(s.ctx, s.payee.ID, "USD")
	s.Require().NoError(err)
	s.True(byStatus[models.LinePending].Equal(decimal.RequireFromString("310")))
	s.True(byStatus[models.LineCancelled].Equal(decimal.RequireFromString("25")))
	s.True(byStatus[models.LinePaid].IsZero())

	buckets, err := s.store.Buckets(s.ctx, s.payee.ID, "USD", models.Period{}, models.Monthly)
	s.Require().NoError(err)
	s.Require().Len(buckets, 1)
	s.Equal(3, buckets[0].Count)

	lifetime, err := s.store.LifetimeTotal(s.ctx, s.payee.ID, "USD")
	s.Require().NoError(err)
	s.True(lifetime.Equal(decimal.RequireFromString("310")))

	rev, err := s.store.Revision(s.ctx, s.payee.ID)
	s.Require().NoError(err)
	s.Positive(rev)
}
