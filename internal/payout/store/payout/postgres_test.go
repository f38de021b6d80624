//go:build integration

package payout

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	netmodels "ascend/internal/network/models"
	"ascend/internal/network/store/participant"
	"ascend/internal/payout/models"
	"ascend/pkg/domain"
	"ascend/pkg/platform/sentinel"
	"ascend/pkg/testutil/containers"
)

type PostgresPayoutSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresStore
	ctx   context.Context
	now   time.Time
	payee domain.ParticipantID
}

func TestPostgresPayoutSuite(t *testing.T) {
	suite.Run(t, new(PostgresPayoutSuite))
}

func (s *PostgresPayoutSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = NewPostgres(s.pg.DB)
	s.ctx = context.Background()
}

func (s *PostgresPayoutSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(s.ctx))
	s.now = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

	code, err := netmodels.NewReferralCode()
	s.Require().NoError(err)
	member, err := netmodels.NewParticipant(domain.NewParticipantID(), code, "payee@example.com", "payee", s.now)
	s.Require().NoError(err)
	s.Require().NoError(participant.NewPostgres(s.pg.DB).Create(s.ctx, member))
	s.payee = member.ID
}

func (s *PostgresPayoutSuite) newRequest(at time.Time) *models.Request {
	r, err := models.NewRequest(domain.NewPayoutRequestID(), s.payee,
		domain.Money{Amount: decimal.RequireFromString("260.00"), Currency: "USD"},
		[]domain.LineID{domain.NewLineID(), domain.NewLineID()}, at)
	s.Require().NoError(err)
	return r
}

func (s *PostgresPayoutSuite) TestRoundTrip() {
	r := s.newRequest(s.now)
	s.Require().NoError(s.store.Create(s.ctx, r))

	found, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(r.LineIDs, found.LineIDs)
	s.True(found.Amount.Equal(r.Amount))
	s.Equal(models.StatusRequested, found.Status)
	s.Nil(found.PaidAmount)
	s.Nil(found.CompletedAt)

	s.ErrorIs(s.store.Create(s.ctx, r), sentinel.ErrConflict)
}

func (s *PostgresPayoutSuite) TestUnknownPayee() {
	r, err := models.NewRequest(domain.NewPayoutRequestID(), domain.NewParticipantID(),
		domain.Money{Amount: decimal.NewFromInt(1), Currency: "USD"}, []domain.LineID{domain.NewLineID()}, s.now)
	s.Require().NoError(err)
	s.ErrorIs(s.store.Create(s.ctx, r), sentinel.ErrNotFound)
}

func (s *PostgresPayoutSuite) TestGuardedUpdate() {
	r := s.newRequest(s.now)
	s.Require().NoError(s.store.Create(s.ctx, r))

	s.Require().NoError(r.Complete("tx-1", decimal.RequireFromString("200.00"), s.now.Add(time.Hour)))
	s.Require().NoError(s.store.Update(s.ctx, r, models.StatusRequested))

	found, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusCompleted, found.Status)
	s.Equal("tx-1", found.ExternalReference)
	s.Require().NotNil(found.PaidAmount)
	s.True(found.PaidAmount.Equal(decimal.RequireFromString("200.00")))
	s.Require().NotNil(found.CompletedAt)

	s.ErrorIs(s.store.Update(s.ctx, r, models.StatusRequested), sentinel.ErrInvalidState)

	missing := s.newRequest(s.now)
	s.ErrorIs(s.store.Update(s.ctx, missing, models.StatusRequested), sentinel.ErrNotFound)
}

func (s *PostgresPayoutSuite) TestListNewestFirst() {
	first := s.newRequest(s.now)
	second := s.newRequest(s.now.Add(time.Hour))
	s.Require().NoError(s.store.Create(s.ctx, first))
	s.Require().NoError(s.store.Create(s.ctx, second))

	list, err := s.store.ListByPayee(s.ctx, s.payee)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(second.ID, list[0].ID)
}
