package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"ascend/internal/network/models"
	"ascend/internal/network/service/mocks"
	participantstore "ascend/internal/network/store/participant"
	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
	"ascend/pkg/platform/audit"
	auditmemory "ascend/pkg/platform/audit/store/memory"
	"ascend/pkg/platform/audit/publisher"
	"ascend/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks StandingRefresher

type NetworkServiceSuite struct {
	suite.Suite
	ctx       context.Context
	store     *participantstore.InMemory
	auditLog  *auditmemory.InMemoryStore
	refresher *mocks.MockStandingRefresher
	service   *Service
}

func TestNetworkServiceSuite(t *testing.T) {
	suite.Run(t, new(NetworkServiceSuite))
}

func (s *NetworkServiceSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.refresher = mocks.NewMockStandingRefresher(ctrl)
	s.store = participantstore.NewInMemory()
	s.auditLog = auditmemory.NewInMemoryStore()
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC))
	s.service = New(s.store,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(publisher.NewPublisher(s.auditLog)),
	)
	s.service.SetStandingRefresher(s.refresher)
}

// register signs up a participant. A resolved referral refreshes the
// referrer's standing.
func (s *NetworkServiceSuite) register(referral string) *models.Participant {
	if referral != "" {
		s.refresher.EXPECT().Refresh(gomock.Any(), gomock.Any()).MaxTimes(1)
	}
	p, err := s.service.Register(s.ctx, &models.RegisterRequest{
		Email:        "Member+tag@Example.com",
		ReferralCode: referral,
	})
	s.Require().NoError(err)
	return p
}

func (s *NetworkServiceSuite) TestRegister() {
	s.Run("normalizes the profile and issues a referral code", func() {
		p := s.register("")
		s.True(p.ReferralCode.Valid())
		s.Equal("member+tag@example.com", p.Email)
		s.Equal("Member", p.DisplayName)
		s.Equal(domain.TierEntry, p.Tier)
		s.True(p.IsRoot())
	})

	s.Run("links under the referrer", func() {
		parent := s.register("")
		child := s.register(" " + string(parent.ReferralCode) + " ")
		s.Require().NotNil(child.UplineID)
		s.Equal(parent.ID, *child.UplineID)

		down, err := s.service.GetDirectDownline(s.ctx, parent.ID)
		s.Require().NoError(err)
		s.Require().Len(down, 1)
		s.Equal(child.ID, down[0].ID)
	})

	s.Run("unknown referral code registers unlinked", func() {
		p := s.register("ZZZZZZZZ")
		s.True(p.IsRoot())
	})

	s.Run("malformed referral code registers unlinked", func() {
		p := s.register("not-a-code")
		s.True(p.IsRoot())
	})

	s.Run("rejects a missing email", func() {
		_, err := s.service.Register(s.ctx, &models.RegisterRequest{DisplayName: "x"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("records an audit event", func() {
		p := s.register("")
		events, err := s.auditLog.ListByParticipant(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Require().NotEmpty(events)
		s.Equal(string(audit.EventParticipantRegistered), events[0].Action)
	})
}

func (s *NetworkServiceSuite) TestRegisterRetriesCodeCollisions() {
	existing := s.register("")
	fresh, err := models.NewReferralCode()
	s.Require().NoError(err)

	codes := []models.ReferralCode{existing.ReferralCode, existing.ReferralCode, fresh}
	s.service.newCode = func() (models.ReferralCode, error) {
		next := codes[0]
		codes = codes[1:]
		return next, nil
	}

	p, err := s.service.Register(s.ctx, &models.RegisterRequest{Email: "late@example.com"})
	s.Require().NoError(err)
	s.Equal(fresh, p.ReferralCode)
}

func (s *NetworkServiceSuite) TestRegisterGivesUpAfterRepeatedCollisions() {
	existing := s.register("")
	s.service.newCode = func() (models.ReferralCode, error) { return existing.ReferralCode, nil }

	_, err := s.service.Register(s.ctx, &models.RegisterRequest{Email: "late@example.com"})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *NetworkServiceSuite) TestRegisterCodeSourceFailure() {
	s.service.newCode = func() (models.ReferralCode, error) { return "", errors.New("entropy exhausted") }
	_, err := s.service.Register(s.ctx, &models.RegisterRequest{Email: "late@example.com"})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *NetworkServiceSuite) TestGetUpline() {
	root := s.register("")
	p1 := s.register(string(root.ReferralCode))
	p2 := s.register(string(p1.ReferralCode))
	seller := s.register(string(p2.ReferralCode))

	s.Run("truncates at max depth", func() {
		chain, err := s.service.GetUpline(s.ctx, seller.ID, 2)
		s.Require().NoError(err)
		s.Require().Len(chain, 2)
		s.Equal(p2.ID, chain[0].ID)
		s.Equal(p1.ID, chain[1].ID)
	})

	s.Run("stops early at the root", func() {
		chain, err := s.service.GetUpline(s.ctx, seller.ID, 6)
		s.Require().NoError(err)
		s.Len(chain, 3)
	})

	s.Run("zero depth is empty", func() {
		chain, err := s.service.GetUpline(s.ctx, seller.ID, 0)
		s.Require().NoError(err)
		s.Empty(chain)
	})

	s.Run("negative depth is rejected", func() {
		_, err := s.service.GetUpline(s.ctx, seller.ID, -1)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown participant", func() {
		_, err := s.service.GetUpline(s.ctx, domain.NewParticipantID(), 3)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *NetworkServiceSuite) TestSetUpline() {
	s.Run("links and refreshes the parent's standing", func() {
		parent := s.register("")
		child := s.register("")
		s.refresher.EXPECT().Refresh(gomock.Any(), parent.ID)

		s.Require().NoError(s.service.SetUpline(s.ctx, child.ID, parent.ID))

		got, err := s.service.GetParticipant(s.ctx, child.ID)
		s.Require().NoError(err)
		s.Equal(parent.ID, *got.UplineID)
	})

	s.Run("self link is a cycle", func() {
		p := s.register("")
		err := s.service.SetUpline(s.ctx, p.ID, p.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeCycle))
		s.Equal(p.ID.String(), dErrors.DetailsOf(err)["participant_id"])
	})

	s.Run("linking under a descendant is a cycle", func() {
		root := s.register("")
		mid := s.register(string(root.ReferralCode))
		leaf := s.register(string(mid.ReferralCode))

		err := s.service.SetUpline(s.ctx, root.ID, leaf.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeCycle))
		s.Equal(leaf.ID.String(), dErrors.DetailsOf(err)["parent_id"])
	})

	s.Run("already linked", func() {
		parent := s.register("")
		child := s.register(string(parent.ReferralCode))
		other := s.register("")

		err := s.service.SetUpline(s.ctx, child.ID, other.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyLinked))
	})

	s.Run("unknown parent", func() {
		child := s.register("")
		err := s.service.SetUpline(s.ctx, child.ID, domain.NewParticipantID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *NetworkServiceSuite) TestDepthLimit() {
	s.service = New(s.store,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMaxDepth(2),
	)
	s.service.SetStandingRefresher(s.refresher)

	root := s.register("")
	mid := s.register(string(root.ReferralCode))
	deep := s.register(string(mid.ReferralCode))

	s.Run("registration below the limit is rejected", func() {
		_, err := s.service.Register(s.ctx, &models.RegisterRequest{
			Email:        "late@example.com",
			ReferralCode: string(deep.ReferralCode),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeDepthExceeded))
		s.Equal("2", dErrors.DetailsOf(err)["max_depth"])
	})

	s.Run("linking a subtree that would overhang the limit is rejected", func() {
		branch := s.register("")
		s.register(string(branch.ReferralCode))

		err := s.service.SetUpline(s.ctx, branch.ID, mid.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeDepthExceeded))

		s.refresher.EXPECT().Refresh(gomock.Any(), root.ID)
		s.Require().NoError(s.service.SetUpline(s.ctx, branch.ID, root.ID))
	})
}

func (s *NetworkServiceSuite) TestRecordActivity() {
	p := s.register("")
	s.refresher.EXPECT().Refresh(gomock.Any(), p.ID).Times(1)

	updated, err := s.service.RecordActivity(s.ctx, p.ID, &models.ActivityRequest{Points: 120, CompletedTasks: 3})
	s.Require().NoError(err)
	s.Equal(int64(120), updated.Stats.Points)
	s.Equal(int64(3), updated.Stats.CompletedTasks)

	_, err = s.service.RecordActivity(s.ctx, p.ID, &models.ActivityRequest{})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *NetworkServiceSuite) TestNetworkSizeAndCounters() {
	root := s.register("")
	a := s.register(string(root.ReferralCode))
	s.register(string(a.ReferralCode))
	s.register(string(root.ReferralCode))

	n, err := s.service.NetworkSize(s.ctx, root.ID)
	s.Require().NoError(err)
	s.Equal(3, n)

	s.Require().NoError(s.service.AddLifetimeSales(s.ctx, a.ID, decimal.RequireFromString("10.25")))
	planID := domain.NewPlanID()
	s.Require().NoError(s.service.SetPlan(s.ctx, a.ID, planID, 2))

	got, err := s.service.GetParticipant(s.ctx, a.ID)
	s.Require().NoError(err)
	s.True(got.Stats.LifetimeSales.Equal(decimal.RequireFromString("10.25")))
	s.Equal(planID, *got.PlanID)
	s.Equal(2, got.PlanVersion)

	err = s.service.SetPlan(s.ctx, domain.NewParticipantID(), planID, 1)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *NetworkServiceSuite) TestFindByReferralCode() {
	p := s.register("")

	found, err := s.service.FindByReferralCode(s.ctx, string(p.ReferralCode))
	s.Require().NoError(err)
	s.Equal(p.ID, found.ID)

	_, err = s.service.FindByReferralCode(s.ctx, "bad")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.FindByReferralCode(s.ctx, "ZZZZZZZZ")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
