package service

import (
	"time"

	"ascend/internal/commission/models"
	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
)

func (s *CommissionServiceSuite) TestLineLifecycle() {
	seller, _, _ := s.scenario()
	line := s.recordSale(seller, "100.00").Lines[0]
	paidAt := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)

	s.Run("cannot pay a pending line", func() {
		_, err := s.service.MarkPaid(s.ctx, line.ID, paidAt)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
		s.Equal(string(models.LinePending), dErrors.DetailsOf(err)["status"])
	})

	s.Run("approve then pay", func() {
		approved, err := s.service.Approve(s.ctx, line.ID)
		s.Require().NoError(err)
		s.Equal(models.LineApproved, approved.Status)

		paid, err := s.service.MarkPaid(s.ctx, line.ID, paidAt)
		s.Require().NoError(err)
		s.Equal(models.LinePaid, paid.Status)
		s.Equal(paidAt, *paid.PaidAt)
	})

	s.Run("paid lines cannot be cancelled", func() {
		_, err := s.service.Cancel(s.ctx, line.ID, "mistake")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("unknown line", func() {
		_, err := s.service.Approve(s.ctx, domain.NewLineID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *CommissionServiceSuite) TestCancelLine() {
	seller, p1, _ := s.scenario()
	lines := s.recordSale(seller, "100.00").Lines

	cancelled, err := s.service.Cancel(s.ctx, lines[1].ID, "fraud review")
	s.Require().NoError(err)
	s.Equal(models.LineCancelled, cancelled.Status)

	got, err := s.network.GetParticipant(s.ctx, p1.ID)
	s.Require().NoError(err)
	s.True(got.Stats.LifetimeCommission.IsZero())
}

func (s *CommissionServiceSuite) TestApproveSaleSkipsSettledLines() {
	seller, _, _ := s.scenario()
	result := s.recordSale(seller, "100.00")
	_, err := s.service.Cancel(s.ctx, result.Lines[1].ID, "dispute")
	s.Require().NoError(err)

	approved, err := s.service.ApproveSale(s.ctx, result.Sale.ID)
	s.Require().NoError(err)
	s.Require().Len(approved, 1)
	s.Equal(result.Lines[0].ID, approved[0].ID)

	again, err := s.service.ApproveSale(s.ctx, result.Sale.ID)
	s.Require().NoError(err)
	s.Empty(again)
}

func (s *CommissionServiceSuite) TestListLines() {
	seller, _, _ := s.scenario()
	for _, amount := range []string{"10.00", "20.00", "30.00"} {
		s.recordSale(seller, amount)
	}
	all, err := s.service.ListLines(s.ctx, seller.ID, models.LineFilter{})
	s.Require().NoError(err)
	s.Len(all, 3)

	_, err = s.service.Approve(s.ctx, all[0].ID)
	s.Require().NoError(err)

	approved, err := s.service.ListLines(s.ctx, seller.ID, models.LineFilter{Status: models.LineApproved})
	s.Require().NoError(err)
	s.Len(approved, 1)

	page, err := s.service.ListLines(s.ctx, seller.ID, models.LineFilter{Limit: 2})
	s.Require().NoError(err)
	s.Len(page, 2)

	_, err = s.service.ListLines(s.ctx, seller.ID, models.LineFilter{Status: "lost"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err = s.service.ListLines(s.ctx, seller.ID, models.LineFilter{Period: models.Period{From: from, To: from}})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *CommissionServiceSuite) TestPayoutReservation() {
	seller, _, _ := s.scenario()
	result := s.recordSale(seller, "100.00")
	_, err := s.service.ApproveSale(s.ctx, result.Sale.ID)
	s.Require().NoError(err)

	payable, err := s.service.PayableLines(s.ctx, seller.ID, "USD")
	s.Require().NoError(err)
	s.Require().Len(payable, 1)

	first := domain.NewPayoutRequestID()
	s.Require().NoError(s.service.ReserveLines(s.ctx, []domain.LineID{payable[0].ID}, first))

	err = s.service.ReserveLines(s.ctx, []domain.LineID{payable[0].ID}, domain.NewPayoutRequestID())
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	err = s.service.ReserveLines(s.ctx, []domain.LineID{domain.NewLineID()}, domain.NewPayoutRequestID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	held, err := s.service.LinesForPayout(s.ctx, first)
	s.Require().NoError(err)
	s.Len(held, 1)

	n, err := s.service.ReleaseLines(s.ctx, first)
	s.Require().NoError(err)
	s.Equal(1, n)

	payable, err = s.service.PayableLines(s.ctx, seller.ID, "USD")
	s.Require().NoError(err)
	s.Len(payable, 1)
}
