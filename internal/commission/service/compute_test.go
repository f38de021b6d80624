package service

import (
	"sync"
	"time"

	"ascend/internal/commission/models"
	netmodels "ascend/internal/network/models"
	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
	"ascend/pkg/requestcontext"
)

func (s *CommissionServiceSuite) TestIdempotency() {
	seller, _, _ := s.scenario()
	result := s.recordSale(seller, "1000.00")

	s.Run("recomputing returns the stored lines", func() {
		again, err := s.service.ComputeCommissions(s.ctx, result.Sale.ID)
		s.Require().NoError(err)
		s.Require().Len(again, len(result.Lines))
		for i := range again {
			s.Equal(result.Lines[i].ID, again[i].ID)
		}
	})

	s.Run("concurrent computations write one set of lines", func() {
		late := s.register(nil)
		pending := s.recordSale(late, "333.33")
		s.Empty(pending.Lines)
		s.buy(late, s.publish("0.15"))

		var wg sync.WaitGroup
		ids := make([]domain.LineID, 8)
		for i := range ids {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				lines, err := s.service.ComputeCommissions(s.ctx, pending.Sale.ID)
				if err == nil && len(lines) == 1 {
					ids[i] = lines[0].ID
				}
			}(i)
		}
		wg.Wait()

		for _, id := range ids {
			s.Equal(ids[0], id)
		}
		stored, err := s.lines.ListBySale(s.ctx, pending.Sale.ID)
		s.Require().NoError(err)
		s.Require().Len(stored, 1)
		s.True(stored[0].Amount.Equal(s.amount("50.00")))
	})
}

func (s *CommissionServiceSuite) TestZeroLineComputationIsFinal() {
	parent := s.register(nil)
	seller := s.register(parent)
	s.buy(seller, s.publish("0", "0.05"))

	result := s.recordSale(seller, "100.00")
	s.Empty(result.Lines)
	sale, err := s.sales.FindByID(s.ctx, result.Sale.ID)
	s.Require().NoError(err)
	s.Require().True(sale.IsComputed())

	s.buy(parent, s.publish("0.10", "0.01"))
	again, err := s.service.ComputeCommissions(s.ctx, result.Sale.ID)
	s.Require().NoError(err)
	s.Empty(again)
	stored, err := s.lines.ListBySale(s.ctx, result.Sale.ID)
	s.Require().NoError(err)
	s.Empty(stored)
}

func (s *CommissionServiceSuite) TestConservation() {
	seller := s.register(s.register(s.register(nil)))
	upline, err := s.network.GetUpline(s.ctx, seller.ID, 2)
	s.Require().NoError(err)
	sellerPlan := s.publish("0.1234", "0.0567", "0.0333")
	s.buy(seller, sellerPlan)
	for _, ancestor := range upline {
		s.buy(ancestor, sellerPlan)
	}

	for _, amount := range []string{"0.01", "0.07", "9.99", "13.37", "1234.56", "99999.99"} {
		result := s.recordSale(seller, amount)
		s.Require().Len(result.Lines, 3, amount)
		expected := s.amount(amount).Mul(sellerPlan.TotalRate())
		persisted := models.Total(result.Lines)
		s.True(persisted.LessThanOrEqual(expected.Add(s.amount("0.01"))), "amount %s: %s > %s", amount, persisted, expected)
		s.True(persisted.LessThanOrEqual(s.amount(amount)), amount)
	}
}

func (s *CommissionServiceSuite) TestDepthTruncation() {
	wide := s.publish("0.05", "0.01", "0.01", "0.01", "0.01", "0.01", "0.01")
	chain := []*netmodels.Participant{s.register(nil)}
	for range 5 {
		chain = append(chain, s.register(chain[len(chain)-1]))
	}
	for _, p := range chain {
		s.buy(p, wide)
	}
	seller := s.register(chain[len(chain)-1])
	s.buy(seller, s.publish("0.10", "0.02", "0.02"))

	result := s.recordSale(seller, "500.00")

	s.Require().Len(result.Lines, 3)
	for i, l := range result.Lines {
		s.Equal(i, l.Level)
	}
	s.Equal(chain[5].ID, result.Lines[1].PayeeID)
	s.Equal(chain[4].ID, result.Lines[2].PayeeID)
}

func (s *CommissionServiceSuite) TestEntitlementCap() {
	level3 := s.register(nil)
	level2 := s.register(level3)
	level1 := s.register(level2)
	seller := s.register(level1)

	s.buy(seller, s.publish("0.10", "0.02", "0.02", "0.02"))
	s.buy(level2, s.publish("0.10", "0.01"))
	s.buy(level3, s.publish("0.10", "0.01", "0.01", "0.01"))

	result := s.recordSale(seller, "100.00")

	s.Require().Len(result.Lines, 2)
	s.Equal(seller.ID, result.Lines[0].PayeeID)
	s.Equal(level3.ID, result.Lines[1].PayeeID)
	s.Equal(3, result.Lines[1].Level)
	s.True(result.Lines[1].Amount.Equal(s.amount("2.00")))
}

func (s *CommissionServiceSuite) TestVoidCascade() {
	seller, p1, _ := s.scenario()
	result := s.recordSale(seller, "1000.00")
	direct, level1 := result.Lines[0], result.Lines[1]

	_, err := s.service.ApproveSale(s.ctx, result.Sale.ID)
	s.Require().NoError(err)
	_, err = s.service.MarkPaid(s.ctx, direct.ID, requestcontext.Now(s.ctx))
	s.Require().NoError(err)
	request := domain.NewPayoutRequestID()
	s.Require().NoError(s.service.ReserveLines(s.ctx, []domain.LineID{level1.ID}, request))

	voided, err := s.service.VoidSale(s.ctx, result.Sale.ID, &models.VoidSaleRequest{Reason: "chargeback"})
	s.Require().NoError(err)
	s.True(voided.Sale.IsVoided())

	s.Run("unpaid lines are cancelled and released", func() {
		s.Require().Len(voided.Cancelled, 1)
		s.Equal(level1.ID, voided.Cancelled[0].ID)
		s.Equal(models.LineCancelled, voided.Cancelled[0].Status)
		s.False(voided.Cancelled[0].IsReserved())

		held, err := s.service.LinesForPayout(s.ctx, request)
		s.Require().NoError(err)
		s.Empty(held)

		total, err := s.service.LifetimeCommission(s.ctx, p1.ID, "USD")
		s.Require().NoError(err)
		s.True(total.IsZero())
	})

	s.Run("paid lines are flagged for reconciliation", func() {
		s.Require().Len(voided.Reconcile, 1)
		s.Equal(direct.ID, voided.Reconcile[0].ID)
		s.Equal(models.LinePaid, voided.Reconcile[0].Status)
		s.True(voided.Reconcile[0].NeedsReconciliation)
	})

	s.Run("a voided sale cannot be voided or computed again", func() {
		_, err := s.service.VoidSale(s.ctx, result.Sale.ID, &models.VoidSaleRequest{Reason: "again"})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

		_, err = s.service.ComputeCommissions(s.ctx, result.Sale.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

		_, err = s.service.ApproveSale(s.ctx, result.Sale.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("requires a reason", func() {
		_, err := s.service.VoidSale(s.ctx, result.Sale.ID, &models.VoidSaleRequest{Reason: "  "})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *CommissionServiceSuite) TestComputeWaitsForTheSaleLock() {
	seller := s.register(nil)
	result := s.recordSale(seller, "10.00")
	s.buy(seller, s.publish("0.10"))

	release, err := s.locker.Acquire(s.ctx, result.Sale.ID.String())
	s.Require().NoError(err)
	defer release()

	impatient := s.build(WithLockTimeout(20 * time.Millisecond))
	_, err = impatient.ComputeCommissions(s.ctx, result.Sale.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
}
