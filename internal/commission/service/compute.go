package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"ascend/internal/commission/lock"
	"ascend/internal/commission/models"
	linestore "ascend/internal/commission/store/line"
	netmodels "ascend/internal/network/models"
	planmodels "ascend/internal/plan/models"
	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
	"ascend/pkg/platform/audit"
	"ascend/pkg/platform/tracing"
	txcontext "ascend/pkg/platform/tx"
	"ascend/pkg/requestcontext"
)

// ComputeCommissions writes the commission lines for a recorded sale and
// returns them. It is idempotent: a sale computed once, even to zero lines,
// returns its stored lines unchanged. A seller without a plan gets no lines
// and a no_plan error; the sale stays uncomputed so a call after a purchase
// backfills it.
func (s *Service) ComputeCommissions(ctx context.Context, saleID domain.SaleID) (lines []*models.Line, err error) {
	ctx, span := tracing.Start(ctx, "commission.compute", attribute.String("sale_id", saleID.String()))
	defer func() { tracing.End(span, err) }()
	defer s.metrics.ObserveCompute(time.Now())

	release, err := s.acquire(ctx, saleID)
	if err != nil {
		return nil, err
	}
	defer release()

	sale, err := s.sales.FindByID(ctx, saleID)
	if err != nil {
		return nil, translateSale(err, saleID)
	}
	if sale.IsVoided() {
		return nil, dErrors.New(dErrors.CodeInvalidState, "sale is voided").WithDetail("sale_id", saleID.String())
	}

	existing, err := s.lines.ListBySale(ctx, saleID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load commission lines")
	}
	if len(existing) > 0 || sale.IsComputed() {
		s.metrics.IncComputation("existing")
		return existing, nil
	}

	seller, err := s.network.GetParticipant(ctx, sale.SellerID)
	if err != nil {
		return nil, err
	}
	plan, err := s.plans.PlanOf(ctx, seller)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNoPlan) {
			s.metrics.IncComputation("no_plan")
			s.logger.InfoContext(ctx, "seller has no plan, sale left without commission",
				"sale_id", saleID.String(),
				"participant_id", seller.ID.String(),
			)
		}
		return nil, err
	}
	span.SetAttributes(attribute.String("plan_id", plan.ID.String()), attribute.Int("plan_version", plan.Version))

	payees, err := s.payees(ctx, seller, plan)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	computation := models.Calculate(sale, plan, payees, s.multipliers.TierMultiplier, now)
	if !computation.Conserved(sale.Currency) {
		s.metrics.IncConservationWarning()
		s.logger.WarnContext(ctx, "commission rounding exceeded one minor unit",
			"sale_id", saleID.String(),
			"expected", computation.Expected.String(),
			"persisted", computation.Persisted().String(),
		)
	}
	err = s.tx.RunInTx(txcontext.WithShardKey(ctx, saleID.String()), func(ctx context.Context) error {
		if len(computation.Lines) > 0 {
			if err := s.lines.InsertBatch(ctx, computation.Lines); err != nil {
				return err
			}
		}
		return s.sales.MarkComputed(ctx, saleID, now)
	})
	if err != nil {
		if errors.Is(err, linestore.ErrDuplicateLine) {
			// Another instance won the race without holding our lock.
			dup := dErrors.Wrap(err, dErrors.CodeDuplicateComputation, "commission lines already recorded").
				WithDetail("sale_id", saleID.String())
			s.logger.InfoContext(ctx, "duplicate computation, returning stored lines", "error", dup)
			s.metrics.IncComputation("existing")
			return s.storedLines(ctx, saleID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to write commission lines")
	}

	s.metrics.IncComputation("computed")
	if len(computation.Lines) == 0 {
		return nil, nil
	}
	for _, l := range computation.Lines {
		s.metrics.IncLineCreated(strconv.Itoa(l.Level))
	}
	s.logAudit(ctx, string(audit.EventCommissionsComputed),
		"participant_id", sale.SellerID.String(),
		"subject", saleID.String(),
		"amount", computation.Persisted().String(),
		"lines", len(computation.Lines),
		"plan_version", plan.Version)
	s.refresh(ctx, computation.Lines)
	return computation.Lines, nil
}

// payees lists the seller at level 0 and each ancestor the plan pays, with
// the ancestor's own plan so entitlement can be checked.
func (s *Service) payees(ctx context.Context, seller *netmodels.Participant, plan *planmodels.Plan) ([]models.Payee, error) {
	payees := []models.Payee{{ID: seller.ID, Level: 0, Tier: seller.Tier, Plan: plan}}
	if plan.MaxDepth == 0 {
		return payees, nil
	}
	upline, err := s.network.GetUpline(ctx, seller.ID, plan.MaxDepth)
	if err != nil {
		return nil, err
	}
	for i, ancestor := range upline {
		level := i + 1
		payee := models.Payee{ID: ancestor.ID, Level: level, Tier: ancestor.Tier}
		if plan.LevelRate(level).IsPositive() {
			own, err := s.plans.PlanOf(ctx, ancestor)
			switch {
			case err == nil:
				payee.Plan = own
			case dErrors.HasCode(err, dErrors.CodeNoPlan):
			default:
				return nil, err
			}
		}
		payees = append(payees, payee)
	}
	return payees, nil
}

func (s *Service) storedLines(ctx context.Context, saleID domain.SaleID) ([]*models.Line, error) {
	lines, err := s.lines.ListBySale(ctx, saleID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load commission lines")
	}
	return lines, nil
}

func (s *Service) acquire(ctx context.Context, saleID domain.SaleID) (lock.Release, error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()
	release, err := s.locker.Acquire(lockCtx, saleID.String())
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeTimeout) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lock sale")
	}
	return release, nil
}
