package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"ascend/internal/commission/models"
	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
	"ascend/pkg/platform/audit"
	"ascend/pkg/platform/sentinel"
	"ascend/pkg/platform/tracing"
	txcontext "ascend/pkg/platform/tx"
	"ascend/pkg/requestcontext"
)

// maxCancelAttempts bounds re-reads when a line changes status under us.
const maxCancelAttempts = 3

// VoidSale reverses a sale. Unpaid lines are cancelled, releasing any payout
// reservation. Paid lines are left as they are, flagged for reconciliation
// and reported back.
func (s *Service) VoidSale(ctx context.Context, saleID domain.SaleID, req *models.VoidSaleRequest) (result *models.VoidResult, err error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	ctx, span := tracing.Start(ctx, "commission.void", attribute.String("sale_id", saleID.String()))
	defer func() { tracing.End(span, err) }()

	release, err := s.acquire(ctx, saleID)
	if err != nil {
		return nil, err
	}
	defer release()

	now := requestcontext.Now(ctx)
	result = &models.VoidResult{}
	err = s.tx.RunInTx(txcontext.WithShardKey(ctx, saleID.String()), func(ctx context.Context) error {
		sale, err := s.sales.MarkVoided(ctx, saleID, req.Reason, now)
		switch {
		case err == nil:
		case errors.Is(err, sentinel.ErrInvalidState):
			return dErrors.New(dErrors.CodeInvalidState, "sale already voided").WithDetail("sale_id", saleID.String())
		default:
			return translateSale(err, saleID)
		}
		result.Sale = sale

		lines, err := s.lines.ListBySale(ctx, saleID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load commission lines")
		}
		for _, l := range lines {
			reversed, paid, err := s.reverseLine(ctx, l)
			if err != nil {
				return err
			}
			switch {
			case paid:
				result.Reconcile = append(result.Reconcile, reversed)
			case reversed != nil:
				result.Cancelled = append(result.Cancelled, reversed)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncSaleVoided()
	s.logAudit(ctx, string(audit.EventSaleVoided),
		"participant_id", result.Sale.SellerID.String(),
		"subject", saleID.String(),
		"reason", req.Reason,
		"amount", result.Sale.Money().String())
	for _, l := range result.Cancelled {
		s.metrics.IncTransition(string(models.LineCancelled))
		s.logAudit(ctx, string(audit.EventCommissionCancelled),
			"participant_id", l.PayeeID.String(),
			"subject", l.ID.String(),
			"amount", l.Money().String(),
			"reason", "sale_voided")
	}
	for _, l := range result.Reconcile {
		s.metrics.IncReconciliationFlag()
		s.logger.WarnContext(ctx, "voided sale had paid commission, reconciliation required",
			"sale_id", saleID.String(),
			"line_id", l.ID.String(),
			"payee_id", l.PayeeID.String(),
			"amount", l.Money().String(),
		)
		s.logAudit(ctx, string(audit.EventCommissionReconciliation),
			"participant_id", l.PayeeID.String(),
			"subject", l.ID.String(),
			"amount", l.Money().String(),
			"reason", "sale_voided")
	}
	s.refresh(ctx, result.Cancelled)
	return result, nil
}

// reverseLine cancels an unpaid line or flags a paid one. It returns nil for
// lines that were already cancelled.
func (s *Service) reverseLine(ctx context.Context, l *models.Line) (*models.Line, bool, error) {
	current := l
	for range maxCancelAttempts {
		switch current.Status {
		case models.LineCancelled:
			return nil, false, nil
		case models.LinePaid:
			flagged, err := s.lines.FlagReconciliation(ctx, current.ID)
			if err != nil {
				return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to flag commission line")
			}
			return flagged, true, nil
		}

		cancelled, err := s.lines.UpdateStatus(ctx, current.ID, current.Status, models.LineCancelled, requestcontext.Now(ctx))
		if err == nil {
			return cancelled, false, nil
		}
		if !errors.Is(err, sentinel.ErrInvalidState) {
			return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to cancel commission line")
		}
		if current, err = s.lines.FindByID(ctx, l.ID); err != nil {
			return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reload commission line")
		}
	}
	return nil, false, dErrors.New(dErrors.CodeConflict, "commission line kept changing while voiding").
		WithDetail("line_id", l.ID.String())
}
