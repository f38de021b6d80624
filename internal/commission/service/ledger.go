package service

import (
	"context"
	"errors"
	"time"

	"ascend/internal/commission/models"
	linestore "ascend/internal/commission/store/line"
	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
	"ascend/pkg/platform/audit"
	"ascend/pkg/platform/sentinel"
	"ascend/pkg/requestcontext"
)

// Approve moves a pending line to approved.
func (s *Service) Approve(ctx context.Context, id domain.LineID) (*models.Line, error) {
	l, err := s.transition(ctx, id, models.LinePending, models.LineApproved, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, string(audit.EventCommissionApproved),
		"participant_id", l.PayeeID.String(),
		"subject", l.ID.String(),
		"amount", l.Money().String())
	return l, nil
}

// MarkPaid moves an approved line to paid.
func (s *Service) MarkPaid(ctx context.Context, id domain.LineID, paidAt time.Time) (*models.Line, error) {
	l, err := s.transition(ctx, id, models.LineApproved, models.LinePaid, paidAt)
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, string(audit.EventCommissionPaid),
		"participant_id", l.PayeeID.String(),
		"subject", l.ID.String(),
		"amount", l.Money().String())
	return l, nil
}

// Cancel cancels a pending or approved line and drops its reservation.
func (s *Service) Cancel(ctx context.Context, id domain.LineID, reason string) (*models.Line, error) {
	current, err := s.GetLine(ctx, id)
	if err != nil {
		return nil, err
	}
	l, err := s.transition(ctx, id, current.Status, models.LineCancelled, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, string(audit.EventCommissionCancelled),
		"participant_id", l.PayeeID.String(),
		"subject", l.ID.String(),
		"amount", l.Money().String(),
		"reason", reason)
	s.refresh(ctx, []*models.Line{l})
	return l, nil
}

// ApproveSale approves every pending line of a recorded sale.
func (s *Service) ApproveSale(ctx context.Context, saleID domain.SaleID) ([]*models.Line, error) {
	sale, err := s.sales.FindByID(ctx, saleID)
	if err != nil {
		return nil, translateSale(err, saleID)
	}
	if sale.IsVoided() {
		return nil, dErrors.New(dErrors.CodeInvalidState, "sale is voided").WithDetail("sale_id", saleID.String())
	}
	lines, err := s.lines.ListBySale(ctx, saleID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load commission lines")
	}

	var approved []*models.Line
	for _, l := range lines {
		if l.Status != models.LinePending {
			continue
		}
		updated, err := s.Approve(ctx, l.ID)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeInvalidState) {
				continue
			}
			return approved, err
		}
		approved = append(approved, updated)
	}
	return approved, nil
}

func (s *Service) GetLine(ctx context.Context, id domain.LineID) (*models.Line, error) {
	l, err := s.lines.FindByID(ctx, id)
	if err != nil {
		return nil, translateLine(err, id)
	}
	return l, nil
}

// ListLines pages through a payee's lines, newest first.
func (s *Service) ListLines(ctx context.Context, payee domain.ParticipantID, filter models.LineFilter) ([]*models.Line, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown line status").WithDetail("status", string(filter.Status))
	}
	if err := filter.Period.Validate(); err != nil {
		return nil, err
	}
	lines, err := s.lines.ListByPayee(ctx, payee, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list commission lines")
	}
	return lines, nil
}

// PayableLines returns the payee's approved lines not held by any payout.
func (s *Service) PayableLines(ctx context.Context, payee domain.ParticipantID, currency domain.Currency) ([]*models.Line, error) {
	lines, err := s.lines.ListPayable(ctx, payee, currency)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list payable lines")
	}
	return lines, nil
}

// ReserveLines holds lines for a payout request. It fails with conflict if
// any line was approved away, cancelled or reserved since it was read.
func (s *Service) ReserveLines(ctx context.Context, ids []domain.LineID, requestID domain.PayoutRequestID) error {
	err := s.lines.Reserve(ctx, ids, requestID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, linestore.ErrNotReservable):
		return dErrors.New(dErrors.CodeConflict, "commission lines changed while requesting payout").
			WithDetail("payout_request_id", requestID.String())
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "commission line not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reserve commission lines")
	}
}

// ReleaseLines frees every unpaid line held by the request.
func (s *Service) ReleaseLines(ctx context.Context, requestID domain.PayoutRequestID) (int, error) {
	n, err := s.lines.Release(ctx, requestID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to release commission lines")
	}
	return n, nil
}

// LinesForPayout returns the lines currently held by the request.
func (s *Service) LinesForPayout(ctx context.Context, requestID domain.PayoutRequestID) ([]*models.Line, error) {
	lines, err := s.lines.ListByPayout(ctx, requestID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list payout lines")
	}
	return lines, nil
}

func (s *Service) transition(ctx context.Context, id domain.LineID, from, to models.LineStatus, at time.Time) (*models.Line, error) {
	l, err := s.lines.UpdateStatus(ctx, id, from, to, at)
	switch {
	case err == nil:
		s.metrics.IncTransition(string(to))
		return l, nil
	case errors.Is(err, sentinel.ErrInvalidState):
		current, findErr := s.lines.FindByID(ctx, id)
		if findErr != nil {
			return nil, translateLine(findErr, id)
		}
		return nil, dErrors.New(dErrors.CodeInvalidState, "commission line cannot move to "+string(to)).
			WithDetail("line_id", id.String()).
			WithDetail("status", string(current.Status))
	default:
		return nil, translateLine(err, id)
	}
}

func translateLine(err error, id domain.LineID) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "commission line not found").WithDetail("line_id", id.String())
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load commission line")
}
