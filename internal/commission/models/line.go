package models

import (
	"time"

	"github.com/shopspring/decimal"

	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
)

// LineStatus is the lifecycle state of a commission line.
type LineStatus string

const (
	LinePending   LineStatus = "pending"
	LineApproved  LineStatus = "approved"
	LinePaid      LineStatus = "paid"
	LineCancelled LineStatus = "cancelled"
)

func (s LineStatus) IsValid() bool {
	switch s {
	case LinePending, LineApproved, LinePaid, LineCancelled:
		return true
	}
	return false
}

// Statuses returns every line status in lifecycle order.
func Statuses() []LineStatus {
	return []LineStatus{LinePending, LineApproved, LinePaid, LineCancelled}
}

// Line is one payee's commission on one sale at one level. Level 0 is the
// seller's direct commission. (SaleID, PayeeID, Level) is unique.
type Line struct {
	ID                  domain.LineID           `json:"id"`
	SaleID              domain.SaleID           `json:"sale_id"`
	PayeeID             domain.ParticipantID    `json:"payee_id"`
	Level               int                     `json:"level"`
	Amount              decimal.Decimal         `json:"amount"`
	Currency            domain.Currency         `json:"currency"`
	RateApplied         decimal.Decimal         `json:"rate_applied"`
	BaseRate            decimal.Decimal         `json:"base_rate"`
	TierMultiplier      decimal.Decimal         `json:"tier_multiplier"`
	PlanID              domain.PlanID           `json:"plan_id"`
	PlanVersion         int                     `json:"plan_version"`
	Status              LineStatus              `json:"status"`
	PayoutRequestID     *domain.PayoutRequestID `json:"payout_request_id,omitempty"`
	NeedsReconciliation bool                    `json:"needs_reconciliation,omitempty"`
	CreatedAt           time.Time               `json:"created_at"`
	PaidAt              *time.Time              `json:"paid_at,omitempty"`
	Revision            int64                   `json:"-"`
}

// NaturalKey identifies a line independently of its generated id.
type NaturalKey struct {
	SaleID  domain.SaleID
	PayeeID domain.ParticipantID
	Level   int
}

func (l *Line) Key() NaturalKey {
	return NaturalKey{SaleID: l.SaleID, PayeeID: l.PayeeID, Level: l.Level}
}

func (l *Line) Money() domain.Money {
	return domain.Money{Amount: l.Amount, Currency: l.Currency}
}

func (l *Line) IsReserved() bool { return l.PayoutRequestID != nil }

// CanTransition reports whether the line may move to next.
// pending -> approved -> paid; pending and approved may be cancelled.
func (l *Line) CanTransition(next LineStatus) bool {
	switch next {
	case LineApproved:
		return l.Status == LinePending
	case LinePaid:
		return l.Status == LineApproved
	case LineCancelled:
		return l.Status == LinePending || l.Status == LineApproved
	}
	return false
}

// Transition applies a status change, setting paid_at when paying and
// dropping any payout reservation when cancelling.
func (l *Line) Transition(next LineStatus, at time.Time) error {
	if !l.CanTransition(next) {
		return dErrors.New(dErrors.CodeInvalidState, "commission line cannot move to "+string(next)).
			WithDetail("line_id", l.ID.String()).
			WithDetail("status", string(l.Status))
	}
	l.Status = next
	switch next {
	case LinePaid:
		l.PaidAt = &at
	case LineCancelled:
		l.PayoutRequestID = nil
	}
	return nil
}

func (l *Line) Clone() *Line {
	if l == nil {
		return nil
	}
	c := *l
	if l.PayoutRequestID != nil {
		id := *l.PayoutRequestID
		c.PayoutRequestID = &id
	}
	if l.PaidAt != nil {
		t := *l.PaidAt
		c.PaidAt = &t
	}
	return &c
}

// Total sums line amounts.
func Total(lines []*Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount)
	}
	return total
}
