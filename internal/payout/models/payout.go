package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
)

// Status is the lifecycle state of a payout request.
type Status string

const (
	StatusRequested  Status = "requested"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Request asks for the payee's approved commission lines to be paid out in
// one transfer. Requests are never deleted.
type Request struct {
	ID                domain.PayoutRequestID `json:"id"`
	PayeeID           domain.ParticipantID   `json:"payee_id"`
	Amount            decimal.Decimal        `json:"amount"`
	Currency          domain.Currency        `json:"currency"`
	LineIDs           []domain.LineID        `json:"line_ids"`
	Status            Status                 `json:"status"`
	ExternalReference string                 `json:"external_reference,omitempty"`
	FailureReason     string                 `json:"failure_reason,omitempty"`
	// PaidAmount is what completion actually settled; it is lower than Amount
	// when covered lines were cancelled in flight.
	PaidAmount  *decimal.Decimal `json:"paid_amount,omitempty"`
	RequestedAt time.Time        `json:"requested_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// NewRequest builds a requested payout covering lineIDs.
func NewRequest(id domain.PayoutRequestID, payee domain.ParticipantID, amount domain.Money, lineIDs []domain.LineID, now time.Time) (*Request, error) {
	if id.IsNil() || payee.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "payout and payee ids required")
	}
	if len(lineIDs) == 0 || !amount.Amount.IsPositive() {
		return nil, dErrors.New(dErrors.CodeNothingToPay, "nothing to pay").
			WithDetail("participant_id", payee.String())
	}
	ids := make([]domain.LineID, len(lineIDs))
	copy(ids, lineIDs)
	return &Request{
		ID:          id,
		PayeeID:     payee,
		Amount:      amount.Amount,
		Currency:    amount.Currency,
		LineIDs:     ids,
		Status:      StatusRequested,
		RequestedAt: now,
		UpdatedAt:   now,
	}, nil
}

func (r *Request) Money() domain.Money {
	return domain.Money{Amount: r.Amount, Currency: r.Currency}
}

// StartProcessing marks the transfer as handed to the gateway.
func (r *Request) StartProcessing(now time.Time) error {
	if r.Status != StatusRequested {
		return r.invalid(StatusProcessing)
	}
	r.Status = StatusProcessing
	r.UpdatedAt = now
	return nil
}

// Complete settles the request with the gateway's reference and the amount
// actually paid.
func (r *Request) Complete(reference string, paid decimal.Decimal, now time.Time) error {
	if r.Status.IsTerminal() {
		return r.invalid(StatusCompleted)
	}
	r.Status = StatusCompleted
	r.ExternalReference = reference
	r.PaidAmount = &paid
	r.UpdatedAt = now
	completed := now
	r.CompletedAt = &completed
	return nil
}

// Fail closes the request without paying.
func (r *Request) Fail(reason string, now time.Time) error {
	if r.Status.IsTerminal() {
		return r.invalid(StatusFailed)
	}
	r.Status = StatusFailed
	r.FailureReason = reason
	r.UpdatedAt = now
	return nil
}

func (r *Request) invalid(to Status) error {
	return dErrors.New(dErrors.CodeInvalidState, "payout request cannot move to "+string(to)).
		WithDetail("payout_request_id", r.ID.String()).
		WithDetail("status", string(r.Status))
}

func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	c := *r
	c.LineIDs = append([]domain.LineID(nil), r.LineIDs...)
	if r.PaidAmount != nil {
		paid := *r.PaidAmount
		c.PaidAmount = &paid
	}
	if r.CompletedAt != nil {
		at := *r.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}

// Transfer is the instruction sent to the payment gateway.
type Transfer struct {
	RequestID domain.PayoutRequestID
	PayeeID   domain.ParticipantID
	Account   string
	Amount    domain.Money
}

// Receipt is the gateway's acknowledgement of an executed transfer.
type Receipt struct {
	Reference string
}

// PaidNotification tells the token service a payout settled.
type PaidNotification struct {
	RequestID domain.PayoutRequestID `json:"payout_request_id"`
	PayeeID   domain.ParticipantID   `json:"payee_id"`
	Amount    decimal.Decimal        `json:"amount"`
	Currency  domain.Currency        `json:"currency"`
	Reference string                 `json:"external_reference"`
	PaidAt    time.Time              `json:"paid_at"`
}

// ErrGatewayUnavailable marks a transfer that may not have reached the
// gateway. The payout stays in processing and the transfer is retried.
var ErrGatewayUnavailable = errors.New("transfer gateway unavailable")
