package models

import (
	"time"

	"github.com/shopspring/decimal"

	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
)

// SaleStatus is the lifecycle state of a sale.
type SaleStatus string

const (
	SaleRecorded SaleStatus = "recorded"
	SaleVoided   SaleStatus = "voided"
)

// Sale is a purchase made through a seller. Amount is stored exactly as
// received; only commission lines are rounded.
type Sale struct {
	ID         domain.SaleID        `json:"id"`
	SellerID   domain.ParticipantID `json:"seller_id"`
	Amount     decimal.Decimal      `json:"amount"`
	Currency   domain.Currency      `json:"currency"`
	Metadata   map[string]string    `json:"metadata,omitempty"`
	Status     SaleStatus           `json:"status"`
	VoidReason string               `json:"void_reason,omitempty"`
	RecordedAt time.Time            `json:"recorded_at"`
	VoidedAt   *time.Time           `json:"voided_at,omitempty"`
	// ComputedAt is set once commission has been computed, even when the
	// computation produced no lines.
	ComputedAt *time.Time           `json:"computed_at,omitempty"`
}

// NewSale builds a recorded sale.
func NewSale(id domain.SaleID, seller domain.ParticipantID, amount domain.Money, metadata map[string]string, now time.Time) (*Sale, error) {
	if id.IsNil() || seller.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "sale and seller ids required")
	}
	if amount.Amount.IsNegative() {
		return nil, dErrors.New(dErrors.CodeValidation, "sale amount must not be negative").
			WithDetail("amount", amount.Amount.String())
	}
	return &Sale{
		ID:         id,
		SellerID:   seller,
		Amount:     amount.Amount,
		Currency:   amount.Currency,
		Metadata:   metadata,
		Status:     SaleRecorded,
		RecordedAt: now,
	}, nil
}

func (s *Sale) IsVoided() bool { return s.Status == SaleVoided }

func (s *Sale) IsComputed() bool { return s.ComputedAt != nil }

func (s *Sale) Money() domain.Money {
	return domain.Money{Amount: s.Amount, Currency: s.Currency}
}

// Void moves a recorded sale to voided.
func (s *Sale) Void(reason string, now time.Time) error {
	if s.IsVoided() {
		return dErrors.New(dErrors.CodeInvalidState, "sale already voided").
			WithDetail("sale_id", s.ID.String())
	}
	s.Status = SaleVoided
	s.VoidReason = reason
	s.VoidedAt = &now
	return nil
}

func (s *Sale) Clone() *Sale {
	if s == nil {
		return nil
	}
	c := *s
	if s.Metadata != nil {
		c.Metadata = make(map[string]string, len(s.Metadata))
		for k, v := range s.Metadata {
			c.Metadata[k] = v
		}
	}
	if s.VoidedAt != nil {
		t := *s.VoidedAt
		c.VoidedAt = &t
	}
	if s.ComputedAt != nil {
		t := *s.ComputedAt
		c.ComputedAt = &t
	}
	return &c
}
