package models

import (
	"strings"

	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
	"ascend/pkg/platform/validation"
)

// RecordSaleRequest is the inbound sale payload.
type RecordSaleRequest struct {
	SellerID string            `json:"seller_id" validate:"required,uuid"`
	Amount   string            `json:"amount" validate:"required"`
	Currency string            `json:"currency" validate:"required,len=3"`
	Metadata map[string]string `json:"metadata" validate:"max=32"`
}

func (r *RecordSaleRequest) Normalize() {
	if r == nil {
		return
	}
	r.SellerID = strings.TrimSpace(r.SellerID)
	r.Amount = strings.TrimSpace(r.Amount)
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
}

// Parse validates the payload and returns the seller and sale amount.
func (r *RecordSaleRequest) Parse() (domain.ParticipantID, domain.Money, error) {
	if r == nil {
		return domain.ParticipantID{}, domain.Money{}, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validation.Struct(r); err != nil {
		return domain.ParticipantID{}, domain.Money{}, err
	}
	seller, err := domain.ParseParticipantID(r.SellerID)
	if err != nil {
		return domain.ParticipantID{}, domain.Money{}, err
	}
	currency, err := domain.ParseCurrency(r.Currency)
	if err != nil {
		return domain.ParticipantID{}, domain.Money{}, err
	}
	amount, err := domain.ParseAmount(r.Amount)
	if err != nil {
		return domain.ParticipantID{}, domain.Money{}, err
	}
	money, err := domain.NewMoney(amount, currency)
	if err != nil {
		return domain.ParticipantID{}, domain.Money{}, err
	}
	return seller, money, nil
}

// VoidSaleRequest carries the reason a sale is reversed.
type VoidSaleRequest struct {
	Reason string `json:"reason" validate:"required,max=512"`
}

func (r *VoidSaleRequest) Normalize() {
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *VoidSaleRequest) Validate() error {
	return validation.Struct(r)
}

// MarkPaidRequest is the admin payload for settling a line out of band.
type MarkPaidRequest struct {
	PaidAt string `json:"paid_at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

func (r *MarkPaidRequest) Validate() error {
	return validation.Struct(r)
}

// SaleRecordedEvent is published when a sale is stored and its commissions
// are left to the asynchronous consumer.
type SaleRecordedEvent struct {
	SaleID   domain.SaleID        `json:"sale_id"`
	SellerID domain.ParticipantID `json:"seller_id"`
}

// VoidResult reports what voiding a sale did to its lines.
type VoidResult struct {
	Sale      *Sale   `json:"sale"`
	Cancelled []*Line `json:"cancelled"`
	// Reconcile lists lines already paid out; they are flagged, not reversed.
	Reconcile []*Line `json:"needs_reconciliation"`
}

// SaleResult is a sale together with its commission lines, when computed.
type SaleResult struct {
	Sale  *Sale   `json:"sale"`
	Lines []*Line `json:"lines"`
	// Queued is true when computation was handed to the sale consumer.
	Queued bool `json:"queued"`
}

// CancelLineRequest is the admin payload for cancelling a single line.
type CancelLineRequest struct {
	Reason string `json:"reason" validate:"required,max=512"`
}

func (r *CancelLineRequest) Normalize() {
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *CancelLineRequest) Validate() error {
	return validation.Struct(r)
}
