package models

import (
	"strings"

	"ascend/pkg/platform/validation"
)

// RequestPayoutRequest is the participant payload. An empty currency means
// the default currency.
type RequestPayoutRequest struct {
	Currency string `json:"currency" validate:"omitempty,len=3"`
}

func (r *RequestPayoutRequest) Normalize() {
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
}

func (r *RequestPayoutRequest) Validate() error {
	return validation.Struct(r)
}

// CompletePayoutRequest settles a payout executed outside the gateway.
type CompletePayoutRequest struct {
	ExternalReference string `json:"external_reference" validate:"required,max=128"`
}

func (r *CompletePayoutRequest) Normalize() {
	r.ExternalReference = strings.TrimSpace(r.ExternalReference)
}

func (r *CompletePayoutRequest) Validate() error {
	return validation.Struct(r)
}

// FailPayoutRequest closes a payout without paying.
type FailPayoutRequest struct {
	Reason string `json:"reason" validate:"required,max=512"`
}

func (r *FailPayoutRequest) Normalize() {
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *FailPayoutRequest) Validate() error {
	return validation.Struct(r)
}
