package models

import (
	"strings"

	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
	"ascend/pkg/email"
	"ascend/pkg/platform/validation"
)

// RegisterRequest is the inbound registration payload.
type RegisterRequest struct {
	Email         string `json:"email" validate:"required,email,max=254"`
	DisplayName   string `json:"display_name" validate:"max=128"`
	PayoutAccount string `json:"payout_account" validate:"max=128"`
	ReferralCode  string `json:"referral_code" validate:"omitempty,max=32"`
}

func (r *RegisterRequest) Normalize() {
	if r == nil {
		return
	}
	if normalized, ok := email.Normalize(r.Email); ok {
		r.Email = normalized
	} else {
		r.Email = strings.TrimSpace(r.Email)
	}
	r.DisplayName = strings.TrimSpace(r.DisplayName)
	if r.DisplayName == "" && r.Email != "" {
		r.DisplayName = email.DisplayName(r.Email)
	}
	r.PayoutAccount = strings.TrimSpace(r.PayoutAccount)
	r.ReferralCode = string(NormalizeReferralCode(r.ReferralCode))
}

func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Struct(r)
}

// LinkRequest attaches an unlinked participant to an upline.
type LinkRequest struct {
	ParentID string `json:"parent_id" validate:"required,uuid"`
}

func (r *LinkRequest) Normalize() {
	r.ParentID = strings.TrimSpace(r.ParentID)
}

func (r *LinkRequest) Validate() error {
	return validation.Struct(r)
}

// ActivityRequest records completed tasks and earned points.
type ActivityRequest struct {
	Points         int64 `json:"points" validate:"gte=0"`
	CompletedTasks int64 `json:"completed_tasks" validate:"gte=0"`
}

func (r *ActivityRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	if r.Points == 0 && r.CompletedTasks == 0 {
		return dErrors.New(dErrors.CodeValidation, "points or completed_tasks must be positive")
	}
	return nil
}

// UplineView is the read model returned by upline and downline queries.
type UplineView struct {
	Level       int                  `json:"level,omitempty"`
	ID          domain.ParticipantID `json:"id"`
	DisplayName string               `json:"display_name"`
	Tier        domain.Tier          `json:"tier"`
	HasPlan     bool                 `json:"has_plan"`
}
