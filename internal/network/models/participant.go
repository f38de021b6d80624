package models

import (
	"time"

	"github.com/shopspring/decimal"

	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
)

// Participant is a member of the referral network.
//
// Invariants:
//   - UplineID is nil for a root and never equals ID
//   - the upline relation is acyclic; a participant is never its own ancestor
//   - once UplineID is set it is never changed (no re-parenting)
//   - Stats counters only grow
//   - Tier is a cached projection of the rank engine and only moves upward
type Participant struct {
	ID            domain.ParticipantID  `json:"id"`
	UplineID      *domain.ParticipantID `json:"upline_id,omitempty"`
	ReferralCode  ReferralCode          `json:"referral_code"`
	Email         string                `json:"email,omitempty"`
	DisplayName   string                `json:"display_name"`
	PayoutAccount string                `json:"-"`
	PlanID        *domain.PlanID        `json:"plan_id,omitempty"`
	PlanVersion   int                   `json:"plan_version,omitempty"`
	Stats         Stats                 `json:"stats"`
	Tier          domain.Tier           `json:"tier"`
	RegisteredAt  time.Time             `json:"registered_at"`
	LinkedAt      *time.Time            `json:"linked_at,omitempty"`
}

// Stats are the cumulative counters the rank engine evaluates.
type Stats struct {
	LifetimeSales      decimal.Decimal `json:"lifetime_sales"`
	LifetimeCommission decimal.Decimal `json:"lifetime_commission"`
	CompletedTasks     int64           `json:"completed_tasks"`
	Points             int64           `json:"points"`
}

// NewParticipant builds an unlinked participant at ENTRY tier.
func NewParticipant(id domain.ParticipantID, code ReferralCode, email, displayName string, now time.Time) (*Participant, error) {
	if id.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "participant id required")
	}
	if !code.Valid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "referral code malformed")
	}
	return &Participant{
		ID:           id,
		ReferralCode: code,
		Email:        email,
		DisplayName:  displayName,
		Tier:         domain.TierEntry,
		RegisteredAt: now,
		Stats: Stats{
			LifetimeSales:      decimal.Zero,
			LifetimeCommission: decimal.Zero,
		},
	}, nil
}

func (p *Participant) IsRoot() bool { return p.UplineID == nil }

func (p *Participant) HasPlan() bool { return p.PlanID != nil && !p.PlanID.IsNil() }

// CanLinkTo checks the local part of the link invariants. Ancestry (cycles)
// needs the graph and is checked by the store.
func (p *Participant) CanLinkTo(parentID domain.ParticipantID) error {
	if parentID == p.ID {
		return dErrors.New(dErrors.CodeCycle, "participant cannot be its own upline").
			WithDetail("participant_id", p.ID.String())
	}
	if p.UplineID != nil {
		return dErrors.New(dErrors.CodeAlreadyLinked, "participant already has an upline").
			WithDetail("participant_id", p.ID.String()).
			WithDetail("upline_id", p.UplineID.String())
	}
	return nil
}

// ApplyLink sets the upline. Call CanLinkTo first.
func (p *Participant) ApplyLink(parentID domain.ParticipantID, now time.Time) {
	parent := parentID
	p.UplineID = &parent
	p.LinkedAt = &now
}

// Clone returns a deep copy so stores never hand out shared pointers.
func (p *Participant) Clone() *Participant {
	if p == nil {
		return nil
	}
	c := *p
	if p.UplineID != nil {
		u := *p.UplineID
		c.UplineID = &u
	}
	if p.PlanID != nil {
		pl := *p.PlanID
		c.PlanID = &pl
	}
	if p.LinkedAt != nil {
		l := *p.LinkedAt
		c.LinkedAt = &l
	}
	return &c
}
