package models

import (
	"github.com/shopspring/decimal"

	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
)

// Threshold is the entry requirement of one tier. A participant qualifies
// only when every minimum is met.
type Threshold struct {
	Tier                  domain.Tier     `json:"tier"`
	MinPoints             int64           `json:"min_points"`
	MinNetworkSize        int             `json:"min_network_size"`
	MinLifetimeCommission decimal.Decimal `json:"min_lifetime_commission"`
	Multiplier            decimal.Decimal `json:"multiplier"`
}

// Met reports whether stats satisfy all three minimums.
func (t Threshold) Met(s Stats) bool {
	return s.Points >= t.MinPoints &&
		s.NetworkSize >= t.MinNetworkSize &&
		s.LifetimeCommission.GreaterThanOrEqual(t.MinLifetimeCommission)
}

// Stats are the inputs tiers are evaluated on.
type Stats struct {
	Points             int64           `json:"points"`
	NetworkSize        int             `json:"network_size"`
	LifetimeCommission decimal.Decimal `json:"lifetime_commission"`
}

// Ladder is the ordered tier table, ENTRY first.
//
// Invariants:
//   - one threshold per tier, in tier order, starting at ENTRY with zero minimums
//   - every minimum strictly increases from one tier to the next
//   - multipliers never decrease and ENTRY's is exactly 1
type Ladder struct {
	thresholds []Threshold
}

// NewLadder validates and builds a ladder.
func NewLadder(thresholds []Threshold) (*Ladder, error) {
	tiers := domain.Tiers()
	if len(thresholds) != len(tiers) {
		return nil, dErrors.New(dErrors.CodeValidation, "ladder must define every tier")
	}
	one := decimal.NewFromInt(1)
	for i, t := range thresholds {
		if t.Tier != tiers[i] {
			return nil, dErrors.New(dErrors.CodeValidation, "ladder tiers out of order").WithDetail("tier", string(t.Tier))
		}
		if i == 0 {
			if t.MinPoints != 0 || t.MinNetworkSize != 0 || !t.MinLifetimeCommission.IsZero() || !t.Multiplier.Equal(one) {
				return nil, dErrors.New(dErrors.CodeValidation, "entry tier must have zero minimums and multiplier 1")
			}
			continue
		}
		prev := thresholds[i-1]
		if t.MinPoints <= prev.MinPoints ||
			t.MinNetworkSize <= prev.MinNetworkSize ||
			!t.MinLifetimeCommission.GreaterThan(prev.MinLifetimeCommission) {
			return nil, dErrors.New(dErrors.CodeValidation, "tier thresholds must strictly increase").WithDetail("tier", string(t.Tier))
		}
		if t.Multiplier.LessThan(prev.Multiplier) {
			return nil, dErrors.New(dErrors.CodeValidation, "tier multipliers must not decrease").WithDetail("tier", string(t.Tier))
		}
	}
	return &Ladder{thresholds: append([]Threshold(nil), thresholds...)}, nil
}

// DefaultLadder is the production tier table.
func DefaultLadder() *Ladder {
	d := decimal.RequireFromString
	l, err := NewLadder([]Threshold{
		{Tier: domain.TierEntry, Multiplier: d("1")},
		{Tier: domain.TierBronze, MinPoints: 100, MinNetworkSize: 3, MinLifetimeCommission: d("100"), Multiplier: d("1.02")},
		{Tier: domain.TierSilver, MinPoints: 500, MinNetworkSize: 10, MinLifetimeCommission: d("1000"), Multiplier: d("1.05")},
		{Tier: domain.TierGold, MinPoints: 2000, MinNetworkSize: 50, MinLifetimeCommission: d("5000"), Multiplier: d("1.08")},
		{Tier: domain.TierPlatinum, MinPoints: 10000, MinNetworkSize: 200, MinLifetimeCommission: d("25000"), Multiplier: d("1.10")},
		{Tier: domain.TierDiamond, MinPoints: 50000, MinNetworkSize: 1000, MinLifetimeCommission: d("100000"), Multiplier: d("1.15")},
	})
	if err != nil {
		panic(err)
	}
	return l
}

// Thresholds returns a copy of the table.
func (l *Ladder) Thresholds() []Threshold {
	return append([]Threshold(nil), l.thresholds...)
}

// Evaluate returns the highest tier whose every minimum stats meet, never
// lower than current.
func (l *Ladder) Evaluate(stats Stats, current domain.Tier) domain.Tier {
	for i := len(l.thresholds) - 1; i >= 0; i-- {
		t := l.thresholds[i]
		if t.Met(stats) {
			if t.Tier.Below(current) {
				return current
			}
			return t.Tier
		}
	}
	return current
}

// Multiplier is the tier's commission multiplier. Unknown tiers get ENTRY's.
func (l *Ladder) Multiplier(tier domain.Tier) decimal.Decimal {
	return l.thresholds[tier.Ordinal()].Multiplier
}

// MaxMultiplier is the highest tier's multiplier.
func (l *Ladder) MaxMultiplier() decimal.Decimal {
	return l.thresholds[len(l.thresholds)-1].Multiplier
}

// Next returns the threshold above tier, or false at the top.
func (l *Ladder) Next(tier domain.Tier) (Threshold, bool) {
	i := tier.Ordinal() + 1
	if i >= len(l.thresholds) {
		return Threshold{}, false
	}
	return l.thresholds[i], true
}

// Status is a participant's evaluated standing.
type Status struct {
	ParticipantID domain.ParticipantID `json:"participant_id"`
	Tier          domain.Tier          `json:"tier"`
	Previous      domain.Tier          `json:"previous_tier"`
	Promoted      bool                 `json:"promoted"`
	Multiplier    decimal.Decimal      `json:"multiplier"`
	Stats         Stats                `json:"stats"`
	Next          *Threshold           `json:"next,omitempty"`
}
