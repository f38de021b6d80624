package domain

import (
	"strings"

	dErrors "ascend/pkg/domain-errors"
)

// Tier is a participant's status rank. Tiers are totally ordered.
type Tier string

const (
	TierEntry    Tier = "ENTRY"
	TierBronze   Tier = "BRONZE"
	TierSilver   Tier = "SILVER"
	TierGold     Tier = "GOLD"
	TierPlatinum Tier = "PLATINUM"
	TierDiamond  Tier = "DIAMOND"
)

var tierOrder = []Tier{TierEntry, TierBronze, TierSilver, TierGold, TierPlatinum, TierDiamond}

// Tiers returns all tiers from lowest to highest.
func Tiers() []Tier {
	return append([]Tier(nil), tierOrder...)
}

// Ordinal is the tier's position, 0 for ENTRY. Unknown tiers rank as ENTRY.
func (t Tier) Ordinal() int {
	for i, candidate := range tierOrder {
		if candidate == t {
			return i
		}
	}
	return 0
}

func (t Tier) IsValid() bool {
	for _, candidate := range tierOrder {
		if candidate == t {
			return true
		}
	}
	return false
}

// Below reports whether t ranks strictly lower than other.
func (t Tier) Below(other Tier) bool {
	return t.Ordinal() < other.Ordinal()
}

func (t Tier) String() string { return string(t) }

func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown tier").WithDetail("tier", s)
	}
	return t, nil
}
