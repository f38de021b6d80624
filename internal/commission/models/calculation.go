package models

import (
	"time"

	"github.com/shopspring/decimal"

	planmodels "ascend/internal/plan/models"
	"ascend/pkg/domain"
)

// Payee is one candidate recipient of a sale's commission: the seller at
// level 0 or an ancestor at level k. Plan is nil when the payee holds none.
type Payee struct {
	ID    domain.ParticipantID
	Level int
	Tier  domain.Tier
	Plan  *planmodels.Plan
}

// Entitled reports whether the payee's own plan reaches the level.
func (p Payee) Entitled() bool {
	return p.Plan != nil && p.Plan.Entitles(p.Level)
}

// Multiplier returns the tier multiplier applied to a payee's base rate.
type Multiplier func(domain.Tier) decimal.Decimal

// Computation is the outcome of applying a seller's plan to a sale.
type Computation struct {
	Lines []*Line
	// Expected is amount times the sum of applied rates, unrounded.
	Expected decimal.Decimal
}

// Persisted is the sum of the rounded line amounts.
func (c Computation) Persisted() decimal.Decimal {
	return Total(c.Lines)
}

// Drift is how far the rounded total exceeds the exact total.
func (c Computation) Drift() decimal.Decimal {
	return c.Persisted().Sub(c.Expected)
}

// Conserved reports whether rounding drift stays within one minor unit.
func (c Computation) Conserved(currency domain.Currency) bool {
	return c.Drift().LessThanOrEqual(currency.MinorUnit())
}

// Calculate applies the seller's plan to the sale. payees must be ordered
// by level starting with the seller at level 0; levels beyond the plan's
// depth, zero rates and payees whose own plan does not reach the level
// produce no line. Amounts are computed at full precision and rounded half
// to even once per line.
func Calculate(sale *Sale, plan *planmodels.Plan, payees []Payee, multiplier Multiplier, now time.Time) Computation {
	result := Computation{Expected: decimal.Zero}
	for _, payee := range payees {
		if payee.Level > plan.MaxDepth {
			break
		}
		base := plan.LevelRate(payee.Level)
		if !base.IsPositive() || !payee.Entitled() {
			continue
		}
		mult := multiplier(payee.Tier)
		applied := base.Mul(mult)
		exact := sale.Amount.Mul(applied)

		result.Expected = result.Expected.Add(exact)
		result.Lines = append(result.Lines, &Line{
			ID:             domain.NewLineID(),
			SaleID:         sale.ID,
			PayeeID:        payee.ID,
			Level:          payee.Level,
			Amount:         sale.Currency.Round(exact),
			Currency:       sale.Currency,
			RateApplied:    applied,
			BaseRate:       base,
			TierMultiplier: mult,
			PlanID:         plan.ID,
			PlanVersion:    plan.Version,
			Status:         LinePending,
			CreatedAt:      now,
		})
	}
	return result
}
