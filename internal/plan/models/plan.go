package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
)

// MaxLevels bounds how many upline levels any plan may pay.
const MaxLevels = 6

// RateScale is the number of decimal places a rate may carry. It matches
// the plans.rates column.
const RateScale = 6

// Plan is one immutable version of a commission schedule.
//
// Invariants:
//   - Rates[0] is the direct-sale rate, Rates[k] the level-k rate
//   - every rate is within [0,1] with at most RateScale decimal places;
//     rates beyond MaxDepth are zero
//   - 0 <= MaxDepth <= MaxLevels
//   - (id, version) never changes once stored; revisions add a new version
type Plan struct {
	ID          domain.PlanID                 `json:"id"`
	Version     int                           `json:"version"`
	Name        string                        `json:"name"`
	Rates       [MaxLevels + 1]decimal.Decimal `json:"-"`
	MaxDepth    int                           `json:"max_depth"`
	Eligibility Eligibility                   `json:"eligibility"`
	Cost        domain.Money                  `json:"cost"`
	Active      bool                          `json:"active"`
	CreatedAt   time.Time                     `json:"created_at"`
}

// Eligibility lists the minimums a participant must meet to buy a plan.
type Eligibility struct {
	MinPoints      int64           `json:"min_points"`
	MinTasks       int64           `json:"min_tasks"`
	MinSalesVolume decimal.Decimal `json:"min_sales_volume"`
}

// Standing is the slice of participant stats eligibility is checked against.
type Standing struct {
	Points         int64
	CompletedTasks int64
	LifetimeSales  decimal.Decimal
}

// Schedule is the authoring input for a plan version.
type Schedule struct {
	Name        string
	Rates       []decimal.Decimal
	Eligibility Eligibility
	Cost        domain.Money
}

// NewPlan builds a plan version from a schedule. The schedule length fixes
// MaxDepth: len(Rates) == MaxDepth+1.
func NewPlan(id domain.PlanID, version int, sched Schedule, active bool, now time.Time) (*Plan, error) {
	if id.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "plan id required")
	}
	if version < 1 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "plan version must be positive")
	}
	if sched.Name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "plan name required")
	}
	if len(sched.Rates) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "plan needs at least a direct-sale rate")
	}
	if len(sched.Rates) > MaxLevels+1 {
		return nil, dErrors.New(dErrors.CodeValidation, "plan pays more levels than allowed").
			WithDetail("max_levels", decimal.NewFromInt(MaxLevels).String())
	}
	p := &Plan{
		ID:          id,
		Version:     version,
		Name:        sched.Name,
		MaxDepth:    len(sched.Rates) - 1,
		Eligibility: sched.Eligibility,
		Cost:        sched.Cost,
		Active:      active,
		CreatedAt:   now,
	}
	for i := range p.Rates {
		p.Rates[i] = decimal.Zero
	}
	one := decimal.NewFromInt(1)
	for i, rate := range sched.Rates {
		if rate.IsNegative() || rate.GreaterThan(one) {
			return nil, dErrors.New(dErrors.CodeValidation, "rate must be within [0,1]").
				WithDetail("level", decimal.NewFromInt(int64(i)).String()).
				WithDetail("rate", rate.String())
		}
		if !rate.Equal(rate.Truncate(RateScale)) {
			return nil, dErrors.New(dErrors.CodeValidation, "rate has too many decimal places").
				WithDetail("level", decimal.NewFromInt(int64(i)).String()).
				WithDetail("rate", rate.String()).
				WithDetail("max_places", decimal.NewFromInt(RateScale).String())
		}
		p.Rates[i] = rate
	}
	if sched.Eligibility.MinPoints < 0 || sched.Eligibility.MinTasks < 0 || sched.Eligibility.MinSalesVolume.IsNegative() {
		return nil, dErrors.New(dErrors.CodeValidation, "eligibility minimums must not be negative")
	}
	return p, nil
}

// Direct is the level-0 rate paid to the seller.
func (p *Plan) Direct() decimal.Decimal { return p.Rates[0] }

// LevelRate returns the rate for upline level k, zero past MaxDepth.
func (p *Plan) LevelRate(k int) decimal.Decimal {
	if k < 0 || k > p.MaxDepth {
		return decimal.Zero
	}
	return p.Rates[k]
}

// Entitles reports whether a holder of this plan may earn at level k.
func (p *Plan) Entitles(k int) bool {
	return k >= 0 && k <= p.MaxDepth
}

// TotalRate is direct plus every level rate.
func (p *Plan) TotalRate() decimal.Decimal {
	total := decimal.Zero
	for k := 0; k <= p.MaxDepth; k++ {
		total = total.Add(p.Rates[k])
	}
	return total
}

// RateVector returns Rates[0..MaxDepth].
func (p *Plan) RateVector() []decimal.Decimal {
	return append([]decimal.Decimal(nil), p.Rates[:p.MaxDepth+1]...)
}

// CheckMargin verifies that the plan, paid in full at the highest tier
// multiplier, leaves the operator its reserved margin.
func (p *Plan) CheckMargin(reservedMargin, maxMultiplier decimal.Decimal) error {
	payout := p.TotalRate().Mul(maxMultiplier)
	ceiling := decimal.NewFromInt(1).Sub(reservedMargin)
	if payout.GreaterThan(ceiling) {
		return dErrors.New(dErrors.CodeValidation, "plan pays out more than the operator margin allows").
			WithDetail("total_rate", p.TotalRate().String()).
			WithDetail("max_payout", payout.String()).
			WithDetail("ceiling", ceiling.String())
	}
	return nil
}

// CheckEligibility returns NoneEligible naming the first unmet minimum.
func (p *Plan) CheckEligibility(s Standing) error {
	e := p.Eligibility
	switch {
	case s.Points < e.MinPoints:
		return noneEligible(p, "min_points", decimal.NewFromInt(e.MinPoints).String())
	case s.CompletedTasks < e.MinTasks:
		return noneEligible(p, "min_tasks", decimal.NewFromInt(e.MinTasks).String())
	case s.LifetimeSales.LessThan(e.MinSalesVolume):
		return noneEligible(p, "min_sales_volume", e.MinSalesVolume.String())
	}
	return nil
}

func noneEligible(p *Plan, minimum, value string) error {
	return dErrors.New(dErrors.CodeNoneEligible, "participant does not meet the plan minimums").
		WithDetail("plan_id", p.ID.String()).
		WithDetail("unmet", minimum).
		WithDetail("required", value)
}

// Revise builds the next version with a new schedule. The active flag carries over.
func (p *Plan) Revise(sched Schedule, now time.Time) (*Plan, error) {
	return NewPlan(p.ID, p.Version+1, sched, p.Active, now)
}

// Clone returns a copy. Plans hold no pointers, so a value copy is deep.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// Activation records a plan purchase.
type Activation struct {
	ID            uuid.UUID            `json:"id"`
	ParticipantID domain.ParticipantID `json:"participant_id"`
	PlanID        domain.PlanID        `json:"plan_id"`
	PlanVersion   int                  `json:"plan_version"`
	PaymentRef    string               `json:"payment_ref"`
	ActivatedAt   time.Time            `json:"activated_at"`
}
