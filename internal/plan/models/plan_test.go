package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
)

func rates(values ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.RequireFromString(v)
	}
	return out
}

func schedule(values ...string) Schedule {
	return Schedule{
		Name:  "Starter",
		Rates: rates(values...),
		Cost:  domain.Money{Amount: decimal.NewFromInt(100), Currency: "USD"},
	}
}

func TestNewPlan(t *testing.T) {
	now := time.Now()

	t.Run("depth follows the schedule length", func(t *testing.T) {
		p, err := NewPlan(domain.NewPlanID(), 1, schedule("0.20", "0.06", "0.05"), true, now)
		require.NoError(t, err)
		assert.Equal(t, 2, p.MaxDepth)
		assert.True(t, p.Direct().Equal(decimal.RequireFromString("0.20")))
		assert.True(t, p.LevelRate(2).Equal(decimal.RequireFromString("0.05")))
		assert.True(t, p.LevelRate(3).IsZero())
		assert.True(t, p.TotalRate().Equal(decimal.RequireFromString("0.31")))
		assert.True(t, p.Entitles(2))
		assert.False(t, p.Entitles(3))
	})

	t.Run("rejects more than the maximum levels", func(t *testing.T) {
		_, err := NewPlan(domain.NewPlanID(), 1, schedule("0.1", "0.01", "0.01", "0.01", "0.01", "0.01", "0.01", "0.01"), true, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects a rate above one", func(t *testing.T) {
		_, err := NewPlan(domain.NewPlanID(), 1, schedule("1.5"), true, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Equal(t, "0", dErrors.DetailsOf(err)["level"])
	})

	t.Run("rejects a rate finer than six places", func(t *testing.T) {
		_, err := NewPlan(domain.NewPlanID(), 1, schedule("0.10", "0.0123456"), true, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Equal(t, "1", dErrors.DetailsOf(err)["level"])
		assert.Equal(t, "6", dErrors.DetailsOf(err)["max_places"])
	})

	t.Run("accepts six places and trailing zeros", func(t *testing.T) {
		p, err := NewPlan(domain.NewPlanID(), 1, schedule("0.123456", "0.0500000000"), true, now)
		require.NoError(t, err)
		assert.True(t, p.LevelRate(1).Equal(decimal.RequireFromString("0.05")))
	})

	t.Run("rejects an empty schedule", func(t *testing.T) {
		_, err := NewPlan(domain.NewPlanID(), 1, schedule(), true, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestCheckMargin(t *testing.T) {
	p, err := NewPlan(domain.NewPlanID(), 1, schedule("0.50", "0.20", "0.10"), true, time.Now())
	require.NoError(t, err)
	margin := decimal.RequireFromString("0.10")

	require.NoError(t, p.CheckMargin(margin, decimal.NewFromInt(1)))

	err = p.CheckMargin(margin, decimal.RequireFromString("1.15"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	assert.Equal(t, "0.9", dErrors.DetailsOf(err)["ceiling"])
}

func TestCheckEligibility(t *testing.T) {
	sched := schedule("0.1")
	sched.Eligibility = Eligibility{MinPoints: 100, MinTasks: 2, MinSalesVolume: decimal.NewFromInt(500)}
	p, err := NewPlan(domain.NewPlanID(), 1, sched, true, time.Now())
	require.NoError(t, err)

	err = p.CheckEligibility(Standing{Points: 50, CompletedTasks: 5, LifetimeSales: decimal.NewFromInt(900)})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNoneEligible))
	assert.Equal(t, "min_points", dErrors.DetailsOf(err)["unmet"])

	err = p.CheckEligibility(Standing{Points: 150, CompletedTasks: 5, LifetimeSales: decimal.NewFromInt(499)})
	assert.Equal(t, "min_sales_volume", dErrors.DetailsOf(err)["unmet"])

	assert.NoError(t, p.CheckEligibility(Standing{Points: 100, CompletedTasks: 2, LifetimeSales: decimal.NewFromInt(500)}))
}

func TestRevise(t *testing.T) {
	p, err := NewPlan(domain.NewPlanID(), 1, schedule("0.2", "0.05"), false, time.Now())
	require.NoError(t, err)

	next, err := p.Revise(schedule("0.25", "0.05", "0.02"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, p.ID, next.ID)
	assert.Equal(t, 2, next.Version)
	assert.Equal(t, 2, next.MaxDepth)
	assert.False(t, next.Active)
	assert.Equal(t, 1, p.MaxDepth, "previous version untouched")
}

func TestPlanRequestSchedule(t *testing.T) {
	req := &PlanRequest{
		Name:         " Gold ",
		Rates:        []string{"0.20", " 0.06 ", "0.05"},
		CostAmount:   "99.00",
		CostCurrency: "usd",
	}
	req.Normalize()
	sched, err := req.Schedule()
	require.NoError(t, err)
	assert.Equal(t, "Gold", sched.Name)
	assert.Len(t, sched.Rates, 3)
	assert.Equal(t, domain.Currency("USD"), sched.Cost.Currency)

	bad := &PlanRequest{Name: "x", Rates: []string{"abc"}, CostAmount: "1", CostCurrency: "USD"}
	_, err = bad.Schedule()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	tooPrecise := &PlanRequest{Name: "x", Rates: []string{"0.1"}, CostAmount: "1.001", CostCurrency: "USD"}
	_, err = tooPrecise.Schedule()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
