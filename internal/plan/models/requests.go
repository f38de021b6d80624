package models

import (
	"strings"

	"github.com/shopspring/decimal"

	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
	"ascend/pkg/platform/validation"
)

// PlanRequest is the admin payload for publishing or revising a plan.
// Rates are decimal strings, direct-sale rate first.
type PlanRequest struct {
	Name           string   `json:"name" validate:"required,max=128"`
	Rates          []string `json:"rates" validate:"required,min=1,max=7,dive,required"`
	MinPoints      int64    `json:"min_points" validate:"gte=0"`
	MinTasks       int64    `json:"min_tasks" validate:"gte=0"`
	MinSalesVolume string   `json:"min_sales_volume"`
	CostAmount     string   `json:"cost_amount" validate:"required"`
	CostCurrency   string   `json:"cost_currency" validate:"required,len=3"`
}

func (r *PlanRequest) Normalize() {
	if r == nil {
		return
	}
	r.Name = strings.TrimSpace(r.Name)
	r.CostCurrency = strings.ToUpper(strings.TrimSpace(r.CostCurrency))
	r.MinSalesVolume = strings.TrimSpace(r.MinSalesVolume)
	for i := range r.Rates {
		r.Rates[i] = strings.TrimSpace(r.Rates[i])
	}
}

// Schedule validates the payload and converts it to a Schedule.
func (r *PlanRequest) Schedule() (Schedule, error) {
	if r == nil {
		return Schedule{}, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validation.Struct(r); err != nil {
		return Schedule{}, err
	}

	rates := make([]decimal.Decimal, len(r.Rates))
	for i, raw := range r.Rates {
		rate, err := domain.ParseRate(raw)
		if err != nil {
			return Schedule{}, err
		}
		rates[i] = rate
	}

	minSales := decimal.Zero
	if r.MinSalesVolume != "" {
		v, err := domain.ParseAmount(r.MinSalesVolume)
		if err != nil {
			return Schedule{}, err
		}
		minSales = v
	}

	currency, err := domain.ParseCurrency(r.CostCurrency)
	if err != nil {
		return Schedule{}, err
	}
	amount, err := domain.ParseAmount(r.CostAmount)
	if err != nil {
		return Schedule{}, err
	}
	cost, err := domain.NewMoney(amount, currency)
	if err != nil {
		return Schedule{}, err
	}

	return Schedule{
		Name:  r.Name,
		Rates: rates,
		Eligibility: Eligibility{
			MinPoints:      r.MinPoints,
			MinTasks:       r.MinTasks,
			MinSalesVolume: minSales,
		},
		Cost: cost,
	}, nil
}

// PurchaseRequest activates a plan for a participant.
type PurchaseRequest struct {
	PlanID              string `json:"plan_id" validate:"required,uuid"`
	PaymentConfirmation string `json:"payment_confirmation" validate:"required,max=256"`
}

func (r *PurchaseRequest) Normalize() {
	r.PlanID = strings.TrimSpace(r.PlanID)
	r.PaymentConfirmation = strings.TrimSpace(r.PaymentConfirmation)
}

func (r *PurchaseRequest) Validate() error {
	return validation.Struct(r)
}

// ActiveRequest toggles whether a plan is offered for sale.
type ActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

func (r *ActiveRequest) Validate() error {
	return validation.Struct(r)
}

// PlanView is the JSON shape of a plan version.
type PlanView struct {
	*Plan
	Rates     []decimal.Decimal `json:"rates"`
	TotalRate decimal.Decimal   `json:"total_rate"`
}

func NewPlanView(p *Plan) PlanView {
	return PlanView{Plan: p, Rates: p.RateVector(), TotalRate: p.TotalRate()}
}
