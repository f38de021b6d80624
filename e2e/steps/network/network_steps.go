package network

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cucumber/godog"
)

// TestContext defines the methods needed from the main test context.
type TestContext interface {
	AdminPOST(path string, body any) error
	POST(path string, body any) error
	POSTAs(alias, path string, body any) error
	StatusCode() int
	DecodeResponse(dst any) error
	Participant(alias string) (string, error)
	SetParticipant(alias, id string)
	Plan(name string) (string, error)
	SetPlan(name, id string)
}

// RegisterSteps registers network and plan step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &networkSteps{tc: tc, codes: map[string]string{}, run: time.Now().UnixNano()}

	ctx.Step(`^the admin publishes plan "([^"]*)" with rates "([^"]*)"$`, steps.publishPlan)
	ctx.Step(`^participant "([^"]*)" registers$`, steps.register)
	ctx.Step(`^participant "([^"]*)" registers with the referral code of "([^"]*)"$`, steps.registerReferred)
	ctx.Step(`^"([^"]*)" buys plan "([^"]*)"$`, steps.buyPlan)
}

// networkSteps remembers referral codes by alias. Emails carry the run
// stamp so scenarios can be replayed against the same database.
type networkSteps struct {
	tc    TestContext
	codes map[string]string
	run   int64
}

type created struct {
	ID           string `json:"id"`
	ReferralCode string `json:"referral_code"`
}

func (s *networkSteps) expect(status int) error {
	if got := s.tc.StatusCode(); got != status {
		return fmt.Errorf("expected status %d, got %d", status, got)
	}
	return nil
}

func (s *networkSteps) publishPlan(_ context.Context, name, rates string) error {
	err := s.tc.AdminPOST("/plans", map[string]any{
		"name":          name,
		"rates":         strings.Split(rates, ","),
		"cost_amount":   "25.00",
		"cost_currency": "USD",
	})
	if err != nil {
		return err
	}
	if err := s.expect(201); err != nil {
		return err
	}
	var plan created
	if err := s.tc.DecodeResponse(&plan); err != nil {
		return err
	}
	s.tc.SetPlan(name, plan.ID)
	return nil
}

func (s *networkSteps) register(_ context.Context, alias string) error {
	return s.registerWith(alias, "")
}

func (s *networkSteps) registerReferred(_ context.Context, alias, upline string) error {
	if _, err := s.tc.Participant(upline); err != nil {
		return err
	}
	return s.registerWith(alias, s.codes[upline])
}

func (s *networkSteps) registerWith(alias, code string) error {
	err := s.tc.POST("/participants", map[string]any{
		"email":          fmt.Sprintf("%s-%d@e2e.example.com", strings.ToLower(alias), s.run),
		"display_name":   alias,
		"payout_account": "acct-" + alias,
		"referral_code":  code,
	})
	if err != nil {
		return err
	}
	if err := s.expect(201); err != nil {
		return err
	}
	var p created
	if err := s.tc.DecodeResponse(&p); err != nil {
		return err
	}
	s.tc.SetParticipant(alias, p.ID)
	s.codes[alias] = p.ReferralCode
	return nil
}

func (s *networkSteps) buyPlan(_ context.Context, alias, plan string) error {
	id, err := s.tc.Participant(alias)
	if err != nil {
		return err
	}
	planID, err := s.tc.Plan(plan)
	if err != nil {
		return err
	}
	err = s.tc.POSTAs(alias, "/participants/"+id+"/plan", map[string]any{
		"plan_id":              planID,
		"payment_confirmation": "e2e-" + alias,
	})
	if err != nil {
		return err
	}
	return s.expect(201)
}
