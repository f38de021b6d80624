package commission

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cucumber/godog"
)

// TestContext defines the methods needed from the main test context.
type TestContext interface {
	AdminPOST(path string, body any) error
	GETAs(alias, path string) error
	StatusCode() int
	DecodeResponse(dst any) error
	Participant(alias string) (string, error)
}

// RegisterSteps registers sale and ledger step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commissionSteps{tc: tc}

	ctx.Step(`^the admin records a sale of "([^"]*)" "([^"]*)" by "([^"]*)"$`, steps.recordSale)
	ctx.Step(`^"([^"]*)" has "([^"]*)" in commissions at level (\d+)$`, steps.hasCommissionAtLevel)
	ctx.Step(`^"([^"]*)" has no commissions$`, steps.hasNoCommissions)
	ctx.Step(`^"([^"]*)" cannot read the commissions of "([^"]*)"$`, steps.cannotReadOthers)
}

type commissionSteps struct {
	tc TestContext
}

type lineList struct {
	Lines []struct {
		Level  int    `json:"level"`
		Amount string `json:"amount"`
	} `json:"lines"`
}

func (s *commissionSteps) recordSale(_ context.Context, amount, currency, seller string) error {
	id, err := s.tc.Participant(seller)
	if err != nil {
		return err
	}
	err = s.tc.AdminPOST("/sales", map[string]any{
		"seller_id": id,
		"amount":    amount,
		"currency":  currency,
	})
	if err != nil {
		return err
	}
	// 202 means the sale consumer computes the lines; the ledger steps poll.
	if got := s.tc.StatusCode(); got != 201 && got != 202 {
		return fmt.Errorf("expected 201 or 202 recording the sale, got %d", got)
	}
	return nil
}

// lines polls the participant's ledger until want(lines) holds or the
// deadline passes, since computation may run on the consumer.
func (s *commissionSteps) lines(alias, query string, want func(lineList) bool) (lineList, error) {
	id, err := s.tc.Participant(alias)
	if err != nil {
		return lineList{}, err
	}
	var got lineList
	deadline := time.Now().Add(10 * time.Second)
	for {
		if err := s.tc.GETAs(alias, "/participants/"+id+"/commissions"+query); err != nil {
			return got, err
		}
		if s.tc.StatusCode() != 200 {
			return got, fmt.Errorf("listing commissions returned %d", s.tc.StatusCode())
		}
		got = lineList{}
		if err := s.tc.DecodeResponse(&got); err != nil {
			return got, err
		}
		if want(got) || time.Now().After(deadline) {
			return got, nil
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func total(l lineList) (float64, error) {
	var sum float64
	for _, line := range l.Lines {
		v, err := strconv.ParseFloat(line.Amount, 64)
		if err != nil {
			return 0, fmt.Errorf("amount %q: %w", line.Amount, err)
		}
		sum += v
	}
	return sum, nil
}

func (s *commissionSteps) hasCommissionAtLevel(_ context.Context, alias, amount string, level int) error {
	want, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return err
	}
	got, err := s.lines(alias, "?level="+strconv.Itoa(level), func(l lineList) bool { return len(l.Lines) > 0 })
	if err != nil {
		return err
	}
	sum, err := total(got)
	if err != nil {
		return err
	}
	if fmt.Sprintf("%.2f", sum) != fmt.Sprintf("%.2f", want) {
		return fmt.Errorf("expected %s at level %d for %s, got %.2f", amount, level, alias, sum)
	}
	return nil
}

func (s *commissionSteps) hasNoCommissions(_ context.Context, alias string) error {
	got, err := s.lines(alias, "", func(lineList) bool { return true })
	if err != nil {
		return err
	}
	if len(got.Lines) != 0 {
		return fmt.Errorf("expected no commissions for %s, got %d lines", alias, len(got.Lines))
	}
	return nil
}

func (s *commissionSteps) cannotReadOthers(_ context.Context, alias, other string) error {
	id, err := s.tc.Participant(other)
	if err != nil {
		return err
	}
	if err := s.tc.GETAs(alias, "/participants/"+id+"/commissions"); err != nil {
		return err
	}
	if got := s.tc.StatusCode(); got != 403 {
		return fmt.Errorf("expected 403, got %d", got)
	}
	return nil
}
