package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

// idParsers share one parseUUID; they must agree on every input.
var idParsers = map[string]func(string) (string, error){
	"participant": func(s string) (string, error) { id, err := ParseParticipantID(s); return id.String(), err },
	"plan":        func(s string) (string, error) { id, err := ParsePlanID(s); return id.String(), err },
	"sale":        func(s string) (string, error) { id, err := ParseSaleID(s); return id.String(), err },
	"line":        func(s string) (string, error) { id, err := ParseLineID(s); return id.String(), err },
	"payout":      func(s string) (string, error) { id, err := ParsePayoutRequestID(s); return id.String(), err },
}

func FuzzParseIDs(f *testing.F) {
	for _, seed := range []string{
		"",
		"550e8400-e29b-41d4-a716-446655440000",
		"{550e8400-e29b-41d4-a716-446655440000}",
		"00000000-0000-0000-0000-000000000000",
		"sale-2026-0001",
		"550e8400-e29b-41d4-a716-446655440000\x00",
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		var accepted, rejected []string
		for kind, parse := range idParsers {
			canonical, err := parse(input)
			if err != nil {
				rejected = append(rejected, kind)
				continue
			}
			accepted = append(accepted, kind)
			again, err := parse(canonical)
			if err != nil || again != canonical {
				t.Fatalf("%s id %q does not survive a round trip: %q, %v", kind, canonical, again, err)
			}
		}
		if len(accepted) > 0 && len(rejected) > 0 {
			t.Fatalf("input %q accepted as %v but rejected as %v", input, accepted, rejected)
		}
	})
}

func FuzzParseRate(f *testing.F) {
	for _, seed := range []string{"0", "0.10", "1", "1.0001", "-0.01", " 0.05 ", "1e-1", "abc"} {
		f.Add(seed)
	}
	one := decimal.NewFromInt(1)

	f.Fuzz(func(t *testing.T, input string) {
		rate, err := ParseRate(input)
		if err != nil {
			return
		}
		if rate.IsNegative() || rate.GreaterThan(one) {
			t.Fatalf("rate %q parsed outside [0,1]: %s", input, rate)
		}
	})
}
