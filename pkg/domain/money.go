package domain

import (
	"strings"

	"github.com/shopspring/decimal"

	dErrors "ascend/pkg/domain-errors"
)

// Currency is an ISO-4217 alphabetic code.
type Currency string

// minorUnits lists currencies whose minor unit differs from two decimal places
// or that we want to accept explicitly. Unknown but well-formed codes default
// to two places.
var minorUnits = map[Currency]int32{
	"USD": 2,
	"EUR": 2,
	"GBP": 2,
	"AED": 2,
	"LBP": 2,
	"INR": 2,
	"NGN": 2,
	"JPY": 0,
	"KRW": 0,
	"VND": 0,
	"BHD": 3,
	"KWD": 3,
	"JOD": 3,
	"OMR": 3,
	"TND": 3,
}

// ParseCurrency normalizes and validates a currency code.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if len(c) != 3 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "currency must be a 3-letter ISO code").
			WithDetail("currency", s)
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return "", dErrors.New(dErrors.CodeInvalidInput, "currency must be a 3-letter ISO code").
				WithDetail("currency", s)
		}
	}
	return c, nil
}

// MinorUnits returns the number of decimal places of the currency's minor unit.
func (c Currency) MinorUnits() int32 {
	if places, ok := minorUnits[c]; ok {
		return places
	}
	return 2
}

// MinorUnit returns the value of one minor unit, e.g. 0.01 for USD.
func (c Currency) MinorUnit() decimal.Decimal {
	return decimal.New(1, -c.MinorUnits())
}

// Round rounds an amount to the currency's minor unit using round-half-to-even.
// Amounts are carried at full precision everywhere else; rounding happens only
// when a value is persisted.
func (c Currency) Round(amount decimal.Decimal) decimal.Decimal {
	return amount.RoundBank(c.MinorUnits())
}

func (c Currency) String() string { return string(c) }

// Money is an amount in a currency.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency Currency        `json:"currency"`
}

// NewMoney validates that amount is non-negative and representable in the
// currency's minor unit.
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if amount.IsNegative() {
		return Money{}, dErrors.New(dErrors.CodeInvalidInput, "amount must not be negative").
			WithDetail("amount", amount.String())
	}
	if !currency.Round(amount).Equal(amount) {
		return Money{}, dErrors.New(dErrors.CodeInvalidInput, "amount has more precision than the currency allows").
			WithDetail("amount", amount.String()).
			WithDetail("currency", currency.String())
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// ParseAmount parses a decimal string such as "1000.00".
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, dErrors.New(dErrors.CodeInvalidInput, "invalid amount").WithDetail("amount", s)
	}
	return d, nil
}

// ParseRate parses a fraction in [0,1].
func ParseRate(s string) (decimal.Decimal, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, dErrors.New(dErrors.CodeInvalidInput, "rate must be within [0,1]").WithDetail("rate", s)
	}
	return d, nil
}

func (m Money) IsZero() bool { return m.Amount.IsZero() }

func (m Money) String() string {
	return m.Amount.StringFixedBank(m.Currency.MinorUnits()) + " " + m.Currency.String()
}
