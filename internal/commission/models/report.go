package models

import (
	"time"

	"github.com/shopspring/decimal"

	dErrors "ascend/pkg/domain-errors"
)

// Period is a half-open time window [From, To). A zero bound is unbounded.
type Period struct {
	From time.Time `json:"from,omitempty"`
	To   time.Time `json:"to,omitempty"`
}

func (p Period) Contains(t time.Time) bool {
	if !p.From.IsZero() && t.Before(p.From) {
		return false
	}
	if !p.To.IsZero() && !t.Before(p.To) {
		return false
	}
	return true
}

func (p Period) Validate() error {
	if !p.From.IsZero() && !p.To.IsZero() && !p.From.Before(p.To) {
		return dErrors.New(dErrors.CodeValidation, "period start must be before its end").
			WithDetail("from", p.From.Format(time.RFC3339)).
			WithDetail("to", p.To.Format(time.RFC3339))
	}
	return nil
}

// Granularity is the bucket width of a period report.
type Granularity string

const (
	Daily   Granularity = "day"
	Monthly Granularity = "month"
)

func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case "", Daily:
		return Daily, nil
	case Monthly:
		return Monthly, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "granularity must be day or month").WithDetail("granularity", s)
}

// Truncate returns the start of the UTC bucket containing t.
func (g Granularity) Truncate(t time.Time) time.Time {
	t = t.UTC()
	if g == Monthly {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// LevelTotal aggregates a payee's lines at one level.
type LevelTotal struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// Bucket aggregates a payee's lines created within one period bucket.
type Bucket struct {
	Start time.Time       `json:"start"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// LineFilter narrows a ledger listing. Zero values match everything.
type LineFilter struct {
	Status   LineStatus
	Level    *int
	Period   Period
	Currency string
	Limit    int
	Offset   int
}

// Matches reports whether l passes the filter, ignoring paging.
func (f LineFilter) Matches(l *Line) bool {
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	if f.Level != nil && l.Level != *f.Level {
		return false
	}
	if f.Currency != "" && string(l.Currency) != f.Currency {
		return false
	}
	return f.Period.Contains(l.CreatedAt)
}
