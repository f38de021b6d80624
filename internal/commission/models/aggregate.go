package models

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// SumByLevel groups non-cancelled lines by level.
func SumByLevel(lines []*Line) map[int]LevelTotal {
	out := make(map[int]LevelTotal)
	for _, l := range lines {
		if l.Status == LineCancelled {
			continue
		}
		t := out[l.Level]
		t.Count++
		t.Total = t.Total.Add(l.Amount)
		out[l.Level] = t
	}
	return out
}

// SumByStatus totals lines per status. Every status is present.
func SumByStatus(lines []*Line) map[LineStatus]decimal.Decimal {
	out := make(map[LineStatus]decimal.Decimal, 4)
	for _, s := range Statuses() {
		out[s] = decimal.Zero
	}
	for _, l := range lines {
		out[l.Status] = out[l.Status].Add(l.Amount)
	}
	return out
}

// SumByBucket groups non-cancelled lines by creation bucket, oldest first.
func SumByBucket(lines []*Line, g Granularity) []Bucket {
	byStart := make(map[time.Time]*Bucket)
	for _, l := range lines {
		if l.Status == LineCancelled {
			continue
		}
		start := g.Truncate(l.CreatedAt)
		b, ok := byStart[start]
		if !ok {
			b = &Bucket{Start: start, Total: decimal.Zero}
			byStart[start] = b
		}
		b.Count++
		b.Total = b.Total.Add(l.Amount)
	}
	out := make([]Bucket, 0, len(byStart))
	for _, b := range byStart {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}
