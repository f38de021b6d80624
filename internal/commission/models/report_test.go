package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "ascend/pkg/domain-errors"
)

func ledgerLine(level int, amount string, status LineStatus, created time.Time) *Line {
	return &Line{Level: level, Amount: dec(amount), Currency: "USD", Status: status, CreatedAt: created}
}

func TestAggregates(t *testing.T) {
	jan := time.Date(2026, 1, 10, 15, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC)
	lines := []*Line{
		ledgerLine(0, "20.00", LinePaid, jan),
		ledgerLine(1, "6.00", LineApproved, jan),
		ledgerLine(1, "4.00", LinePending, feb),
		ledgerLine(2, "5.00", LineCancelled, feb),
	}

	t.Run("by level skips cancelled lines", func(t *testing.T) {
		byLevel := SumByLevel(lines)
		assert.Len(t, byLevel, 2)
		assert.Equal(t, 2, byLevel[1].Count)
		assert.True(t, byLevel[1].Total.Equal(dec("10.00")))
	})

	t.Run("by status lists every status", func(t *testing.T) {
		byStatus := SumByStatus(lines)
		require.Len(t, byStatus, 4)
		assert.True(t, byStatus[LineCancelled].Equal(dec("5")))
		assert.True(t, byStatus[LinePaid].Equal(dec("20")))
	})

	t.Run("by month orders buckets", func(t *testing.T) {
		buckets := SumByBucket(lines, Monthly)
		require.Len(t, buckets, 2)
		assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), buckets[0].Start)
		assert.True(t, buckets[0].Total.Equal(dec("26")))
		assert.Equal(t, 1, buckets[1].Count)
	})
}

func TestPeriod(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	p := Period{From: from, To: to}

	assert.True(t, p.Contains(from))
	assert.False(t, p.Contains(to))
	assert.True(t, Period{}.Contains(to))
	assert.NoError(t, p.Validate())
	assert.True(t, dErrors.HasCode(Period{From: to, To: from}.Validate(), dErrors.CodeValidation))
}

func TestParseGranularity(t *testing.T) {
	g, err := ParseGranularity("")
	require.NoError(t, err)
	assert.Equal(t, Daily, g)

	g, err = ParseGranularity("month")
	require.NoError(t, err)
	assert.Equal(t, Monthly, g)

	_, err = ParseGranularity("week")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestLineFilter(t *testing.T) {
	level := 1
	l := ledgerLine(1, "3", LineApproved, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))

	assert.True(t, LineFilter{}.Matches(l))
	assert.True(t, LineFilter{Status: LineApproved, Level: &level, Currency: "USD"}.Matches(l))
	assert.False(t, LineFilter{Status: LinePaid}.Matches(l))
	assert.False(t, LineFilter{Currency: "EUR"}.Matches(l))
	assert.False(t, LineFilter{Period: Period{From: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)}}.Matches(l))
}
