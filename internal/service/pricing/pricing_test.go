package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serviceloop/marketplace-api/pkg/errors"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts
}

func TestCalculateWeekdaySameDay(t *testing.T) {
	// Monday 09:00-11:00, booked same day: no premium, no discount.
	start := mustTime(t, "2025-07-14T09:00:00Z")
	end := mustTime(t, "2025-07-14T11:00:00Z")
	now := mustTime(t, "2025-07-14T07:00:00Z")

	b, err := Calculate(25.00, start, end, now)
	require.NoError(t, err)

	assert.Equal(t, 2.0, b.DurationHours)
	assert.Equal(t, 50.00, b.BaseAmount)
	assert.Equal(t, 0.0, b.Premium)
	assert.Equal(t, 0.0, b.Discount)
	assert.Equal(t, 50.00, b.FinalAmount)
	assert.Equal(t, 7.50, b.Commission)
}

func TestCalculateWeekendEarlyBird(t *testing.T) {
	// Saturday 09:00-13:00 booked 10 days ahead: weekend premium plus
	// early-bird discount compose additively.
	start := mustTime(t, "2025-07-19T09:00:00Z")
	end := mustTime(t, "2025-07-19T13:00:00Z")
	now := mustTime(t, "2025-07-09T09:00:00Z")

	b, err := Calculate(30.00, start, end, now)
	require.NoError(t, err)

	assert.Equal(t, 120.00, b.BaseAmount)
	assert.InDelta(t, 18.00, b.Premium, 1e-9)
	assert.InDelta(t, 12.00, b.Discount, 1e-9)
	assert.InDelta(t, 126.00, b.FinalAmount, 1e-9)
	assert.InDelta(t, 18.90, b.Commission, 1e-9)
}

func TestCalculateHolidayPremium(t *testing.T) {
	// 2025-12-25 is a Thursday, so the holiday rate applies.
	start := mustTime(t, "2025-12-25T10:00:00Z")
	end := mustTime(t, "2025-12-25T12:00:00Z")
	now := mustTime(t, "2025-12-24T10:00:00Z")

	b, err := Calculate(20.00, start, end, now)
	require.NoError(t, err)

	assert.Equal(t, 40.00, b.BaseAmount)
	assert.InDelta(t, 10.00, b.Premium, 1e-9)
	assert.Equal(t, 0.0, b.Discount)
}

func TestWeekendWinsOverHoliday(t *testing.T) {
	// 2026-12-26 is a Saturday and a listed holiday; the weekend rate wins.
	start := mustTime(t, "2026-12-26T10:00:00Z")
	end := mustTime(t, "2026-12-26T12:00:00Z")
	now := mustTime(t, "2026-12-25T10:00:00Z")

	b, err := Calculate(100.00, start, end, now)
	require.NoError(t, err)

	assert.InDelta(t, 200.00*WeekendPremiumRate, b.Premium, 1e-9)
}

func TestCalculateInvalidInterval(t *testing.T) {
	start := mustTime(t, "2025-07-14T11:00:00Z")
	now := mustTime(t, "2025-07-14T07:00:00Z")

	for _, end := range []time.Time{start, start.Add(-time.Hour)} {
		_, err := Calculate(25.00, start, end, now)
		require.Error(t, err)
		appErr, ok := errors.As(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeInvalidInterval, appErr.Code)
		assert.Equal(t, errors.KindBusinessRule, appErr.Kind)
	}
}

func TestCalculateDeterministicIdentity(t *testing.T) {
	start := mustTime(t, "2025-08-02T08:30:00Z")
	end := mustTime(t, "2025-08-02T12:00:00Z")
	now := mustTime(t, "2025-07-20T00:00:00Z")

	first, err := Calculate(42.50, start, end, now)
	require.NoError(t, err)
	second, err := Calculate(42.50, start, end, now)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.InDelta(t, first.BaseAmount+first.Premium-first.Discount, first.FinalAmount, 1e-9)
	assert.InDelta(t, first.FinalAmount*CommissionRate, first.Commission, 1e-9)
}

func TestRoundedPreservesAdditiveIdentity(t *testing.T) {
	// Saturday, 1.5h at an awkward rate: base and premium both land on a
	// half cent, so a final rounded independently of the components would
	// come out a cent short of their sum.
	start := mustTime(t, "2025-07-19T09:00:00Z")
	end := mustTime(t, "2025-07-19T10:30:00Z")
	now := mustTime(t, "2025-07-18T09:00:00Z")

	b, err := Calculate(33.33, start, end, now)
	require.NoError(t, err)
	r := b.Rounded()

	assert.Equal(t, 50.00, r.BaseAmount)
	assert.Equal(t, 7.50, r.Premium)
	assert.Equal(t, 0.0, r.Discount)
	assert.Equal(t, 57.50, r.FinalAmount)
	assert.InDelta(t, r.BaseAmount+r.Premium-r.Discount, r.FinalAmount, 1e-9)
	assert.InDelta(t, r.FinalAmount*CommissionRate, r.Commission, 0.005)
}

func TestRounded(t *testing.T) {
	b := Breakdown{
		BaseAmount:  33.333333,
		Premium:     4.999999,
		Discount:    3.333333,
		FinalAmount: 34.999999,
		Commission:  5.2499999,
	}
	r := b.Rounded()

	assert.Equal(t, 33.33, r.BaseAmount)
	assert.Equal(t, 5.00, r.Premium)
	assert.Equal(t, 3.33, r.Discount)
	assert.Equal(t, 35.00, r.FinalAmount)
	assert.Equal(t, 5.25, r.Commission)
}
