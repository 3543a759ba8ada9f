package pricing

import (
	"math"
	"time"

	"github.com/serviceloop/marketplace-api/pkg/errors"
)

// Business rates. Weekend and holiday premiums are mutually exclusive; the
// weekend check wins when a holiday falls on a weekend.
const (
	WeekendPremiumRate = 0.15
	HolidayPremiumRate = 0.25
	EarlyBirdRate      = 0.10
	CommissionRate     = 0.15

	earlyBirdLeadTime = 7 * 24 * time.Hour
)

// holidays is the fixed yearly table of public holiday dates (month, day).
var holidays = map[[2]int]struct{}{
	{1, 1}:   {},
	{1, 2}:   {},
	{3, 21}:  {},
	{4, 27}:  {},
	{5, 1}:   {},
	{6, 16}:  {},
	{8, 9}:   {},
	{9, 24}:  {},
	{12, 16}: {},
	{12, 25}: {},
	{12, 26}: {},
	{12, 31}: {},
}

// Breakdown is the structured output of a price calculation. Amounts stay
// unrounded internally; Rounded produces the presentation values.
type Breakdown struct {
	DurationHours float64 `json:"duration_hours"`
	BaseAmount    float64 `json:"base_amount"`
	Premium       float64 `json:"premium"`
	Discount      float64 `json:"discount"`
	FinalAmount   float64 `json:"final_amount"`
	Commission    float64 `json:"commission"`
}

// Calculate computes the price breakdown for an hourly rate over an interval.
// It is deterministic and side-effect free: the same inputs always produce
// the same breakdown, so it serves both booking creation and quote previews.
func Calculate(baseRate float64, start, end, now time.Time) (Breakdown, error) {
	if !end.After(start) {
		return Breakdown{}, errors.BusinessRule(errors.CodeInvalidInterval, "end time must be after start time")
	}

	hours := end.Sub(start).Minutes() / 60
	base := baseRate * hours

	var premium float64
	switch {
	case isWeekend(start):
		premium = base * WeekendPremiumRate
	case isHoliday(start):
		premium = base * HolidayPremiumRate
	}

	var discount float64
	if start.Sub(now) >= earlyBirdLeadTime {
		discount = base * EarlyBirdRate
	}

	final := base + premium - discount

	return Breakdown{
		DurationHours: hours,
		BaseAmount:    base,
		Premium:       premium,
		Discount:      discount,
		FinalAmount:   final,
		Commission:    final * CommissionRate,
	}, nil
}

// Rounded returns the breakdown with every amount rounded to two decimal
// places. The final amount and commission are re-derived from the rounded
// components so that final == base + premium - discount holds exactly at
// presentation precision.
func (b Breakdown) Rounded() Breakdown {
	base := round2(b.BaseAmount)
	premium := round2(b.Premium)
	discount := round2(b.Discount)
	final := round2(base + premium - discount)

	return Breakdown{
		DurationHours: b.DurationHours,
		BaseAmount:    base,
		Premium:       premium,
		Discount:      discount,
		FinalAmount:   final,
		Commission:    round2(final * CommissionRate),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func isHoliday(t time.Time) bool {
	_, ok := holidays[[2]int{int(t.Month()), t.Day()}]
	return ok
}
