/*
target.go - Target Adjuster

PURPOSE:
  Turns a user's nominal daily target into the credits expected on a given
  day, after accounting for shift length and hours of absence.

FORMULA:
  adjusted_daily_target = (shift_hours * daily_target) / 8
  per_day_target        = round(((shift_hours - absence_hours) * adjusted_daily_target) / shift_hours, 2)

  The daily target is quoted against an 8 hour baseline, so a 6 hour shift
  with a 4 credit target expects 3 credits before any absence.

  For a whole week:
  weekly_target = round(adjusted_daily_target * rostered_days - absence_hours, 2)

EDGE CASES:
  - shift_hours <= 0 is rejected with ErrInvalidShiftHours; nothing divides by it.
  - absence_hours >= shift_hours gives a target <= 0. It is returned as is,
    not clamped to zero.

ROUNDING:
  Two decimal places, half away from zero.
*/
package tracker

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BaselineShiftHours is the shift length daily targets are quoted against.
var BaselineShiftHours = decimal.NewFromInt(8)

// AdjustedDailyTarget normalizes dailyTarget to the user's shift length.
func AdjustedDailyTarget(shiftHours, dailyTarget decimal.Decimal) (decimal.Decimal, error) {
	if !shiftHours.IsPositive() {
		return decimal.Zero, fmt.Errorf("shift hours %s: %w", shiftHours, ErrInvalidShiftHours)
	}
	if dailyTarget.IsNegative() {
		return decimal.Zero, fmt.Errorf("daily target %s: %w", dailyTarget, ErrNegativeValue)
	}
	return shiftHours.Mul(dailyTarget).Div(BaselineShiftHours), nil
}

// PerDayTarget returns the credits expected on a day with absenceHours away.
func PerDayTarget(shiftHours, dailyTarget, absenceHours decimal.Decimal) (decimal.Decimal, error) {
	adjuster, err := NewTargetAdjuster(shiftHours, dailyTarget)
	if err != nil {
		return decimal.Zero, err
	}
	return adjuster.ForDay(absenceHours)
}

// =============================================================================
// TARGET ADJUSTER - Precomputed for one user's settings
// =============================================================================

// TargetAdjuster computes per-day and per-week targets for fixed settings.
type TargetAdjuster struct {
	ShiftHours  decimal.Decimal
	DailyTarget decimal.Decimal
	adjusted    decimal.Decimal
}

func NewTargetAdjuster(shiftHours, dailyTarget decimal.Decimal) (*TargetAdjuster, error) {
	adjusted, err := AdjustedDailyTarget(shiftHours, dailyTarget)
	if err != nil {
		return nil, err
	}
	return &TargetAdjuster{
		ShiftHours:  shiftHours,
		DailyTarget: dailyTarget,
		adjusted:    adjusted,
	}, nil
}

// NewTargetAdjusterForProfile builds an adjuster from a user's ProfileTarget.
func NewTargetAdjusterForProfile(p ProfileTarget) (*TargetAdjuster, error) {
	return NewTargetAdjuster(p.DailyHours, p.DailyTarget)
}

// Adjusted returns the unrounded adjusted daily target.
func (a *TargetAdjuster) Adjusted() decimal.Decimal {
	return a.adjusted
}

// ForDay returns the rounded target for a day with absenceHours away.
func (a *TargetAdjuster) ForDay(absenceHours decimal.Decimal) (decimal.Decimal, error) {
	if absenceHours.IsNegative() {
		return decimal.Zero, fmt.Errorf("absence hours %s: %w", absenceHours, ErrNegativeValue)
	}
	worked := a.ShiftHours.Sub(absenceHours)
	return worked.Mul(a.adjusted).Div(a.ShiftHours).Round(2), nil
}

// ForWeek returns the rounded target for a week with rosteredDays working days
// and absenceHours away in total.
func (a *TargetAdjuster) ForWeek(rosteredDays int, absenceHours decimal.Decimal) decimal.Decimal {
	weekly := a.adjusted.Mul(decimal.NewFromInt(int64(rosteredDays)))
	return weekly.Sub(absenceHours).Round(2)
}
