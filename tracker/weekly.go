/*
weekly.go - Weekly Aggregator

PURPOSE:
  Builds the tracker view: for the week containing "today", one row per
  rostered working day with the credits earned and the credits expected.

ALGORITHM:
  1. Week = Monday..Sunday containing today
  2. Working days = the 7 days minus the user's rostered days off
  3. Credits per working day (0 when nothing was completed)
  4. Absence hours per working day (several absences on a day are summed)
  5. Target per working day via the Target Adjuster
  6. Rows ordered by date ascending, working days only

  Rostered days off produce no row and no target, so a day off is never
  reported as behind target.

SEE ALSO:
  - target.go: per-day target
  - history.go: the same fold over every recorded week
*/
package tracker

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// DaySummary is one row of the weekly tracker.
type DaySummary struct {
	Date    Date
	Target  decimal.Decimal
	Credits decimal.Decimal
	Absence decimal.Decimal
}

func (d DaySummary) Weekday() Weekday { return d.Date.Weekday() }

// Difference is credits minus target; negative means behind.
func (d DaySummary) Difference() decimal.Decimal { return d.Credits.Sub(d.Target) }

// WeekReport is the Weekly Aggregator output.
type WeekReport struct {
	UserID UserID
	Week   Week
	Days   []DaySummary
}

// TotalTarget sums the per-day targets.
func (r *WeekReport) TotalTarget() decimal.Decimal {
	total := decimal.Zero
	for _, d := range r.Days {
		total = total.Add(d.Target)
	}
	return total
}

// TotalCredits sums the per-day credits.
func (r *WeekReport) TotalCredits() decimal.Decimal {
	total := decimal.Zero
	for _, d := range r.Days {
		total = total.Add(d.Credits)
	}
	return total
}

// Difference is total credits minus total target.
func (r *WeekReport) Difference() decimal.Decimal {
	return r.TotalCredits().Sub(r.TotalTarget())
}

// =============================================================================
// WEEKLY AGGREGATOR
// =============================================================================

type WeeklyAggregator struct {
	store RecordStore
}

func NewWeeklyAggregator(store RecordStore) *WeeklyAggregator {
	return &WeeklyAggregator{store: store}
}

// Week returns the report for the week containing today.
func (a *WeeklyAggregator) Week(ctx context.Context, userID UserID, today Date) (*WeekReport, error) {
	profile, adjuster, err := loadProfile(ctx, a.store, userID)
	if err != nil {
		return nil, err
	}

	week := WeekOf(today)
	workingDays := profile.DaysOff.RosteredDays(week.Days())

	creditsByDay, err := a.store.SumCreditsByDay(ctx, userID, workingDays)
	if err != nil {
		return nil, fmt.Errorf("failed to sum credits: %w", err)
	}

	absences, err := a.store.ListAbsences(ctx, userID, week.Start, week.End)
	if err != nil {
		return nil, fmt.Errorf("failed to list absences: %w", err)
	}
	absencesByDay := make(map[Date]decimal.Decimal)
	for _, abs := range absences {
		if profile.DaysOff.Contains(abs.Date.Weekday()) {
			continue
		}
		absencesByDay[abs.Date] = absencesByDay[abs.Date].Add(abs.Duration)
	}

	report := &WeekReport{
		UserID: userID,
		Week:   week,
		Days:   make([]DaySummary, 0, len(workingDays)),
	}
	for _, day := range workingDays {
		absence := absencesByDay[day]
		target, err := adjuster.ForDay(absence)
		if err != nil {
			return nil, fmt.Errorf("target for %s: %w", day, err)
		}
		report.Days = append(report.Days, DaySummary{
			Date:    day,
			Target:  target,
			Credits: creditsByDay[day].Round(2),
			Absence: absence,
		})
	}

	return report, nil
}

// loadProfile fetches the user's settings and fails loudly when they are
// missing or would make the Target Adjuster divide by zero.
func loadProfile(ctx context.Context, store RecordStore, userID UserID) (*ProfileTarget, *TargetAdjuster, error) {
	profile, err := store.GetProfileTarget(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load profile target: %w", err)
	}
	if profile == nil {
		return nil, nil, &ConfigurationError{UserID: userID, Err: ErrProfileNotFound}
	}
	adjuster, err := NewTargetAdjusterForProfile(*profile)
	if err != nil {
		return nil, nil, &ConfigurationError{UserID: userID, Err: err}
	}
	return profile, adjuster, nil
}
