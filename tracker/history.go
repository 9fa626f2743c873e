/*
history.go - History Aggregator

PURPOSE:
  Builds the week history view: one summary per week that has at least
  one completed job, most recent first, plus an index of every job name
  ever completed on each weekday.

ALGORITHM (per week):
  rostered_days = the 7 days minus rostered days off
  weekly_target = adjusted_daily_target * len(rostered_days)
  target        = round(weekly_target - total_absence, 2)
  update        = round(total_credits - target, 2)   // surplus (+) or deficit (-)
  jobs_by_day   = weekday -> job names, one entry per rostered day (possibly empty)

  Weeks with absences but no completed jobs are not listed.
  Completions on a rostered day off count toward total_credits but are not
  listed in jobs_by_day.

  All completions are loaded in one query and bucketed in memory, so the
  cost is independent of the number of weeks.

SEE ALSO:
  - weekly.go: the current-week view
  - target.go: TargetAdjuster.ForWeek
*/
package tracker

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// DayJobs lists the job names completed on one weekday.
type DayJobs struct {
	Weekday Weekday
	Jobs    []string
}

// WeekSummary is one week of the History Aggregator output.
type WeekSummary struct {
	Week         Week
	TotalCredits decimal.Decimal
	TotalAbsence decimal.Decimal
	Target       decimal.Decimal
	Update       decimal.Decimal
	RosteredDays []Date
	JobsByDay    []DayJobs
}

// Days returns all seven days of the week.
func (w WeekSummary) Days() []Date { return w.Week.Days() }

// AheadOfTarget reports a surplus or an exact hit.
func (w WeekSummary) AheadOfTarget() bool { return !w.Update.IsNegative() }

// History is the History Aggregator output.
type History struct {
	UserID UserID
	Weeks  []WeekSummary

	// JobsByWeekday indexes every job name ever completed, by weekday,
	// Monday first; weekdays without completions are omitted.
	JobsByWeekday []DayJobs
}

// =============================================================================
// HISTORY AGGREGATOR
// =============================================================================

type HistoryAggregator struct {
	store RecordStore
}

func NewHistoryAggregator(store RecordStore) *HistoryAggregator {
	return &HistoryAggregator{store: store}
}

// History summarizes every week the user has completed jobs in.
func (a *HistoryAggregator) History(ctx context.Context, userID UserID) (*History, error) {
	profile, adjuster, err := loadProfile(ctx, a.store, userID)
	if err != nil {
		return nil, err
	}

	weekTotals, err := a.store.SumCreditsByWeek(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum credits by week: %w", err)
	}

	absenceByWeek, err := a.store.SumAbsenceByWeek(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum absences by week: %w", err)
	}

	completions, err := a.store.ListCompletedJobNames(ctx, userID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed jobs: %w", err)
	}

	// Bucket job names by week and weekday, and build the global index.
	perWeek := make(map[Date]map[Weekday][]string)
	var global [7][]string
	for _, c := range completions {
		start := c.Date.StartOfWeek()
		wd := c.Date.Weekday()
		if perWeek[start] == nil {
			perWeek[start] = make(map[Weekday][]string)
		}
		perWeek[start][wd] = append(perWeek[start][wd], c.JobName)
		global[wd] = append(global[wd], c.JobName)
	}

	history := &History{
		UserID: userID,
		Weeks:  make([]WeekSummary, 0, len(weekTotals)),
	}

	seen := make(map[Date]bool, len(weekTotals))
	for _, total := range weekTotals {
		if seen[total.WeekStart] {
			continue
		}
		seen[total.WeekStart] = true

		week := WeekOf(total.WeekStart)
		absence := absenceByWeek[week.Start]
		rostered := profile.DaysOff.RosteredDays(week.Days())
		target := adjuster.ForWeek(len(rostered), absence)

		jobsByDay := make([]DayJobs, 0, len(rostered))
		for _, day := range rostered {
			jobs := perWeek[week.Start][day.Weekday()]
			if jobs == nil {
				jobs = []string{}
			}
			jobsByDay = append(jobsByDay, DayJobs{Weekday: day.Weekday(), Jobs: jobs})
		}

		history.Weeks = append(history.Weeks, WeekSummary{
			Week:         week,
			TotalCredits: total.Credits.Round(2),
			TotalAbsence: absence.Round(2),
			Target:       target,
			Update:       total.Credits.Sub(target).Round(2),
			RosteredDays: rostered,
			JobsByDay:    jobsByDay,
		})
	}

	for _, wd := range AllWeekdays() {
		if len(global[wd]) > 0 {
			history.JobsByWeekday = append(history.JobsByWeekday, DayJobs{Weekday: wd, Jobs: global[wd]})
		}
	}

	return history, nil
}

// Balance sums the weekly updates: the running surplus or deficit.
func (h *History) Balance() decimal.Decimal {
	total := decimal.Zero
	for _, w := range h.Weeks {
		total = total.Add(w.Update)
	}
	return total
}
