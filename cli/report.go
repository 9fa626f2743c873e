/*
report.go - Terminal reports

PURPOSE:
  Prints the Weekly Aggregator and History Aggregator results as tables,
  the same figures the /api/tracker and /api/week-history endpoints return.
  Surplus figures are green and deficits red.

COMMANDS:
  report week --username U [--date YYYY-MM-DD]
  report history --username U

SEE ALSO:
  - tracker/weekly.go: Weekly Aggregator
  - tracker/history.go: History Aggregator
*/
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/warp/job-tracker/store/sqlite"
	"github.com/warp/job-tracker/tracker"
)

func newReportCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print weekly and history reports",
	}
	cmd.PersistentFlags().String("username", "", "Account to report on")
	_ = cmd.MarkPersistentFlagRequired("username")

	week := &cobra.Command{
		Use:   "week",
		Short: "Per-day targets and credits for one week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			username, _ := cmd.Flags().GetString("username")
			day := tracker.Today()
			if raw, _ := cmd.Flags().GetString("date"); raw != "" {
				parsed, err := tracker.ParseDate(raw)
				if err != nil {
					return err
				}
				day = parsed
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			user, err := lookupUser(cmd.Context(), store, username)
			if err != nil {
				return err
			}
			report, err := tracker.NewWeeklyAggregator(store).Week(cmd.Context(), user.ID, day)
			if err != nil {
				return err
			}
			return printWeekReport(cmd.OutOrStdout(), report)
		},
	}
	week.Flags().String("date", "", "Any day of the week to report, default today")

	history := &cobra.Command{
		Use:   "history",
		Short: "Weekly totals and the running balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			username, _ := cmd.Flags().GetString("username")

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			user, err := lookupUser(cmd.Context(), store, username)
			if err != nil {
				return err
			}
			h, err := tracker.NewHistoryAggregator(store).History(cmd.Context(), user.ID)
			if err != nil {
				return err
			}
			return printHistory(cmd.OutOrStdout(), h)
		},
	}

	cmd.AddCommand(week, history)
	return cmd
}

func lookupUser(ctx context.Context, store *sqlite.Store, username string) (*tracker.User, error) {
	user, err := store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %q: %w", username, tracker.ErrNotFound)
	}
	return user, nil
}

// signed renders d with an explicit sign, green when on or above target.
func signed(d decimal.Decimal) string {
	red := color.New(color.FgRed).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	if d.IsNegative() {
		return red(d.StringFixed(2))
	}
	return green("+" + d.StringFixed(2))
}

func printWeekReport(w io.Writer, r *tracker.WeekReport) error {
	if _, err := fmt.Fprintf(w, "Week %s\n", r.Week); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Day", "Target", "Credits", "Absence", "Difference"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(r.Days)+1)
	for _, d := range r.Days {
		data = append(data, []string{
			d.Date.Label(),
			d.Target.StringFixed(2),
			d.Credits.StringFixed(2),
			d.Absence.StringFixed(2),
			signed(d.Difference()),
		})
	}
	data = append(data, []string{
		"Total",
		r.TotalTarget().StringFixed(2),
		r.TotalCredits().StringFixed(2),
		"",
		signed(r.Difference()),
	})
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func printHistory(w io.Writer, h *tracker.History) error {
	if len(h.Weeks) == 0 {
		_, err := fmt.Fprintln(w, "No completed jobs recorded")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Week", "Credits", "Absence", "Target", "Update"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(h.Weeks))
	for _, s := range h.Weeks {
		data = append(data, []string{
			s.Week.Start.String(),
			s.TotalCredits.StringFixed(2),
			s.TotalAbsence.StringFixed(2),
			s.Target.StringFixed(2),
			signed(s.Update),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Balance: %s\n", signed(h.Balance())); err != nil {
		return err
	}

	if len(h.JobsByWeekday) == 0 {
		return nil
	}
	jobs := tablewriter.NewWriter(w)
	jobs.Header([]string{"Weekday", "Jobs"})
	rows := make([][]string, 0, len(h.JobsByWeekday))
	for _, d := range h.JobsByWeekday {
		rows = append(rows, []string{d.Weekday.Name(), strings.Join(d.Jobs, ", ")})
	}
	if err := jobs.Bulk(rows); err != nil {
		return err
	}
	return jobs.Render()
}
