/*
store.go - Read interface between the aggregators and the database

PURPOSE:
  Defines the queries the Weekly and History Aggregators run. The
  aggregators never see SQL; they only consume this interface.

KEY INTERFACES:
  RecordStore: ProfileTarget lookup plus credit/absence sums

CONTRACT:
  - Every method is scoped to one user.
  - Empty results are not errors: sums default to zero, lists are empty.
  - GetProfileTarget returns (nil, nil) when the user has none; the
    aggregators turn that into a ConfigurationError.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - tracker/store/memory.go: In-memory for testing

SEE ALSO:
  - weekly.go, history.go: consumers
*/
package tracker

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RECORD STORE - Interface for the aggregation queries
// =============================================================================

type RecordStore interface {
	// GetProfileTarget returns the user's settings, or nil if none exist.
	GetProfileTarget(ctx context.Context, userID UserID) (*ProfileTarget, error)

	// SumCreditsByDay sums job credits per completion day for the given days.
	// Days without completions may be absent from the map.
	SumCreditsByDay(ctx context.Context, userID UserID, days []Date) (map[Date]decimal.Decimal, error)

	// ListAbsences returns absences dated within [from, to].
	ListAbsences(ctx context.Context, userID UserID, from, to Date) ([]Absence, error)

	// SumCreditsByWeek sums job credits per Monday week start, most recent first.
	// Only weeks with at least one completed job are returned.
	SumCreditsByWeek(ctx context.Context, userID UserID) ([]WeekTotal, error)

	// SumAbsenceByWeek sums absence hours per Monday week start.
	SumAbsenceByWeek(ctx context.Context, userID UserID) (map[Date]decimal.Decimal, error)

	// ListCompletedJobNames returns completions within [from, to], ordered by
	// week start descending, then day ascending, then insertion order.
	// A nil bound is open.
	ListCompletedJobNames(ctx context.Context, userID UserID, from, to *Date) ([]JobCompletion, error)
}
