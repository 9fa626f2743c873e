/*
Package tracker provides the job credit tracking core.

PURPOSE:
  Users log completed jobs (each worth a number of credits) and record
  absences in hours. This package folds those records against a per-user
  daily target to show whether the user is ahead of or behind the output
  expected of them, for the current week and for every week on record.

KEY CONCEPTS IN THIS FILE (types.go):
  - JobType: reference data, a named task worth a fixed number of credits
  - CompletedJob: one completion of a JobType by a user on a date
  - Absence: hours a user was away on a date
  - ProfileTarget: the user's daily target, shift length and rostered days off

DESIGN PRINCIPLES:
  1. Precision: credits and hours are decimal.Decimal, never float64
  2. Calendar days: every date is a Date (UTC midnight), never a timestamp
  3. Weekdays are an enumeration (Mon=0..Sun=6), never compared as strings

SEE ALSO:
  - target.go: Target Adjuster
  - weekly.go: Weekly Aggregator
  - history.go: History Aggregator
  - store.go: RecordStore interface consumed by the aggregators
*/
package tracker

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UserID int64
type JobTypeID int64
type CompletedJobID int64
type AbsenceID int64
type AboutID int64

// =============================================================================
// PROFILE DEFAULTS
// =============================================================================

var (
	// DefaultDailyTarget is the credit target assigned to a new account.
	DefaultDailyTarget = decimal.RequireFromString("4.25")

	// DefaultDailyHours is the nominal shift length assigned to a new account.
	DefaultDailyHours = decimal.RequireFromString("8.00")
)

// Upper bounds (exclusive) of the stored decimal columns.
var (
	maxCredits     = decimal.NewFromInt(100)
	maxDuration    = decimal.NewFromInt(100)
	maxDailyTarget = decimal.NewFromInt(10)
	maxDailyHours  = decimal.NewFromInt(100)
)

// =============================================================================
// RECORDS
// =============================================================================

// User is an account owning completed jobs, absences and one ProfileTarget.
type User struct {
	ID           UserID
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// JobType is a kind of task and the credits earned per completion.
type JobType struct {
	ID      JobTypeID
	Name    string
	Credits decimal.Decimal
}

func (j JobType) String() string {
	return fmt.Sprintf("%s (%s credits)", j.Name, j.Credits.StringFixed(2))
}

// Validate checks the reference data constraints of a job type.
func (j JobType) Validate() error {
	if j.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if len(j.Name) > 100 {
		return &ValidationError{Field: "name", Message: "name must be at most 100 characters"}
	}
	return checkDecimal("credits", j.Credits, maxCredits)
}

// CompletedJob is a single completion of a JobType by a user.
type CompletedJob struct {
	ID          CompletedJobID
	UserID      UserID
	JobType     JobType
	CompletedOn Date
}

// Validate checks a completed job submission.
func (c CompletedJob) Validate() error {
	if c.JobType.ID == 0 {
		return &ValidationError{Field: "job_type", Message: "job type is required"}
	}
	if c.CompletedOn.IsZero() {
		return &ValidationError{Field: "completed_on", Message: "date is required", Err: ErrInvalidDate}
	}
	return nil
}

// Absence records hours a user was away on a given day.
// Duration may be less than a full shift.
type Absence struct {
	ID       AbsenceID
	UserID   UserID
	Date     Date
	Duration decimal.Decimal
}

func (a Absence) String() string {
	return fmt.Sprintf("user %d absent for %s hours on %s", a.UserID, a.Duration.StringFixed(2), a.Date)
}

// Validate checks an absence submission.
func (a Absence) Validate() error {
	if a.Date.IsZero() {
		return &ValidationError{Field: "date", Message: "date is required", Err: ErrInvalidDate}
	}
	return checkDecimal("duration", a.Duration, maxDuration)
}

// ProfileTarget holds the per-user settings the aggregators need.
// Every user has exactly one, created together with the account.
type ProfileTarget struct {
	UserID      UserID
	DailyTarget decimal.Decimal // credits expected over a full 8 hour shift
	DailyHours  decimal.Decimal // nominal shift length
	DaysOff     DaySet          // rostered days off
}

// DefaultProfileTarget returns the settings given to a new account.
func DefaultProfileTarget(userID UserID) ProfileTarget {
	return ProfileTarget{
		UserID:      userID,
		DailyTarget: DefaultDailyTarget,
		DailyHours:  DefaultDailyHours,
	}
}

// Validate rejects settings the aggregators cannot work with.
// A zero shift length would divide by zero in the Target Adjuster.
func (p ProfileTarget) Validate() error {
	if err := checkDecimal("daily_target", p.DailyTarget, maxDailyTarget); err != nil {
		return err
	}
	if err := checkDecimal("daily_hours", p.DailyHours, maxDailyHours); err != nil {
		return err
	}
	if !p.DailyHours.IsPositive() {
		return &ValidationError{Field: "daily_hours", Message: "daily hours must be greater than zero", Err: ErrInvalidShiftHours}
	}
	if !p.DaysOff.Valid() {
		return &ValidationError{Field: "days_off", Message: "unknown weekday in days off", Err: ErrInvalidWeekday}
	}
	return nil
}

func (p ProfileTarget) String() string {
	return fmt.Sprintf("user %d, target %s", p.UserID, p.DailyTarget.StringFixed(2))
}

// AboutEntry is a block of static text shown on the about page.
type AboutEntry struct {
	ID      AboutID
	Title   string
	Content string
}

// =============================================================================
// AGGREGATE ROWS - returned by RecordStore queries
// =============================================================================

// WeekTotal is the sum of credits earned in the week starting at WeekStart.
type WeekTotal struct {
	WeekStart Date
	Credits   decimal.Decimal
}

// JobCompletion is a completed job reduced to what the history view shows.
type JobCompletion struct {
	ID      CompletedJobID
	Date    Date
	JobName string
}

// checkDecimal enforces non-negative, two decimal place values below max.
func checkDecimal(field string, d decimal.Decimal, max decimal.Decimal) error {
	if d.IsNegative() {
		return &ValidationError{Field: field, Message: "must not be negative", Err: ErrNegativeValue}
	}
	if !d.Equal(d.Round(2)) {
		return &ValidationError{Field: field, Message: "at most two decimal places are allowed"}
	}
	if d.GreaterThanOrEqual(max) {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be less than %s", max)}
	}
	return nil
}
