package tracker

import (
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar day (this IS a per-day tracking system)
// =============================================================================

const dateLayout = "2006-01-02"

// Date is a calendar day at UTC midnight.
// Always build one through NewDate, DateOf or ParseDate so equal days
// compare equal and can be used as map keys.
type Date struct {
	Time time.Time
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf takes the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date {
	return DateOf(time.Now())
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%q: %w", s, ErrInvalidDate)
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date { return DateOf(d.Time.AddDate(0, 0, n)) }

// Properties
func (d Date) Weekday() Weekday { return WeekdayOf(d.Time.Weekday()) }
func (d Date) IsZero() bool     { return d.Time.IsZero() }
func (d Date) String() string   { return d.Time.Format(dateLayout) }

// Label is the short form shown next to a tracker row, e.g. "Mon 06 Jan".
func (d Date) Label() string { return d.Time.Format("Mon 02 Jan") }

// StartOfWeek returns the Monday of d's week.
func (d Date) StartOfWeek() Date {
	return d.AddDays(-int(d.Weekday()))
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// WEEK - Monday..Sunday period
// =============================================================================

// Week is the calendar week [Start, End], always Monday through Sunday.
type Week struct {
	Start Date
	End   Date
}

// WeekOf returns the week containing d.
func WeekOf(d Date) Week {
	start := d.StartOfWeek()
	return Week{Start: start, End: start.AddDays(6)}
}

// Contains returns true if the day is within the week [Start, End]
func (w Week) Contains(d Date) bool {
	return d.AfterOrEqual(w.Start) && d.BeforeOrEqual(w.End)
}

// Days returns the seven days of the week in order.
func (w Week) Days() []Date {
	days := make([]Date, 0, 7)
	for current := w.Start; current.BeforeOrEqual(w.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

func (w Week) Next() Week     { return WeekOf(w.Start.AddDays(7)) }
func (w Week) Previous() Week { return WeekOf(w.Start.AddDays(-7)) }

func (w Week) String() string {
	return "[" + w.Start.String() + ", " + w.End.String() + "]"
}
