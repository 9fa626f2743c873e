package tracker

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// WEEKDAY - Fixed 7-value enumeration, Monday first
// =============================================================================

// Weekday is a day of the week with Monday=0 through Sunday=6.
// This differs from time.Weekday, which starts on Sunday.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayAbbrevs = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
var weekdayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// AllWeekdays returns Monday..Sunday in order.
func AllWeekdays() []Weekday {
	return []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}

// WeekdayOf converts a time.Weekday.
func WeekdayOf(wd time.Weekday) Weekday {
	return Weekday((int(wd) + 6) % 7)
}

// ParseWeekday accepts an abbreviation ("Mon") or full name ("Monday"), any case.
func ParseWeekday(s string) (Weekday, error) {
	s = strings.TrimSpace(s)
	for i := range weekdayAbbrevs {
		if strings.EqualFold(s, weekdayAbbrevs[i]) || strings.EqualFold(s, weekdayNames[i]) {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("%q: %w", s, ErrInvalidWeekday)
}

func (w Weekday) Valid() bool { return w >= Monday && w <= Sunday }

// Abbrev returns the three letter code used for rostered days off.
func (w Weekday) Abbrev() string {
	if !w.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return weekdayAbbrevs[w]
}

// Name returns the full English name.
func (w Weekday) Name() string {
	if !w.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return weekdayNames[w]
}

func (w Weekday) String() string { return w.Abbrev() }

func (w Weekday) MarshalJSON() ([]byte, error) {
	if !w.Valid() {
		return nil, fmt.Errorf("marshal %d: %w", int(w), ErrInvalidWeekday)
	}
	return json.Marshal(w.Name())
}

func (w *Weekday) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseWeekday(s)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// =============================================================================
// DAY SET - Rostered days off
// =============================================================================

// DaySet is a set of weekdays stored as a bitmask (bit 0 = Monday).
// Adding a day twice is a no-op.
type DaySet uint8

const allDaysMask DaySet = 1<<7 - 1

func NewDaySet(days ...Weekday) DaySet {
	var s DaySet
	for _, d := range days {
		s = s.Add(d)
	}
	return s
}

func (s DaySet) Add(w Weekday) DaySet      { return s | 1<<uint(w) }
func (s DaySet) Remove(w Weekday) DaySet   { return s &^ (1 << uint(w)) }
func (s DaySet) Contains(w Weekday) bool   { return w.Valid() && s&(1<<uint(w)) != 0 }
func (s DaySet) Valid() bool               { return s&^allDaysMask == 0 }
func (s DaySet) IsEmpty() bool             { return s == 0 }

// Days returns the members in Monday..Sunday order.
func (s DaySet) Days() []Weekday {
	var days []Weekday
	for _, w := range AllWeekdays() {
		if s.Contains(w) {
			days = append(days, w)
		}
	}
	return days
}

func (s DaySet) Len() int { return len(s.Days()) }

// Abbrevs returns the members as three letter codes.
func (s DaySet) Abbrevs() []string {
	out := make([]string, 0, 7)
	for _, w := range s.Days() {
		out = append(out, w.Abbrev())
	}
	return out
}

// String returns the comma-separated form used for storage, e.g. "Sat,Sun".
func (s DaySet) String() string {
	return strings.Join(s.Abbrevs(), ",")
}

// RosteredDays filters days down to those not in the set.
func (s DaySet) RosteredDays(days []Date) []Date {
	out := make([]Date, 0, len(days))
	for _, d := range days {
		if !s.Contains(d.Weekday()) {
			out = append(out, d)
		}
	}
	return out
}

// ParseDaySet parses the comma-separated storage form. Empty means no days off.
func ParseDaySet(s string) (DaySet, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return DaySetFromStrings(strings.Split(s, ","))
}

// DaySetFromStrings parses weekday abbreviations or names.
func DaySetFromStrings(values []string) (DaySet, error) {
	var set DaySet
	for _, v := range values {
		w, err := ParseWeekday(v)
		if err != nil {
			return 0, err
		}
		set = set.Add(w)
	}
	return set, nil
}

func (s DaySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Abbrevs())
}

func (s *DaySet) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	set, err := DaySetFromStrings(values)
	if err != nil {
		return err
	}
	*s = set
	return nil
}
