// Package daterange implements calendar-date arithmetic for reservations.
//
// A Date has no time-of-day component. Ranges are closed: both the start and
// the end day belong to the range, so [1,5] and [5,10] share day 5.
package daterange

import (
	"encoding/json"
	"fmt"
	"time"
)

// Layout is the wire format of a Date.
const Layout = time.DateOnly

const secondsPerDay = 24 * 60 * 60

// Date is a calendar day, stored as midnight UTC.
type Date struct {
	t time.Time
}

// New returns the given calendar day.
func New(year int, month time.Month, d int) Date {
	return Date{t: time.Date(year, month, d, 0, 0, 0, 0, time.UTC)}
}

// Parse reads a YYYY-MM-DD string. Out-of-range days such as 2021-02-30 are rejected.
func Parse(s string) (Date, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// FromTime returns the calendar day of t in t's own location.
func FromTime(t time.Time) Date {
	return New(t.Year(), t.Month(), t.Day())
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time { return d.t }

func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

func (d Date) After(o Date) bool { return d.t.After(o.t) }

func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

// Compare returns -1, 0 or +1.
func (d Date) Compare(o Date) int { return d.t.Compare(o.t) }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(Layout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysBetween returns to - from in whole days; negative when to is before from.
// Dates are midnight UTC, so Unix seconds divide evenly and never saturate like time.Duration does past ~292 years.
func DaysBetween(from, to Date) int {
	return int((to.t.Unix() - from.t.Unix()) / secondsPerDay)
}

// DurationDays is the inclusive day count of [start, end]: (end - start) + 1.
func DurationDays(start, end Date) int {
	return DaysBetween(start, end) + 1
}

// Overlaps reports whether the closed ranges [aStart, aEnd] and [bStart, bEnd]
// share at least one day. A shared boundary day counts as an overlap.
func Overlaps(aStart, aEnd, bStart, bEnd Date) bool {
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

// Range is a closed date range.
type Range struct {
	Start Date
	End   Date
}

// Days is the inclusive day count of r.
func (r Range) Days() int {
	return DurationDays(r.Start, r.End)
}

func (r Range) Overlaps(o Range) bool {
	return Overlaps(r.Start, r.End, o.Start, o.End)
}

func (r Range) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}
