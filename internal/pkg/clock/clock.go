package clock

import "time"

// Clock supplies the current time. Services take one so "today" can be pinned in tests.
type Clock interface {
	Now() time.Time
}

// System is the wall clock in UTC.
type System struct{}

func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fixed always reports the same instant.
type Fixed time.Time

func (f Fixed) Now() time.Time {
	return time.Time(f)
}
