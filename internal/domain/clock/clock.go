// Package clock provides the time source injected into the service so that
// "current year" computations stay deterministic under test.
package clock

import "time"

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// System is the wall clock.
type System struct{}

// Now returns time.Now in UTC.
func (System) Now() time.Time { return time.Now().UTC() }

// Fixed always returns the same instant.
type Fixed time.Time

// Now returns the fixed instant.
func (f Fixed) Now() time.Time { return time.Time(f) }

// Year returns the calendar year of c.Now().
func Year(c Clock) int { return c.Now().Year() }
