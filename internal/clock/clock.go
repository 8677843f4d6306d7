// Package clock provides time sources for expiry bookkeeping.
package clock

import "time"

// System reads the wall clock in UTC.
type System struct{}

// NewSystem creates a System clock.
func NewSystem() System {
	return System{}
}

// Now returns the current time.
func (System) Now() time.Time {
	return time.Now().UTC()
}
