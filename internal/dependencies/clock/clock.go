// Package clock abstracts wall-clock time so token expiry and registration
// timestamps can be controlled in tests.
package clock

import "time"

// Clock provides the current time
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the system clock, always in UTC
type RealClock struct{}

// New creates a new RealClock
func New() *RealClock {
	return &RealClock{}
}

// Now returns the current UTC time
func (c *RealClock) Now() time.Time {
	return time.Now().UTC()
}
