package clock

import "time"

// Clocker is the source of "now" for everything that is not aligned to the remote service.
type Clocker interface {
	Now() time.Time
}

// System reads the host clock.
type System struct{}

// New returns the host clock.
func New() System { return System{} }

// Now returns time.Now.
func (System) Now() time.Time { return time.Now() }

// Fixed always reports At.
type Fixed struct {
	At time.Time
}

// Now returns At.
func (f Fixed) Now() time.Time { return f.At }
