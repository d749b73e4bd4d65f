package clock

import "time"

// Clocker abstracts time so callers can replace real time in tests.
type Clocker interface {
	// Now returns the current time in UTC.
	Now() time.Time
}

// TimeClocker is the production clock backed by time.Now.
type TimeClocker struct{}

// New returns a TimeClocker that reads the system time.
func New() *TimeClocker {
	return &TimeClocker{}
}

// Now returns the current system time normalized to UTC.
func (*TimeClocker) Now() time.Time {
	return time.Now().UTC()
}

// Fixed is a Clocker that always returns the same instant until moved.
// It is meant for tests and local tooling.
type Fixed struct {
	t time.Time
}

// NewFixed returns a Fixed clock pinned at t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{t: t.UTC()}
}

// Now returns the pinned instant.
func (f *Fixed) Now() time.Time {
	return f.t
}

// Advance moves the pinned instant forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.t = f.t.Add(d)
}
