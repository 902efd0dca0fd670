// Package monotonic provides a wrapping millisecond counter for interval timing.
// All interval math in the daemon uses this counter, never the wall clock, so
// RTC adjustments cannot stretch or shrink a countdown or the report cadence.
package monotonic

import "time"

// Millis is a millisecond counter that wraps at 2^32 (about 49.7 days).
type Millis uint32

// Since returns the milliseconds elapsed from `from` to `to`.
// Unsigned subtraction keeps the result correct across a single wraparound.
func Since(from, to Millis) uint32 {
	return uint32(to - from)
}

// Clock supplies the current counter value.
type Clock interface {
	Millis() Millis
}

// Real derives Millis from the Go runtime's monotonic clock.
type Real struct {
	start time.Time
}

// NewReal creates a Real clock whose counter starts at zero now.
func NewReal() *Real {
	return &Real{start: time.Now()}
}

// Millis returns the milliseconds since the clock was created, truncated to 32 bits.
func (r *Real) Millis() Millis {
	return Millis(uint64(time.Since(r.start).Milliseconds()))
}

// Fake is a manually advanced clock for tests. Not safe for concurrent use.
type Fake struct {
	Now Millis
}

// NewFake creates a Fake clock at the given counter value.
func NewFake(start Millis) *Fake {
	return &Fake{Now: start}
}

// Millis returns the current fake counter value.
func (f *Fake) Millis() Millis {
	return f.Now
}

// Advance moves the fake clock forward by d, wrapping like the real counter.
func (f *Fake) Advance(d time.Duration) {
	f.Now += Millis(uint32(d.Milliseconds()))
}
