package rtc

import "time"

// Fake is a settable clock for tests.
type Fake struct {
	Time     time.Time
	Lost     bool
	NowError error

	// Adjusted records every time passed to Adjust.
	Adjusted []time.Time

	Closed bool
}

// Now returns the fake time.
func (f *Fake) Now() (time.Time, error) {
	if f.NowError != nil {
		return time.Time{}, f.NowError
	}
	return f.Time, nil
}

// LostPower returns Lost.
func (f *Fake) LostPower() (bool, error) {
	return f.Lost, nil
}

// Adjust sets the fake time and clears Lost.
func (f *Fake) Adjust(t time.Time) error {
	f.Adjusted = append(f.Adjusted, t)
	f.Time = t
	f.Lost = false
	return nil
}

// Close marks the clock as closed.
func (f *Fake) Close() error {
	f.Closed = true
	return nil
}
