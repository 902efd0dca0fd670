// Package rtc provides the wall clock used for status lines.
// The DS3231 implementation talks to the chip over Linux i2c-dev; the system
// implementation uses the host clock for boards without an RTC module.
package rtc

import (
	"errors"
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"time"
)

// Clock is a battery-backed calendar clock.
type Clock interface {
	// Now returns the current calendar time.
	Now() (time.Time, error)

	// LostPower reports whether the clock stopped since it was last set,
	// meaning Now cannot be trusted until Adjust is called.
	LostPower() (bool, error)

	// Adjust sets the clock.
	Adjust(t time.Time) error

	// Close releases the underlying bus.
	Close() error
}

// ErrNotAdjustable is returned by clocks the daemon may not set.
var ErrNotAdjustable = errors.New("rtc: clock cannot be adjusted")

// System reads the host clock. It never reports power loss.
type System struct{}

// Now returns the host time.
func (System) Now() (time.Time, error) { return time.Now(), nil }

// LostPower always reports false; the host keeps its own time.
func (System) LostPower() (bool, error) { return false, nil }

// Adjust refuses to change the host clock.
func (System) Adjust(time.Time) error { return ErrNotAdjustable }

// Close is a no-op.
func (System) Close() error { return nil }

// EnsureTime reseeds c from fallback if it reports power loss. The reseed is
// best effort: the result is only as good as fallback. It returns whether the
// clock was adjusted.
func EnsureTime(c Clock, fallback time.Time) (bool, error) {
	lost, err := c.LostPower()
	if err != nil {
		return false, fmt.Errorf("check power loss: %w", err)
	}
	if !lost {
		return false, nil
	}
	log.Printf("rtc: lost power, setting time to %s", fallback.Format(time.RFC3339))
	if err := c.Adjust(fallback); err != nil {
		return false, fmt.Errorf("adjust: %w", err)
	}
	return true, nil
}

// BuildTime returns the timestamp used to reseed a clock that lost power.
// In order of preference: stamp (RFC 3339, injected with -ldflags), the VCS
// commit time recorded by the Go toolchain, the executable's modification time.
func BuildTime(stamp string) (time.Time, error) {
	if stamp != "" {
		t, err := time.Parse(time.RFC3339, stamp)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse build time %q: %w", stamp, err)
		}
		return t, nil
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key != "vcs.time" {
				continue
			}
			if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
				return t, nil
			}
		}
	}

	exe, err := os.Executable()
	if err != nil {
		return time.Time{}, fmt.Errorf("locate executable: %w", err)
	}
	fi, err := os.Stat(exe)
	if err != nil {
		return time.Time{}, fmt.Errorf("stat executable: %w", err)
	}
	return fi.ModTime(), nil
}
