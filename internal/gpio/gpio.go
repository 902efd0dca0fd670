// Package gpio provides digital pin access with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"errors"

	"github.com/sweeney/countdown-timer/internal/logic"
)

// Bus reads and drives individual pins by BCM offset.
type Bus interface {
	// ConfigureInput requests pin as an input with the internal pull-up
	// enabled, so a released button reads HIGH and a pressed one LOW.
	ConfigureInput(pin int) error

	// ConfigureOutput requests pin as an output driven to initial.
	ConfigureOutput(pin int, initial logic.Level) error

	// Read returns the raw level of a configured input.
	Read(pin int) (logic.Level, error)

	// Write drives a configured output.
	Write(pin int, level logic.Level) error

	// Close releases all requested lines.
	Close() error
}

// DefaultChip is the GPIO character device on a Raspberry Pi.
const DefaultChip = "gpiochip0"

var (
	// ErrNotConfigured is returned when a pin is used before it was requested.
	ErrNotConfigured = errors.New("gpio: pin not configured")

	// ErrWrongMode is returned when reading an output or writing an input.
	ErrWrongMode = errors.New("gpio: pin configured for the other direction")
)

// ReadAll reads every pin in order. It stops at the first error.
func ReadAll(bus Bus, pins []int) ([]logic.Level, error) {
	levels := make([]logic.Level, len(pins))
	for i, pin := range pins {
		l, err := bus.Read(pin)
		if err != nil {
			return nil, err
		}
		levels[i] = l
	}
	return levels, nil
}
