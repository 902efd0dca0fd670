//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/countdown-timer/internal/logic"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// Real is not available on non-Linux platforms.
type Real struct{}

// NewReal returns an error on non-Linux platforms.
func NewReal(chipName string) (*Real, error) {
	return nil, errUnsupported
}

func (r *Real) ConfigureInput(pin int) error { return errUnsupported }

func (r *Real) ConfigureOutput(pin int, initial logic.Level) error { return errUnsupported }

func (r *Real) Read(pin int) (logic.Level, error) { return logic.High, errUnsupported }

func (r *Real) Write(pin int, level logic.Level) error { return errUnsupported }

// Close is a no-op on non-Linux platforms.
func (r *Real) Close() error {
	return nil
}
