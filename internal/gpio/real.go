//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/countdown-timer/internal/logic"
)

const consumer = "countdown-timer"

type line struct {
	l      *gpiocdev.Line
	output bool
}

// Real drives pins through the Linux GPIO character device.
type Real struct {
	chip  *gpiocdev.Chip
	lines map[int]*line
}

// NewReal opens the named GPIO chip (e.g. "gpiochip0").
func NewReal(chipName string) (*Real, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &Real{
		chip:  chip,
		lines: make(map[int]*line),
	}, nil
}

// ConfigureInput requests pin as an input with pull-up bias.
func (r *Real) ConfigureInput(pin int) error {
	if _, ok := r.lines[pin]; ok {
		return fmt.Errorf("request input pin %d: already requested", pin)
	}
	l, err := r.chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		return fmt.Errorf("request input pin %d: %w", pin, err)
	}
	r.lines[pin] = &line{l: l}
	return nil
}

// ConfigureOutput requests pin as an output driven to initial.
func (r *Real) ConfigureOutput(pin int, initial logic.Level) error {
	if _, ok := r.lines[pin]; ok {
		return fmt.Errorf("request output pin %d: already requested", pin)
	}
	l, err := r.chip.RequestLine(pin, gpiocdev.AsOutput(int(initial)))
	if err != nil {
		return fmt.Errorf("request output pin %d: %w", pin, err)
	}
	r.lines[pin] = &line{l: l, output: true}
	return nil
}

// Read returns the raw level of an input pin.
func (r *Real) Read(pin int) (logic.Level, error) {
	ln, ok := r.lines[pin]
	if !ok {
		return logic.High, fmt.Errorf("read pin %d: %w", pin, ErrNotConfigured)
	}
	if ln.output {
		return logic.High, fmt.Errorf("read pin %d: %w", pin, ErrWrongMode)
	}
	v, err := ln.l.Value()
	if err != nil {
		return logic.High, fmt.Errorf("read pin %d: %w", pin, err)
	}
	if v == 0 {
		return logic.Low, nil
	}
	return logic.High, nil
}

// Write drives an output pin.
func (r *Real) Write(pin int, level logic.Level) error {
	ln, ok := r.lines[pin]
	if !ok {
		return fmt.Errorf("write pin %d: %w", pin, ErrNotConfigured)
	}
	if !ln.output {
		return fmt.Errorf("write pin %d: %w", pin, ErrWrongMode)
	}
	if err := ln.l.SetValue(int(level)); err != nil {
		return fmt.Errorf("write pin %d: %w", pin, err)
	}
	return nil
}

// Close releases GPIO resources.
// Outputs are driven low and returned to inputs before closing so a relay is
// never left energised by a line the kernel keeps driving after exit.
func (r *Real) Close() error {
	var errs []error

	for pin, ln := range r.lines {
		if ln.output {
			if err := ln.l.SetValue(0); err != nil {
				errs = append(errs, fmt.Errorf("release output pin %d: %w", pin, err))
			}
			if err := ln.l.Reconfigure(gpiocdev.AsInput); err != nil {
				errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", pin, err))
			}
		}
		if err := ln.l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", pin, err))
		}
		delete(r.lines, pin)
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		r.chip = nil
	}

	return errors.Join(errs...)
}
