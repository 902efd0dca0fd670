package gpio

import (
	"fmt"

	"github.com/sweeney/countdown-timer/internal/logic"
)

// Write records a single level driven onto an output.
type Write struct {
	Pin   int
	Level logic.Level
}

// Fake is a test double holding per-pin levels set by the test.
// Inputs read HIGH (released) until Press is called.
type Fake struct {
	inputs  map[int]logic.Level
	outputs map[int]logic.Level

	// Writes contains every level driven onto an output, in order.
	Writes []Write

	// ReadErrors, if set for a pin, is returned by Read for that pin.
	ReadErrors map[int]error

	// WriteError, if set, is returned by every Write.
	WriteError error

	// Reads counts Read calls.
	Reads int

	// Closed tracks if Close was called.
	Closed bool
}

// NewFake creates a Fake with no pins configured.
func NewFake() *Fake {
	return &Fake{
		inputs:     make(map[int]logic.Level),
		outputs:    make(map[int]logic.Level),
		ReadErrors: make(map[int]error),
	}
}

// ConfigureInput marks pin as a pulled-up input.
func (f *Fake) ConfigureInput(pin int) error {
	if _, ok := f.outputs[pin]; ok {
		return fmt.Errorf("configure input pin %d: %w", pin, ErrWrongMode)
	}
	if _, ok := f.inputs[pin]; !ok {
		f.inputs[pin] = logic.High
	}
	return nil
}

// ConfigureOutput marks pin as an output at initial.
func (f *Fake) ConfigureOutput(pin int, initial logic.Level) error {
	if _, ok := f.inputs[pin]; ok {
		return fmt.Errorf("configure output pin %d: %w", pin, ErrWrongMode)
	}
	f.outputs[pin] = initial
	return nil
}

// Read returns the level last set for an input pin.
func (f *Fake) Read(pin int) (logic.Level, error) {
	f.Reads++
	if err := f.ReadErrors[pin]; err != nil {
		return logic.High, err
	}
	l, ok := f.inputs[pin]
	if !ok {
		return logic.High, fmt.Errorf("read pin %d: %w", pin, ErrNotConfigured)
	}
	return l, nil
}

// Write records the level driven onto an output pin.
func (f *Fake) Write(pin int, level logic.Level) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	if _, ok := f.outputs[pin]; !ok {
		return fmt.Errorf("write pin %d: %w", pin, ErrNotConfigured)
	}
	f.outputs[pin] = level
	f.Writes = append(f.Writes, Write{Pin: pin, Level: level})
	return nil
}

// Close marks the bus as closed.
func (f *Fake) Close() error {
	f.Closed = true
	return nil
}

// Press pulls an input pin LOW.
func (f *Fake) Press(pin int) {
	f.inputs[pin] = logic.Low
}

// Release lets an input pin return HIGH.
func (f *Fake) Release(pin int) {
	f.inputs[pin] = logic.High
}

// Output returns the level currently driven on an output pin.
func (f *Fake) Output(pin int) logic.Level {
	return f.outputs[pin]
}

// IsInput reports whether pin was configured as an input.
func (f *Fake) IsInput(pin int) bool {
	_, ok := f.inputs[pin]
	return ok
}

// IsOutput reports whether pin was configured as an output.
func (f *Fake) IsOutput(pin int) bool {
	_, ok := f.outputs[pin]
	return ok
}
