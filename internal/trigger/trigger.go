// Package trigger drives the digital output asserted when a countdown expires.
package trigger

import (
	"log"

	"github.com/sweeney/countdown-timer/internal/gpio"
	"github.com/sweeney/countdown-timer/internal/logic"
)

// Output is the physical line behind the trigger.
type Output interface {
	Set(on bool) error
	Close() error
}

// Actuator is the trigger's single owner. Every call drives the output, so a
// repeated Deassert re-drives the line low, but the observable level only
// changes when the requested level does.
type Actuator struct {
	out      Output
	level    bool
	rises    int
	failures int
}

var _ logic.Actuator = (*Actuator)(nil)

// New creates an actuator over out. The caller is expected to have configured
// the output deasserted.
func New(out Output) *Actuator {
	return &Actuator{out: out}
}

// Assert drives the trigger high.
func (a *Actuator) Assert() {
	a.drive(true)
}

// Deassert drives the trigger low.
func (a *Actuator) Deassert() {
	a.drive(false)
}

// Asserted reports the level last requested.
func (a *Actuator) Asserted() bool {
	return a.level
}

// Rises returns the number of low to high transitions since creation.
func (a *Actuator) Rises() int {
	return a.rises
}

// Failures returns the number of output writes that returned an error.
func (a *Actuator) Failures() int {
	return a.failures
}

// Close releases the output.
func (a *Actuator) Close() error {
	return a.out.Close()
}

// drive records the requested level before writing it, so after a failed
// write the next Stop still re-drives the line low.
func (a *Actuator) drive(on bool) {
	if on && !a.level {
		a.rises++
	}
	a.level = on
	if err := a.out.Set(on); err != nil {
		a.failures++
		log.Printf("trigger: drive %s: %v", levelName(on), err)
	}
}

func levelName(on bool) string {
	if on {
		return "HIGH"
	}
	return "LOW"
}

// Pin is a trigger output on a GPIO line.
type Pin struct {
	bus gpio.Bus
	pin int
}

// NewPin configures pin on bus as an output, initially low.
func NewPin(bus gpio.Bus, pin int) (*Pin, error) {
	if err := bus.ConfigureOutput(pin, logic.Low); err != nil {
		return nil, err
	}
	return &Pin{bus: bus, pin: pin}, nil
}

// Set drives the line.
func (p *Pin) Set(on bool) error {
	if on {
		return p.bus.Write(p.pin, logic.High)
	}
	return p.bus.Write(p.pin, logic.Low)
}

// Close is a no-op; the bus owns the line and releases it on its own Close.
func (p *Pin) Close() error {
	return nil
}
