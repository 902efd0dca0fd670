// Package logic contains the pure control logic of the countdown timer:
// input debouncing, the timer/trigger state machine and status formatting.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via monotonic.Millis parameters.
package logic

import (
	"time"

	"github.com/sweeney/countdown-timer/internal/monotonic"
)

// Level is the raw logic level of a digital input or output.
type Level uint8

const (
	Low  Level = 0
	High Level = 1
)

func (l Level) String() string {
	if l == High {
		return "HIGH"
	}
	return "LOW"
}

// Status is the state of the countdown timer.
type Status string

const (
	StatusIdle     Status = "IDLE"
	StatusRunning  Status = "RUNNING"
	StatusFinished Status = "FINISHED"
)

// Command is the action a button channel performs when pressed.
type Command uint8

const (
	CommandArm Command = iota
	CommandStop
)

func (c Command) String() string {
	if c == CommandStop {
		return "STOP"
	}
	return "ARM"
}

// Channel binds a physical input to the command it issues.
// Seconds is only meaningful for CommandArm and is always positive there.
type Channel struct {
	Name    string
	Pin     int
	Command Command
	Seconds uint32
}

// Edge is a debounced falling edge (a press) on a channel, identified by index.
type Edge struct {
	Channel int
}

// EventType identifies a timer transition.
type EventType string

const (
	EventArmed    EventType = "ARMED"
	EventStopped  EventType = "STOPPED"
	EventFinished EventType = "FINISHED"
)

// Event describes a timer transition to be reported and published.
type Event struct {
	Timestamp time.Time
	At        monotonic.Millis
	Type      EventType
	Channel   string // button that caused it; empty for FINISHED
	Seconds   uint32 // armed duration
	Previous  Status
	Status    Status
}

// TimerState is a read-only view of the timer at an instant.
type TimerState struct {
	Status    Status
	Target    uint32 // armed duration in seconds; 0 while idle
	Remaining uint32 // whole seconds left; 0 unless running
	Trigger   bool
}
