package logic

import "github.com/sweeney/countdown-timer/internal/monotonic"

// Actuator drives the trigger output. Implementations must be idempotent:
// asserting twice leaves the same observable level as asserting once.
type Actuator interface {
	Assert()
	Deassert()
	Asserted() bool
}

// Engine is the countdown state machine. It is the only writer of the timer
// state and the only caller of the trigger actuator.
type Engine struct {
	status  Status
	target  uint32
	start   monotonic.Millis
	trigger Actuator
}

// NewEngine creates an idle engine driving trigger.
func NewEngine(trigger Actuator) *Engine {
	return &Engine{
		status:  StatusIdle,
		trigger: trigger,
	}
}

// Arm starts or restarts the countdown for seconds from now. The trigger is
// released immediately, so re-arming a running or finished timer needs no Stop.
// Durations are validated at configuration load; zero is a programming error.
func (e *Engine) Arm(now monotonic.Millis, seconds uint32, channel string) Event {
	if seconds == 0 {
		panic("logic: Arm with zero duration")
	}
	prev := e.status
	e.trigger.Deassert()
	e.status = StatusRunning
	e.target = seconds
	e.start = now
	return Event{
		At:       now,
		Type:     EventArmed,
		Channel:  channel,
		Seconds:  seconds,
		Previous: prev,
		Status:   e.status,
	}
}

// Stop returns the engine to idle and releases the trigger unconditionally,
// whatever the previous state.
func (e *Engine) Stop(now monotonic.Millis, channel string) Event {
	prev := e.status
	seconds := e.target
	e.trigger.Deassert()
	e.status = StatusIdle
	e.target = 0
	e.start = 0
	return Event{
		At:       now,
		Type:     EventStopped,
		Channel:  channel,
		Seconds:  seconds,
		Previous: prev,
		Status:   e.status,
	}
}

// Tick advances a running countdown. It returns a FINISHED event, and asserts
// the trigger, only on the Running to Finished transition; ticks in any other
// state change nothing. The target is cleared on finish, so a finished timer
// reports like an idle one while the trigger stays high.
func (e *Engine) Tick(now monotonic.Millis) (Event, bool) {
	if e.status != StatusRunning {
		return Event{}, false
	}
	if e.elapsed(now) < e.target {
		return Event{}, false
	}
	seconds := e.target
	e.status = StatusFinished
	e.target = 0
	e.trigger.Assert()
	return Event{
		At:       now,
		Type:     EventFinished,
		Seconds:  seconds,
		Previous: StatusRunning,
		Status:   e.status,
	}, true
}

// State returns the timer state as seen at now.
func (e *Engine) State(now monotonic.Millis) TimerState {
	return TimerState{
		Status:    e.status,
		Target:    e.target,
		Remaining: e.Remaining(now),
		Trigger:   e.trigger.Asserted(),
	}
}

// Status returns the current state without reference to time.
func (e *Engine) Status() Status {
	return e.status
}

// Remaining returns the whole seconds left on a running countdown, rounded
// down. It is zero when idle or finished.
func (e *Engine) Remaining(now monotonic.Millis) uint32 {
	if e.status != StatusRunning {
		return 0
	}
	elapsed := e.elapsed(now)
	if elapsed >= e.target {
		return 0
	}
	return e.target - elapsed
}

// elapsed is whole seconds since the countdown started, truncated.
func (e *Engine) elapsed(now monotonic.Millis) uint32 {
	return monotonic.Since(e.start, now) / 1000
}
