// Package controller runs the cooperative control cycle: debounce the
// inputs, apply commands to the countdown engine, then report status.
// Everything here runs on one goroutine; outbound side effects go through
// a dispatch queue and never block a pass.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/countdown-timer/internal/dispatch"
	"github.com/sweeney/countdown-timer/internal/gpio"
	"github.com/sweeney/countdown-timer/internal/logic"
	"github.com/sweeney/countdown-timer/internal/monotonic"
	"github.com/sweeney/countdown-timer/internal/mqtt"
	"github.com/sweeney/countdown-timer/internal/status"
)

// Queue accepts outbound messages without blocking.
type Queue interface {
	Enqueue(msg dispatch.Message) bool
}

// Options configures a Controller. Channels, Bus, Trigger, Wall and Sink are
// required; the rest may be left zero.
type Options struct {
	Channels []logic.Channel
	Bus      gpio.Bus
	Trigger  logic.Actuator
	Wall     logic.WallClock
	Sink     logic.Sink

	Debounce  time.Duration // default logic.DefaultDebounceWindow
	Report    time.Duration // default logic.DefaultReportInterval
	Heartbeat time.Duration // 0 disables heartbeats

	Tracker *status.Tracker
	Queue   Queue
	MQTT    mqtt.ConnectionStatus
	Network func() *status.NetworkInfo
}

// Controller owns the debouncer, engine and reporter.
type Controller struct {
	channels  []logic.Channel
	bus       gpio.Bus
	debouncer *logic.Debouncer
	engine    *logic.Engine
	reporter  *logic.Reporter
	wall      logic.WallClock

	heartbeat *logic.Gate

	tracker *status.Tracker
	queue   Queue
	mqtt    mqtt.ConnectionStatus
	network func() *status.NetworkInfo

	inputFailing bool
	wallFailing  bool
}

// New creates a controller whose debounce, report and heartbeat intervals
// start counting at start.
func New(opts Options, start monotonic.Millis) (*Controller, error) {
	if len(opts.Channels) == 0 {
		return nil, errors.New("controller: no channels")
	}
	if opts.Bus == nil || opts.Trigger == nil || opts.Wall == nil || opts.Sink == nil {
		return nil, errors.New("controller: bus, trigger, wall clock and sink are required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = logic.DefaultDebounceWindow
	}
	if opts.Report <= 0 {
		opts.Report = logic.DefaultReportInterval
	}

	c := &Controller{
		channels:  opts.Channels,
		bus:       opts.Bus,
		debouncer: logic.NewDebouncer(opts.Debounce, start, len(opts.Channels)),
		engine:    logic.NewEngine(opts.Trigger),
		reporter:  logic.NewReporter(opts.Report, start, opts.Wall, opts.Sink),
		wall:      opts.Wall,
		tracker:   opts.Tracker,
		queue:     opts.Queue,
		mqtt:      opts.MQTT,
		network:   opts.Network,
	}
	if opts.Heartbeat > 0 {
		g := logic.NewGate(opts.Heartbeat, start)
		c.heartbeat = &g
	}
	return c, nil
}

// Seed reads every input once and records it as the stable level, so a
// button held through boot is not taken as a press. Call it after the
// pull-ups have settled. A channel that cannot be read stays released.
func (c *Controller) Seed() error {
	levels := make([]logic.Level, len(c.channels))
	var errs []error
	for i, ch := range c.channels {
		l, err := c.bus.Read(ch.Pin)
		if err != nil {
			errs = append(errs, fmt.Errorf("seed %s (pin %d): %w", ch.Name, ch.Pin, err))
			l = logic.High
		}
		levels[i] = l
	}
	c.debouncer.Seed(levels)
	return errors.Join(errs...)
}

// Start emits the banner, marks the daemon ready and queues STARTUP.
func (c *Controller) Start(now monotonic.Millis) {
	c.reporter.Announce(logic.Banner)
	if c.tracker != nil {
		c.tracker.Update(c.engine.State(now))
		c.tracker.SetReady(true)
		c.refreshConnectivity()
	}
	c.system(dispatch.SystemStartup, "")
}

// Step runs one pass of the control cycle: poll inputs, apply commands,
// advance the countdown, then report. The order is fixed.
func (c *Controller) Step(now monotonic.Millis) {
	sampled := false
	edges, err := c.debouncer.Poll(now, func(ch int) (logic.Level, error) {
		sampled = true
		return c.bus.Read(c.channels[ch].Pin)
	})
	if sampled {
		c.inputError(err)
	}
	for _, e := range edges {
		c.press(now, e.Channel)
	}

	if ev, done := c.engine.Tick(now); done {
		c.event(ev)
		line, err := c.reporter.Finished()
		c.line(line, err)
	}

	line, ok, err := c.reporter.MaybeReport(now, c.engine.State(now))
	if ok {
		c.line(line, err)
	}

	if c.tracker != nil {
		c.tracker.Update(c.engine.State(now))
		c.refreshConnectivity()
	}

	if c.heartbeat != nil && c.heartbeat.Ready(now) {
		c.beat(now)
	}
}

// Run steps the controller with clock on every tick until ctx is done.
func (c *Controller) Run(ctx context.Context, clock monotonic.Clock, tick <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			c.Step(clock.Millis())
		}
	}
}

// Shutdown stops the countdown, leaving the trigger deasserted, and queues
// SHUTDOWN with reason.
func (c *Controller) Shutdown(now monotonic.Millis, reason string) {
	if c.engine.Status() != logic.StatusIdle {
		c.event(c.engine.Stop(now, "shutdown"))
	} else {
		c.engine.Stop(now, "shutdown")
	}
	if c.tracker != nil {
		c.tracker.Update(c.engine.State(now))
		c.tracker.SetReady(false)
		c.refreshConnectivity()
	}
	c.system(dispatch.SystemShutdown, reason)
}

// State returns the timer state at now.
func (c *Controller) State(now monotonic.Millis) logic.TimerState {
	return c.engine.State(now)
}

// Channels returns the configured channel set.
func (c *Controller) Channels() []logic.Channel {
	return c.channels
}

func (c *Controller) press(now monotonic.Millis, idx int) {
	ch := c.channels[idx]
	if c.tracker != nil {
		c.tracker.RecordPress(idx)
	}

	switch ch.Command {
	case logic.CommandArm:
		ev := c.engine.Arm(now, ch.Seconds, ch.Name)
		c.reporter.Announce(logic.ArmedNotice(ch.Seconds))
		c.event(ev)
	case logic.CommandStop:
		ev := c.engine.Stop(now, ch.Name)
		c.reporter.Announce(logic.StoppedNotice)
		c.event(ev)
	}
}

// event stamps ev with wall time, records it and queues it for the sinks.
func (c *Controller) event(ev logic.Event) {
	ev.Timestamp = c.wallNow()
	log.Printf("event: %s channel=%q seconds=%d (%s -> %s)", ev.Type, ev.Channel, ev.Seconds, ev.Previous, ev.Status)

	if c.tracker == nil {
		return
	}
	c.tracker.RecordEvent(ev)
	c.tracker.Update(c.engine.State(ev.At))
	c.enqueue(dispatch.Message{Kind: dispatch.KindEvent, Event: ev, Snapshot: c.tracker.Snapshot()})
}

func (c *Controller) system(name, reason string) {
	if c.tracker == nil {
		return
	}
	c.enqueue(dispatch.Message{Kind: dispatch.KindSystem, System: name, Reason: reason, Snapshot: c.tracker.Snapshot()})
}

func (c *Controller) beat(now monotonic.Millis) {
	st := c.engine.State(now)
	log.Printf("heartbeat: state=%s remaining=%d trigger=%v", st.Status, st.Remaining, st.Trigger)
	if c.tracker != nil && c.network != nil {
		if net := c.network(); net != nil {
			c.tracker.SetNetwork(net)
		}
	}
	c.system(dispatch.SystemHeartbeat, "")
}

func (c *Controller) enqueue(msg dispatch.Message) {
	if c.queue != nil {
		c.queue.Enqueue(msg)
	}
}

func (c *Controller) line(line string, err error) {
	c.wallError(err)
	if c.tracker != nil {
		c.tracker.SetLastLine(line)
	}
}

func (c *Controller) refreshConnectivity() {
	if c.mqtt != nil {
		c.tracker.SetMQTTConnected(c.mqtt.IsConnected())
	}
}

// wallNow returns the wall time for event stamps, falling back to the host
// clock when the RTC cannot be read.
func (c *Controller) wallNow() time.Time {
	t, err := c.wall.Now()
	c.wallError(err)
	if err != nil {
		return time.Now()
	}
	return t
}

// wallError logs the first RTC failure of a run of failures and the recovery.
func (c *Controller) wallError(err error) {
	switch {
	case err != nil && !c.wallFailing:
		log.Printf("rtc: read: %v", err)
		c.wallFailing = true
	case err == nil && c.wallFailing:
		log.Printf("rtc: read recovered")
		c.wallFailing = false
	}
}

// inputError logs the first input failure of a run of failed passes and the
// recovery.
func (c *Controller) inputError(err error) {
	switch {
	case err != nil && !c.inputFailing:
		log.Printf("gpio: read: %v", err)
		c.inputFailing = true
	case err == nil && c.inputFailing:
		log.Printf("gpio: read recovered")
		c.inputFailing = false
	}
}
