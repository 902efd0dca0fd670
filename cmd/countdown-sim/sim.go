package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/sweeney/countdown-timer/internal/controller"
	"github.com/sweeney/countdown-timer/internal/gpio"
	"github.com/sweeney/countdown-timer/internal/logic"
	"github.com/sweeney/countdown-timer/internal/monotonic"
)

// sim owns the simulated inputs. Console commands are queued onto cmds and
// run by loop between control passes, so only one goroutine touches the bus
// and controller.
type sim struct {
	bus   *gpio.Fake
	ctrl  *controller.Controller
	clock monotonic.Clock
	out   io.Writer
	hold  time.Duration
	cmds  chan func()
}

func newSim(bus *gpio.Fake, ctrl *controller.Controller, clock monotonic.Clock, out io.Writer, hold time.Duration) *sim {
	return &sim{
		bus:   bus,
		ctrl:  ctrl,
		clock: clock,
		out:   out,
		hold:  hold,
		cmds:  make(chan func(), 16),
	}
}

// loop steps the controller on every tick and runs queued commands until ctx
// is done.
func (s *sim) loop(ctx context.Context, tick <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-s.cmds:
			f()
		case <-tick:
			s.ctrl.Step(s.clock.Millis())
		}
	}
}

// exec runs one console line. It reports whether the console should exit.
func (s *sim) exec(input string) bool {
	parts := strings.Fields(strings.TrimSpace(input))
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.help()
	case "press", "p":
		s.withPin(args, func(pin int) {
			s.do(func() { s.bus.Press(pin) })
			time.AfterFunc(s.hold, func() { s.do(func() { s.bus.Release(pin) }) })
		})
	case "hold", "h":
		s.withPin(args, func(pin int) { s.do(func() { s.bus.Press(pin) }) })
	case "release", "r":
		s.withPin(args, func(pin int) { s.do(func() { s.bus.Release(pin) }) })
	case "status", "s":
		s.do(func() { s.status() })
	case "channels", "c":
		s.do(func() { s.listChannels() })
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (s *sim) do(f func()) {
	s.cmds <- f
}

// withPin resolves a channel name or pin number and calls f with the pin.
func (s *sim) withPin(args []string, f func(pin int)) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: <command> <channel|pin>")
		return
	}
	pin, ok := s.resolve(args[0])
	if !ok {
		fmt.Fprintf(s.out, "Unknown channel: %s\n", args[0])
		return
	}
	f(pin)
}

func (s *sim) resolve(arg string) (int, bool) {
	channels := s.ctrl.Channels()
	for _, ch := range channels {
		if strings.EqualFold(ch.Name, arg) {
			return ch.Pin, true
		}
	}
	if n, err := strconv.Atoi(arg); err == nil {
		for _, ch := range channels {
			if ch.Pin == n {
				return n, true
			}
		}
	}
	return 0, false
}

func (s *sim) status() {
	st := s.ctrl.State(s.clock.Millis())
	fmt.Fprintf(s.out, "%s trigger=%v\n", logic.FormatStatus(st), st.Trigger)
}

func (s *sim) listChannels() {
	for _, ch := range s.ctrl.Channels() {
		l, _ := s.bus.Read(ch.Pin)
		switch ch.Command {
		case logic.CommandArm:
			fmt.Fprintf(s.out, "  %-12s pin %-3d %-4s arm %s\n", ch.Name, ch.Pin, l, logic.FormatDuration(ch.Seconds))
		default:
			fmt.Fprintf(s.out, "  %-12s pin %-3d %-4s stop\n", ch.Name, ch.Pin, l)
		}
	}
}

func (s *sim) help() {
	fmt.Fprintln(s.out, `
Countdown Simulator Commands:
    press <channel|pin>    - Press and release a button
    hold <channel|pin>     - Hold a button down
    release <channel|pin>  - Release a held button
    status                 - Show the timer state
    channels               - List buttons and their levels
    help                   - Show this help
    quit                   - Stop the timer and exit`)
}

// writerSink writes status lines to w.
type writerSink struct {
	w io.Writer
}

func (s writerSink) Emit(line string) {
	fmt.Fprintln(s.w, line)
}
