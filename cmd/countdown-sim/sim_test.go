package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/countdown-timer/internal/controller"
	"github.com/sweeney/countdown-timer/internal/gpio"
	"github.com/sweeney/countdown-timer/internal/logic"
	"github.com/sweeney/countdown-timer/internal/monotonic"
	"github.com/sweeney/countdown-timer/internal/rtc"
	"github.com/sweeney/countdown-timer/internal/trigger"
)

func newTestSim(t *testing.T) (*sim, *gpio.Fake, *monotonic.Fake, *bytes.Buffer) {
	t.Helper()
	bus := gpio.NewFake()
	channels := []logic.Channel{
		{Name: "10s", Pin: 13, Command: logic.CommandArm, Seconds: 10},
		{Name: "stop", Pin: 27, Command: logic.CommandStop},
	}
	for _, ch := range channels {
		if err := bus.ConfigureInput(ch.Pin); err != nil {
			t.Fatal(err)
		}
	}
	pin, err := trigger.NewPin(bus, 4)
	if err != nil {
		t.Fatal(err)
	}
	out := &bytes.Buffer{}
	clock := monotonic.NewFake(0)
	ctrl, err := controller.New(controller.Options{
		Channels: channels,
		Bus:      bus,
		Trigger:  trigger.New(pin),
		Wall:     &rtc.Fake{Time: time.Date(2026, 3, 7, 9, 0, 0, 0, time.UTC)},
		Sink:     writerSink{w: out},
		Debounce: 50 * time.Millisecond,
		Report:   time.Second,
	}, 0)
	if err != nil {
		t.Fatal(err)
	}
	return newSim(bus, ctrl, clock, out, time.Hour), bus, clock, out
}

// drain runs every queued command on the calling goroutine.
func drain(s *sim) {
	for {
		select {
		case f := <-s.cmds:
			f()
		default:
			return
		}
	}
}

func TestExecHoldAndRelease(t *testing.T) {
	s, bus, _, _ := newTestSim(t)

	s.exec("hold 10s")
	drain(s)
	if l, _ := bus.Read(13); l != logic.Low {
		t.Fatalf("expected pin 13 LOW after hold, got %s", l)
	}

	s.exec("release 13")
	drain(s)
	if l, _ := bus.Read(13); l != logic.High {
		t.Fatalf("expected pin 13 HIGH after release, got %s", l)
	}
}

func TestExecPressArmsTimer(t *testing.T) {
	s, _, clock, out := newTestSim(t)

	s.exec("press 10s")
	drain(s)
	for i := 0; i < 10; i++ {
		clock.Advance(10 * time.Millisecond)
		s.ctrl.Step(clock.Millis())
	}
	if got := s.ctrl.State(clock.Millis()).Status; got != logic.StatusRunning {
		t.Errorf("expected RUNNING after press, got %s", got)
	}
	if !strings.Contains(out.String(), ">> Timer Set: 10 Seconds <<") {
		t.Errorf("expected armed notice, got %q", out.String())
	}
}

func TestExecUnknownChannel(t *testing.T) {
	s, _, _, out := newTestSim(t)

	s.exec("press 99")
	if !strings.Contains(out.String(), "Unknown channel: 99") {
		t.Errorf("got %q", out.String())
	}
	if len(s.cmds) != 0 {
		t.Error("unknown channel must not queue a command")
	}
}

func TestExecStatusAndQuit(t *testing.T) {
	s, _, _, out := newTestSim(t)

	if s.exec("status") {
		t.Fatal("status must not exit")
	}
	drain(s)
	if !strings.Contains(out.String(), "Timer Stopped/Idle. trigger=false") {
		t.Errorf("got %q", out.String())
	}
	if !s.exec("quit") {
		t.Error("quit must exit")
	}
	if s.exec("") {
		t.Error("blank line must not exit")
	}
}

func TestLoopRunsCommandsAndTicks(t *testing.T) {
	s, bus, _, _ := newTestSim(t)
	ctx, cancel := context.WithCancel(context.Background())
	tick := make(chan time.Time)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.loop(ctx, tick)
	}()

	s.exec("hold stop")
	ran := make(chan struct{})
	s.do(func() { close(ran) })
	<-ran
	tick <- time.Time{}
	cancel()
	<-done

	if l, _ := bus.Read(27); l != logic.Low {
		t.Errorf("expected stop held, got %s", l)
	}
}
