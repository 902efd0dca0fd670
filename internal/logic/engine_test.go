package logic

import (
	"math"
	"testing"

	"github.com/sweeney/countdown-timer/internal/monotonic"
)

// fakeTrigger records actuator calls.
type fakeTrigger struct {
	level     bool
	asserts   int
	rises     int
	deasserts int
}

func (f *fakeTrigger) Assert() {
	if !f.level {
		f.rises++
	}
	f.level = true
	f.asserts++
}

func (f *fakeTrigger) Deassert() {
	f.level = false
	f.deasserts++
}

func (f *fakeTrigger) Asserted() bool {
	return f.level
}

func TestNewEngineIsIdle(t *testing.T) {
	tr := &fakeTrigger{}
	e := NewEngine(tr)

	st := e.State(0)
	if st.Status != StatusIdle {
		t.Errorf("expected IDLE, got %s", st.Status)
	}
	if st.Target != 0 || st.Remaining != 0 {
		t.Errorf("expected zero target/remaining, got %d/%d", st.Target, st.Remaining)
	}
	if st.Trigger {
		t.Error("trigger should start deasserted")
	}
}

func TestArmStartsRunning(t *testing.T) {
	for _, d := range []uint32{1, 10, 900, 3600} {
		e := NewEngine(&fakeTrigger{})
		ev := e.Arm(5000, d, "b1")

		st := e.State(5000)
		if st.Status != StatusRunning {
			t.Errorf("d=%d: expected RUNNING, got %s", d, st.Status)
		}
		if st.Remaining != d {
			t.Errorf("d=%d: expected remaining %d, got %d", d, d, st.Remaining)
		}
		if ev.Type != EventArmed || ev.Seconds != d || ev.Channel != "b1" {
			t.Errorf("d=%d: unexpected event %+v", d, ev)
		}
		if ev.Previous != StatusIdle {
			t.Errorf("d=%d: expected previous IDLE, got %s", d, ev.Previous)
		}
	}
}

func TestArmZeroPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for zero duration")
		}
	}()
	NewEngine(&fakeTrigger{}).Arm(0, 0, "b1")
}

func TestCountdownSequence(t *testing.T) {
	tr := &fakeTrigger{}
	e := NewEngine(tr)
	e.Arm(0, 10, "b1")

	if _, done := e.Tick(9000); done {
		t.Fatal("should not finish at 9000ms")
	}
	st := e.State(9000)
	if st.Status != StatusRunning || st.Remaining != 1 {
		t.Errorf("t=9000: expected RUNNING remaining 1, got %s remaining %d", st.Status, st.Remaining)
	}

	ev, done := e.Tick(10000)
	if !done {
		t.Fatal("expected finish at 10000ms")
	}
	if ev.Type != EventFinished || ev.Seconds != 10 {
		t.Errorf("unexpected finish event %+v", ev)
	}
	if st := e.State(10000); st.Target != 0 {
		t.Errorf("t=10000: expected target cleared on finish, got %d", st.Target)
	}
	st = e.State(10000)
	if st.Status != StatusFinished || !st.Trigger {
		t.Errorf("t=10000: expected FINISHED with trigger, got %s trigger=%v", st.Status, st.Trigger)
	}

	for now := monotonic.Millis(10010); now <= 15000; now += 10 {
		if _, done := e.Tick(now); done {
			t.Fatalf("t=%d: finished twice", now)
		}
	}
	st = e.State(15000)
	if st.Status != StatusFinished || !st.Trigger {
		t.Errorf("t=15000: expected FINISHED with trigger, got %s trigger=%v", st.Status, st.Trigger)
	}
	if st.Remaining != 0 {
		t.Errorf("t=15000: expected remaining 0, got %d", st.Remaining)
	}
	if tr.asserts != 1 {
		t.Errorf("expected exactly one assert, got %d", tr.asserts)
	}
}

func TestFinishBoundaryIsInclusive(t *testing.T) {
	e := NewEngine(&fakeTrigger{})
	e.Arm(0, 2, "b1")

	if got := e.Remaining(500); got != 2 {
		t.Errorf("t=500: remaining got %d, want 2", got)
	}
	if got := e.Remaining(1999); got != 1 {
		t.Errorf("t=1999: remaining got %d, want 1", got)
	}
	if _, done := e.Tick(1999); done {
		t.Error("should not finish at 1999ms")
	}
	if _, done := e.Tick(2000); !done {
		t.Error("should finish at exactly 2000ms")
	}
}

func TestLateTickStillFinishesOnce(t *testing.T) {
	tr := &fakeTrigger{}
	e := NewEngine(tr)
	e.Arm(0, 5, "b1")

	if _, done := e.Tick(60000); !done {
		t.Fatal("expected finish on first tick past target")
	}
	if _, done := e.Tick(61000); done {
		t.Error("expected no second finish")
	}
	if tr.rises != 1 {
		t.Errorf("expected one rising edge, got %d", tr.rises)
	}
}

func TestRearmWhileRunning(t *testing.T) {
	tr := &fakeTrigger{}
	e := NewEngine(tr)
	e.Arm(0, 30, "b3")

	ev := e.Arm(12000, 10, "b1")
	if ev.Previous != StatusRunning {
		t.Errorf("expected previous RUNNING, got %s", ev.Previous)
	}
	if got := e.Remaining(12000); got != 10 {
		t.Errorf("expected remaining reset to 10, got %d", got)
	}
	if tr.Asserted() {
		t.Error("trigger should be deasserted after re-arm")
	}
	if _, done := e.Tick(21999); done {
		t.Error("re-armed timer finished early")
	}
	if _, done := e.Tick(22000); !done {
		t.Error("re-armed timer should finish 10s after re-arm")
	}
}

func TestRearmAfterFinishedDeassertsBeforeTick(t *testing.T) {
	tr := &fakeTrigger{}
	e := NewEngine(tr)
	e.Arm(0, 1, "b1")
	e.Tick(1000)
	if !tr.Asserted() {
		t.Fatal("expected trigger after finish")
	}

	e.Arm(2000, 20, "b2")
	if tr.Asserted() {
		t.Error("re-arm must deassert the trigger immediately")
	}
	if e.Status() != StatusRunning {
		t.Errorf("expected RUNNING, got %s", e.Status())
	}
}

func TestStopFromAnyState(t *testing.T) {
	tests := []struct {
		name  string
		setup func(e *Engine)
		prev  Status
	}{
		{"idle", func(e *Engine) {}, StatusIdle},
		{"running", func(e *Engine) { e.Arm(0, 10, "b1") }, StatusRunning},
		{"finished", func(e *Engine) { e.Arm(0, 1, "b1"); e.Tick(1000) }, StatusFinished},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &fakeTrigger{}
			e := NewEngine(tr)
			tt.setup(e)

			ev := e.Stop(5000, "stop")
			st := e.State(5000)
			if st.Status != StatusIdle {
				t.Errorf("expected IDLE, got %s", st.Status)
			}
			if st.Trigger {
				t.Error("expected trigger LOW after stop")
			}
			if st.Target != 0 {
				t.Errorf("expected target cleared, got %d", st.Target)
			}
			if ev.Previous != tt.prev {
				t.Errorf("expected previous %s, got %s", tt.prev, ev.Previous)
			}
			if tr.deasserts == 0 {
				t.Error("stop must drive the trigger low")
			}
		})
	}
}

func TestTickIdleDoesNothing(t *testing.T) {
	tr := &fakeTrigger{}
	e := NewEngine(tr)
	if _, done := e.Tick(100000); done {
		t.Error("idle engine should not finish")
	}
	if tr.asserts != 0 || tr.deasserts != 0 {
		t.Errorf("idle tick touched the trigger: %+v", tr)
	}
}

func TestCountdownAcrossWraparound(t *testing.T) {
	start := monotonic.Millis(math.MaxUint32 - 4999)
	e := NewEngine(&fakeTrigger{})
	e.Arm(start, 10, "b1")

	// 5000ms after start is counter value 0.
	if got := e.Remaining(0); got != 5 {
		t.Errorf("remaining across wrap: got %d, want 5", got)
	}
	if _, done := e.Tick(4999); done {
		t.Error("finished early across wrap")
	}
	if _, done := e.Tick(5000); !done {
		t.Error("expected finish 10s after start across wrap")
	}
}

func TestFinishedReportsAsIdle(t *testing.T) {
	tr := &fakeTrigger{}
	e := NewEngine(tr)
	e.Arm(0, 2, "b1")
	e.Tick(2000)

	st := e.State(3000)
	if st.Status != StatusFinished || st.Target != 0 || !st.Trigger {
		t.Fatalf("expected FINISHED, target 0, trigger HIGH; got %+v", st)
	}
	if got := FormatStatus(st); got != "Timer Stopped/Idle." {
		t.Errorf("periodic line after expiry: got %q", got)
	}
	if tr.asserts != 1 {
		t.Errorf("expected one assert, got %d", tr.asserts)
	}
}
