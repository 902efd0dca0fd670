package trigger

import (
	"errors"
	"testing"

	"github.com/sweeney/countdown-timer/internal/gpio"
	"github.com/sweeney/countdown-timer/internal/logic"
)

func TestAssertIsIdempotent(t *testing.T) {
	out := &FakeOutput{}
	a := New(out)

	a.Assert()
	a.Assert()

	if !a.Asserted() || !out.Level() {
		t.Error("expected trigger HIGH")
	}
	if a.Rises() != 1 {
		t.Errorf("expected one rising transition, got %d", a.Rises())
	}
}

func TestDeassertIsIdempotent(t *testing.T) {
	out := &FakeOutput{}
	a := New(out)

	a.Deassert()
	a.Deassert()

	if a.Asserted() || out.Level() {
		t.Error("expected trigger LOW")
	}
	if len(out.Levels) != 2 {
		t.Errorf("every deassert must re-drive the line, got %d writes", len(out.Levels))
	}
	if a.Rises() != 0 {
		t.Errorf("expected no rising transitions, got %d", a.Rises())
	}
}

func TestRisesCountsEachExpiry(t *testing.T) {
	a := New(&FakeOutput{})

	a.Assert()
	a.Deassert()
	a.Assert()

	if a.Rises() != 2 {
		t.Errorf("expected 2 rises, got %d", a.Rises())
	}
}

func TestFailedWriteKeepsRequestedLevel(t *testing.T) {
	out := &FakeOutput{SetError: errors.New("bus fault")}
	a := New(out)

	a.Assert()
	if !a.Asserted() {
		t.Error("requested level should be tracked even if the write failed")
	}
	if a.Failures() != 1 {
		t.Errorf("expected 1 failure, got %d", a.Failures())
	}

	out.SetError = nil
	a.Deassert()
	if out.Level() {
		t.Error("deassert after a failure must drive LOW")
	}
}

func TestPinOutput(t *testing.T) {
	bus := gpio.NewFake()
	p, err := NewPin(bus, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bus.IsOutput(4) || bus.Output(4) != logic.Low {
		t.Fatal("expected pin 4 configured as output LOW")
	}

	a := New(p)
	a.Assert()
	if bus.Output(4) != logic.High {
		t.Errorf("expected HIGH on pin 4, got %s", bus.Output(4))
	}
	a.Deassert()
	if bus.Output(4) != logic.Low {
		t.Errorf("expected LOW on pin 4, got %s", bus.Output(4))
	}
}

func TestPinOutputConflict(t *testing.T) {
	bus := gpio.NewFake()
	bus.ConfigureInput(4)

	if _, err := NewPin(bus, 4); err == nil {
		t.Error("expected error configuring an input pin as trigger")
	}
}

func TestCoilValue(t *testing.T) {
	if coilValue(true) != 0xFF00 {
		t.Errorf("on: got %#x", coilValue(true))
	}
	if coilValue(false) != 0x0000 {
		t.Errorf("off: got %#x", coilValue(false))
	}
}

func TestNewModbusCoilRequiresEndpoint(t *testing.T) {
	if _, err := NewModbusCoil(ModbusConfig{}); err == nil {
		t.Error("expected error for empty endpoint")
	}
}
