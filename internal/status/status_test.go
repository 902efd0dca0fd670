package status

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/countdown-timer/internal/logic"
)

var testChannels = []logic.Channel{
	{Name: "10s", Pin: 13, Command: logic.CommandArm, Seconds: 10},
	{Name: "20s", Pin: 12, Command: logic.CommandArm, Seconds: 20},
	{Name: "stop", Pin: 27, Command: logic.CommandStop},
}

func newTestTracker() *Tracker {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{
		Preset:      "test",
		PollMs:      10,
		DebounceMs:  50,
		ReportMs:    1000,
		HeartbeatMs: 900000,
		Trigger:     "gpio:4",
		Broker:      "tcp://localhost:1883",
		HTTPPort:    ":80",
	}
	tr := NewTracker(start, "boot-1", cfg, testChannels)
	tr.now = func() time.Time { return start.Add(90 * time.Second) }
	return tr
}

func TestNewTracker(t *testing.T) {
	tr := newTestTracker()

	snap := tr.Snapshot()
	if snap.BootID != "boot-1" {
		t.Errorf("BootID: got %q", snap.BootID)
	}
	if snap.Timer.Status != logic.StatusIdle {
		t.Errorf("Timer.Status: got %s, want IDLE", snap.Timer.Status)
	}
	if len(snap.Channels) != 3 {
		t.Fatalf("Channels: got %d, want 3", len(snap.Channels))
	}
	if snap.Channels[2].Command != logic.CommandStop {
		t.Errorf("expected stop channel last, got %s", snap.Channels[2].Command)
	}
	if snap.Ready {
		t.Error("expected Ready=false initially")
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
	if snap.Uptime() != 90*time.Second {
		t.Errorf("Uptime: got %v, want 90s", snap.Uptime())
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := newTestTracker()

	tr.Update(logic.TimerState{Status: logic.StatusRunning, Target: 20, Remaining: 7})
	tr.RecordPress(1)
	tr.RecordPress(1)
	tr.RecordPress(2)
	tr.RecordPress(9) // out of range, ignored

	snap := tr.Snapshot()
	if snap.Timer.Status != logic.StatusRunning || snap.Timer.Remaining != 7 {
		t.Errorf("Timer: got %+v", snap.Timer)
	}
	if snap.Channels[1].Presses != 2 {
		t.Errorf("Presses[1]: got %d, want 2", snap.Channels[1].Presses)
	}
	if snap.Channels[2].Presses != 1 {
		t.Errorf("Presses[2]: got %d, want 1", snap.Channels[2].Presses)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	tr := newTestTracker()
	tr.RecordEvent(logic.Event{Type: logic.EventArmed, Channel: "10s", Seconds: 10})

	snap := tr.Snapshot()
	snap.Channels[0].Presses = 99
	snap.LastEvent.Channel = "changed"

	again := tr.Snapshot()
	if again.Channels[0].Presses != 0 {
		t.Error("mutating a snapshot leaked into the tracker (channels)")
	}
	if again.LastEvent.Channel != "10s" {
		t.Error("mutating a snapshot leaked into the tracker (last event)")
	}
}

func TestRecordEventCountsFinishes(t *testing.T) {
	tr := newTestTracker()
	tr.RecordEvent(logic.Event{Type: logic.EventArmed, Seconds: 10})
	tr.RecordEvent(logic.Event{Type: logic.EventFinished, Seconds: 10})
	tr.RecordEvent(logic.Event{Type: logic.EventStopped})
	tr.RecordEvent(logic.Event{Type: logic.EventFinished, Seconds: 10})

	snap := tr.Snapshot()
	if snap.Finishes != 2 {
		t.Errorf("Finishes: got %d, want 2", snap.Finishes)
	}
	if snap.LastEvent.Type != logic.EventFinished {
		t.Errorf("LastEvent: got %s", snap.LastEvent.Type)
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := newTestTracker()

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSetNetwork(t *testing.T) {
	tr := newTestTracker()

	if tr.Snapshot().Network != nil {
		t.Error("expected nil Network initially")
	}

	tr.SetNetwork(&NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected"})
	snap := tr.Snapshot()
	if snap.Network == nil || snap.Network.IP != "192.168.1.42" {
		t.Errorf("Network: got %+v", snap.Network)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := newTestTracker()
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.Update(logic.TimerState{Status: logic.StatusRunning, Target: 10, Remaining: uint32(i % 10)})
			tr.RecordPress(i % 3)
			tr.SetLastLine("line")
		}
	}()
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				_ = FormatJSON(tr.Snapshot())
			}
		}()
	}
	wg.Wait()
}

func TestFormatJSON(t *testing.T) {
	tr := newTestTracker()
	tr.SetReady(true)
	tr.Update(logic.TimerState{Status: logic.StatusRunning, Target: 20, Remaining: 75})
	tr.RecordPress(1)
	tr.RecordEvent(logic.Event{
		Timestamp: time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC),
		Type:      logic.EventArmed,
		Channel:   "20s",
		Seconds:   20,
	})
	tr.SetLastLine("01/01/2026 00:01:30 | Timer Running: 01:15 remaining.")

	var sj StatusJSON
	if err := json.Unmarshal(FormatJSON(tr.Snapshot()), &sj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	s := sj.Status
	if s.Event != "" || s.Reason != "" {
		t.Errorf("web JSON must not carry event/reason, got %q/%q", s.Event, s.Reason)
	}
	if s.Timer.State != "RUNNING" || s.Timer.Remaining != "01:15" || s.Timer.RemainingSeconds != 75 {
		t.Errorf("Timer: got %+v", s.Timer)
	}
	if !s.Ready {
		t.Error("expected ready")
	}
	if s.UptimeSeconds != 90 {
		t.Errorf("UptimeSeconds: got %d, want 90", s.UptimeSeconds)
	}
	if s.StartTime != "2026-01-01T00:00:00Z" {
		t.Errorf("StartTime: got %s", s.StartTime)
	}
	if len(s.Channels) != 3 || s.Channels[1].Presses != 1 || s.Channels[2].Command != "STOP" {
		t.Errorf("Channels: got %+v", s.Channels)
	}
	if s.LastEvent == nil || s.LastEvent.Type != "ARMED" || s.LastEvent.Channel != "20s" {
		t.Errorf("LastEvent: got %+v", s.LastEvent)
	}
	if s.Config.Trigger != "gpio:4" || s.Config.ReportMs != 1000 {
		t.Errorf("Config: got %+v", s.Config)
	}
	if s.Network != nil {
		t.Error("expected network omitted when unset")
	}
}

func TestFormatStatusEvent(t *testing.T) {
	tr := newTestTracker()

	payload := FormatStatusEvent(tr.Snapshot(), "SHUTDOWN", "SIGTERM")
	if strings.Contains(string(payload), "\n") {
		t.Error("status event payload should be compact")
	}

	var sj StatusJSON
	if err := json.Unmarshal(payload, &sj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if sj.Status.Event != "SHUTDOWN" || sj.Status.Reason != "SIGTERM" {
		t.Errorf("event/reason: got %q/%q", sj.Status.Event, sj.Status.Reason)
	}
	if sj.Status.BootID != "boot-1" {
		t.Errorf("BootID: got %q", sj.Status.BootID)
	}
	if sj.Status.LastEvent != nil {
		t.Error("expected last_event omitted before any transition")
	}
}
