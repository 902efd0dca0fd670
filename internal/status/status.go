// Package status provides a thread-safe status tracker for the countdown-timer daemon.
// The control loop is its only writer; HTTP handlers and MQTT heartbeats read it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/countdown-timer/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Preset      string
	PollMs      int64
	DebounceMs  int64
	ReportMs    int64
	HeartbeatMs int64
	Trigger     string // "gpio:4" or "modbus:host:502/1/0"
	Broker      string
	HTTPPort    string
}

// ChannelInfo describes one input channel and how often it has been pressed.
type ChannelInfo struct {
	Name    string
	Pin     int
	Command logic.Command
	Seconds uint32
	Presses int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	BootID        string
	Timer         logic.TimerState
	Channels      []ChannelInfo
	Ready         bool
	LastEvent     *logic.Event
	LastLine      string
	Finishes      int
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time, boot ID, config and
// channel set.
func NewTracker(startTime time.Time, bootID string, cfg Config, channels []logic.Channel) *Tracker {
	infos := make([]ChannelInfo, len(channels))
	for i, ch := range channels {
		infos[i] = ChannelInfo{Name: ch.Name, Pin: ch.Pin, Command: ch.Command, Seconds: ch.Seconds}
	}
	return &Tracker{
		snap: Snapshot{
			BootID:    bootID,
			Channels:  infos,
			StartTime: startTime,
			Config:    cfg,
			Timer:     logic.TimerState{Status: logic.StatusIdle},
		},
		now: time.Now,
	}
}

// Update sets the timer state. Called from the control loop on every pass.
func (t *Tracker) Update(st logic.TimerState) {
	t.mu.Lock()
	t.snap.Timer = st
	t.mu.Unlock()
}

// SetReady marks the inputs as seeded and the loop as running.
func (t *Tracker) SetReady(ready bool) {
	t.mu.Lock()
	t.snap.Ready = ready
	t.mu.Unlock()
}

// RecordPress counts a debounced press on channel index ch.
func (t *Tracker) RecordPress(ch int) {
	t.mu.Lock()
	if ch >= 0 && ch < len(t.snap.Channels) {
		t.snap.Channels[ch].Presses++
	}
	t.mu.Unlock()
}

// RecordEvent stores the most recent timer transition.
func (t *Tracker) RecordEvent(ev logic.Event) {
	t.mu.Lock()
	t.snap.LastEvent = &ev
	if ev.Type == logic.EventFinished {
		t.snap.Finishes++
	}
	t.mu.Unlock()
}

// SetLastLine stores the most recent status line written to the sink.
func (t *Tracker) SetLastLine(line string) {
	t.mu.Lock()
	t.snap.LastLine = line
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Channels = append([]ChannelInfo(nil), t.snap.Channels...)
	if t.snap.LastEvent != nil {
		ev := *t.snap.LastEvent
		s.LastEvent = &ev
	}
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
