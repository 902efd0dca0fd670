package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/countdown-timer/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string        `json:"event,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	BootID        string        `json:"boot_id"`
	Timer         TimerJSON     `json:"timer"`
	Ready         bool          `json:"ready"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	LastLine      string        `json:"last_line,omitempty"`
	LastEvent     *EventJSON    `json:"last_event,omitempty"`
	MQTT          MQTTStatus    `json:"mqtt"`
	Channels      []ChannelJSON `json:"channels"`
	Network       *NetworkJSON  `json:"network,omitempty"`
	Config        ConfigJSON    `json:"config"`
}

// TimerJSON is the JSON representation of the timer state.
type TimerJSON struct {
	State            string `json:"state"`
	DurationSeconds  uint32 `json:"duration_seconds"`
	RemainingSeconds uint32 `json:"remaining_seconds"`
	Remaining        string `json:"remaining"`
	Trigger          bool   `json:"trigger"`
	Finishes         int    `json:"finishes"`
}

// EventJSON is the JSON representation of the last timer transition.
type EventJSON struct {
	Type      string `json:"type"`
	Channel   string `json:"channel,omitempty"`
	Seconds   uint32 `json:"seconds"`
	Timestamp string `json:"timestamp"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ChannelJSON is the JSON representation of an input channel.
type ChannelJSON struct {
	Name    string `json:"name"`
	Pin     int    `json:"pin"`
	Command string `json:"command"`
	Seconds uint32 `json:"seconds,omitempty"`
	Presses int    `json:"presses"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Preset      string `json:"preset"`
	PollMs      int64  `json:"poll_ms"`
	DebounceMs  int64  `json:"debounce_ms"`
	ReportMs    int64  `json:"report_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Trigger     string `json:"trigger"`
	Broker      string `json:"broker"`
	HTTPPort    string `json:"http_port"`
}

// Build converts a snapshot to its JSON form.
func Build(snap Snapshot) StatusInner {
	state := string(snap.Timer.Status)
	if state == "" {
		state = "UNKNOWN"
	}

	inner := StatusInner{
		BootID: snap.BootID,
		Timer: TimerJSON{
			State:            state,
			DurationSeconds:  snap.Timer.Target,
			RemainingSeconds: snap.Timer.Remaining,
			Remaining:        logic.FormatRemaining(snap.Timer.Remaining),
			Trigger:          snap.Timer.Trigger,
			Finishes:         snap.Finishes,
		},
		Ready:         snap.Ready,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		LastLine:      snap.LastLine,
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Channels:      make([]ChannelJSON, 0, len(snap.Channels)),
		Config: ConfigJSON{
			Preset:      snap.Config.Preset,
			PollMs:      snap.Config.PollMs,
			DebounceMs:  snap.Config.DebounceMs,
			ReportMs:    snap.Config.ReportMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Trigger:     snap.Config.Trigger,
			Broker:      snap.Config.Broker,
			HTTPPort:    snap.Config.HTTPPort,
		},
	}
	for _, ch := range snap.Channels {
		inner.Channels = append(inner.Channels, ChannelJSON{
			Name:    ch.Name,
			Pin:     ch.Pin,
			Command: ch.Command.String(),
			Seconds: ch.Seconds,
			Presses: ch.Presses,
		})
	}
	if ev := snap.LastEvent; ev != nil {
		inner.LastEvent = &EventJSON{
			Type:      string(ev.Type),
			Channel:   ev.Channel,
			Seconds:   ev.Seconds,
			Timestamp: ev.Timestamp.UTC().Format(time.RFC3339),
		}
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: Build(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := Build(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
