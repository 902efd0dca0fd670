package config

import (
	"fmt"
	"sort"
)

// StopChannelName names the stop control in events and status output.
const StopChannelName = "stop"

// Board wiring shared by both presets (BCM numbering).
const (
	PinButton1 = 13
	PinButton2 = 12
	PinButton3 = 14
	PinStop    = 27
	PinTrigger = 4
)

// Presets are complete channel sets for the two button layouts in use. Which
// one applies is an integrator decision, not something the controller infers.
var Presets = map[string]func() []ChannelConfig{
	// Short durations for bench testing the wiring.
	"test": func() []ChannelConfig {
		return []ChannelConfig{
			{Name: "10s", Pin: PinButton1, Seconds: 10},
			{Name: "20s", Pin: PinButton2, Seconds: 20},
			{Name: "30s", Pin: PinButton3, Seconds: 30},
		}
	},
	"production": func() []ChannelConfig {
		return []ChannelConfig{
			{Name: "15m", Pin: PinButton1, Seconds: 15 * 60},
			{Name: "30m", Pin: PinButton2, Seconds: 30 * 60},
			{Name: "60m", Pin: PinButton3, Seconds: 60 * 60},
		}
	},
}

// DefaultPreset is used when neither a config file nor -preset is given.
const DefaultPreset = "test"

// Defaults returns the default preset with default timing and collaborators.
func Defaults() *Config {
	cfg, _ := FromPreset(DefaultPreset)
	return cfg
}

// FromPreset returns a config using the named channel preset.
func FromPreset(name string) (*Config, error) {
	preset, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q (have %v)", name, PresetNames())
	}
	return &Config{
		Preset:   name,
		Channels: preset(),
		StopPin:  intPtr(PinStop),
		Trigger:  TriggerConfig{Pin: intPtr(PinTrigger)},
		Timing: TimingConfig{
			PollMs:     10,
			DebounceMs: 50,
			ReportMs:   1000,
			SettleMs:   100,
		},
		GPIO: GPIOConfig{Chip: "gpiochip0"},
		RTC:  RTCConfig{Kind: RTCKindDS3231, I2C: "/dev/i2c-1"},
		MQTT: MQTTConfig{HeartbeatMs: 15 * 60 * 1000},
		HTTP: ":80",
		Redis: RedisConfig{
			Key: "countdown:timer",
		},
	}, nil
}

// PresetNames returns the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for n := range Presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
