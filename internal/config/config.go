// Package config describes the controller's channel set, trigger output and
// ambient settings, loaded from YAML or taken from a built-in preset.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/countdown-timer/internal/logic"
)

type Config struct {
	Preset   string          `yaml:"preset"`
	Channels []ChannelConfig `yaml:"channels"`
	StopPin  *int            `yaml:"stop_pin"`
	Trigger  TriggerConfig   `yaml:"trigger"`
	Timing   TimingConfig    `yaml:"timing"`
	GPIO     GPIOConfig      `yaml:"gpio"`
	RTC      RTCConfig       `yaml:"rtc"`
	MQTT     MQTTConfig      `yaml:"mqtt"`
	HTTP     string          `yaml:"http"`
	Redis    RedisConfig     `yaml:"redis"`
	Journal  string          `yaml:"journal"`
}

// ---- CHANNELS ----

type ChannelConfig struct {
	Name    string `yaml:"name"`
	Pin     int    `yaml:"pin"`
	Seconds int64  `yaml:"seconds"`
}

// ---- TRIGGER ----

// TriggerConfig selects the trigger output: a GPIO pin or a Modbus relay coil.
type TriggerConfig struct {
	Pin    *int          `yaml:"pin"`
	Modbus *ModbusConfig `yaml:"modbus"`
}

type ModbusConfig struct {
	Endpoint  string `yaml:"endpoint"`
	UnitID    uint8  `yaml:"unit_id"`
	Coil      uint16 `yaml:"coil"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- TIMING ----

type TimingConfig struct {
	PollMs     int `yaml:"poll_ms"`
	DebounceMs int `yaml:"debounce_ms"`
	ReportMs   int `yaml:"report_ms"`
	SettleMs   int `yaml:"settle_ms"`
}

func (t TimingConfig) Poll() time.Duration     { return ms(t.PollMs) }
func (t TimingConfig) Debounce() time.Duration { return ms(t.DebounceMs) }
func (t TimingConfig) Report() time.Duration   { return ms(t.ReportMs) }
func (t TimingConfig) Settle() time.Duration   { return ms(t.SettleMs) }

// ---- COLLABORATORS ----

type GPIOConfig struct {
	Chip string `yaml:"chip"`
}

// RTCConfig selects the wall clock: "ds3231" on I2C or "system".
type RTCConfig struct {
	Kind string `yaml:"kind"`
	I2C  string `yaml:"i2c"`
}

type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	HeartbeatMs int    `yaml:"heartbeat_ms"`
}

func (m MQTTConfig) Heartbeat() time.Duration { return ms(m.HeartbeatMs) }

type RedisConfig struct {
	Address string `yaml:"address"`
	DB      int    `yaml:"db"`
	Key     string `yaml:"key"`
}

const (
	RTCKindDS3231 = "ds3231"
	RTCKindSystem = "system"
)

// Parse decodes YAML over the defaults of the file's preset (or the default
// preset), so a file only needs the keys it changes.
func Parse(data []byte) (*Config, error) {
	var head struct {
		Preset string `yaml:"preset"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if head.Preset == "" {
		head.Preset = DefaultPreset
	}
	cfg, err := FromPreset(head.Preset)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// The trigger is either a pin or a coil; only fall back to the default pin
	// when the file names neither.
	cfg.Trigger = TriggerConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Trigger.Pin == nil && cfg.Trigger.Modbus == nil {
		cfg.Trigger.Pin = intPtr(PinTrigger)
	}
	return cfg, nil
}

// Load reads a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ChannelSet returns the runtime channel set: arm channels in configured
// order, then the stop channel, so a press of stop in the same pass as an arm
// leaves the timer stopped. It MUST be called only after Validate().
func (c *Config) ChannelSet() []logic.Channel {
	set := make([]logic.Channel, 0, len(c.Channels)+1)
	for _, ch := range c.Channels {
		set = append(set, logic.Channel{
			Name:    ch.Name,
			Pin:     ch.Pin,
			Command: logic.CommandArm,
			Seconds: uint32(ch.Seconds),
		})
	}
	return append(set, logic.Channel{
		Name:    StopChannelName,
		Pin:     *c.StopPin,
		Command: logic.CommandStop,
	})
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func intPtr(v int) *int {
	return &v
}
