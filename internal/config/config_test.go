package config

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/countdown-timer/internal/logic"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, Validate(cfg))

	assert.Equal(t, "test", cfg.Preset)
	require.Len(t, cfg.Channels, 3)
	assert.Equal(t, int64(10), cfg.Channels[0].Seconds)
	assert.Equal(t, PinStop, *cfg.StopPin)
	assert.Equal(t, PinTrigger, *cfg.Trigger.Pin)
	assert.Equal(t, 50, cfg.Timing.DebounceMs)
	assert.Equal(t, 1000, cfg.Timing.ReportMs)
}

func TestPresets(t *testing.T) {
	assert.Equal(t, []string{"production", "test"}, PresetNames())

	prod, err := FromPreset("production")
	require.NoError(t, err)
	require.NoError(t, Validate(prod))
	assert.Equal(t, int64(3600), prod.Channels[2].Seconds)

	_, err = FromPreset("nightly")
	assert.Error(t, err)
}

func TestParseOverridesPreset(t *testing.T) {
	cfg, err := Parse([]byte(`
preset: production
timing:
  report_ms: 2000
`))
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))

	assert.Equal(t, int64(900), cfg.Channels[0].Seconds, "channels come from the preset")
	assert.Equal(t, 2000, cfg.Timing.ReportMs)
	assert.Equal(t, 50, cfg.Timing.DebounceMs, "unset keys keep defaults")
	assert.Equal(t, PinTrigger, *cfg.Trigger.Pin)
}

func TestParseChannelsReplacePreset(t *testing.T) {
	cfg, err := Parse([]byte(`
channels:
  - pin: 5
    seconds: 45
stop_pin: 6
`))
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))
	require.Len(t, cfg.Channels, 1)
	assert.Equal(t, 5, cfg.Channels[0].Pin)
	assert.Equal(t, 6, *cfg.StopPin)
}

func TestParseModbusTrigger(t *testing.T) {
	cfg, err := Parse([]byte(`
trigger:
  modbus:
    endpoint: 10.0.0.9:502
    unit_id: 3
    coil: 2
`))
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))
	assert.Nil(t, cfg.Trigger.Pin, "a modbus trigger must not inherit the default pin")

	Normalize(cfg)
	assert.Equal(t, 200, cfg.Trigger.Modbus.TimeoutMs)
	assert.Equal(t, uint8(3), cfg.Trigger.Modbus.UnitID)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("channels: ["))
	assert.Error(t, err)

	_, err = Parse([]byte("preset: nightly"))
	assert.Error(t, err)
}

func TestLoadExampleFile(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "countdown-timer.example.yaml"))
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))
	assert.Equal(t, "production", cfg.Preset)
	assert.Equal(t, "/dev/i2c-1", cfg.RTC.I2C)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http: \"\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "", cfg.HTTP)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   error
	}{
		{"no channels", func(c *Config) { c.Channels = nil }, ErrNoChannels},
		{"zero duration", func(c *Config) { c.Channels[1].Seconds = 0 }, ErrInvalidDuration},
		{"negative duration", func(c *Config) { c.Channels[0].Seconds = -5 }, ErrInvalidDuration},
		{"too long", func(c *Config) { c.Channels[0].Seconds = MaxSeconds + 1 }, ErrDurationTooLong},
		{"negative pin", func(c *Config) { c.Channels[0].Pin = -1 }, ErrInvalidPin},
		{"duplicate channel pin", func(c *Config) { c.Channels[1].Pin = c.Channels[0].Pin }, ErrDuplicatePin},
		{"stop collides", func(c *Config) { *c.StopPin = c.Channels[2].Pin }, ErrDuplicatePin},
		{"trigger collides", func(c *Config) { *c.Trigger.Pin = *c.StopPin }, ErrDuplicatePin},
		{"missing stop", func(c *Config) { c.StopPin = nil }, ErrMissingStopPin},
		{"no trigger", func(c *Config) { c.Trigger = TriggerConfig{} }, ErrTriggerAmbiguous},
		{"two triggers", func(c *Config) { c.Trigger.Modbus = &ModbusConfig{Endpoint: "x:502"} }, ErrTriggerAmbiguous},
		{"zero debounce", func(c *Config) { c.Timing.DebounceMs = 0 }, ErrInvalidTiming},
		{"poll slower than debounce", func(c *Config) { c.Timing.PollMs = 60 }, ErrInvalidTiming},
		{"negative heartbeat", func(c *Config) { c.MQTT.HeartbeatMs = -1 }, ErrInvalidTiming},
		{"unknown rtc", func(c *Config) { c.RTC.Kind = "ds1307" }, ErrUnknownRTC},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			assert.ErrorIs(t, Validate(cfg), tt.want)
		})
	}
}

func TestValidateDoesNotMutate(t *testing.T) {
	cfg := Defaults()
	cfg.Channels[0].Name = ""
	require.NoError(t, Validate(cfg))
	assert.Equal(t, "", cfg.Channels[0].Name)
}

func TestNormalizeNamesChannels(t *testing.T) {
	cfg := Defaults()
	cfg.Channels = []ChannelConfig{{Pin: 13, Seconds: 900}, {Name: "long", Pin: 12, Seconds: 3600}}
	require.NoError(t, Validate(cfg))

	Normalize(cfg)
	assert.Equal(t, "15 Minutes", cfg.Channels[0].Name)
	assert.Equal(t, "long", cfg.Channels[1].Name)
}

func TestChannelSet(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, Validate(cfg))

	set := cfg.ChannelSet()
	require.Len(t, set, 4)
	assert.Equal(t, logic.Channel{Name: "10s", Pin: 13, Command: logic.CommandArm, Seconds: 10}, set[0])
	assert.Equal(t, logic.Channel{Name: StopChannelName, Pin: PinStop, Command: logic.CommandStop}, set[3])
}

func TestTimingDurations(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "50ms", cfg.Timing.Debounce().String())
	assert.Equal(t, "1s", cfg.Timing.Report().String())
	assert.Equal(t, "15m0s", cfg.MQTT.Heartbeat().String())
}

func TestValidateIntervalsFitCounter(t *testing.T) {
	if strconv.IntSize < 64 {
		t.Skip("int cannot exceed the counter range")
	}
	var counterMax int64 = math.MaxUint32
	longest := int(counterMax)
	over := longest + 1

	cfg := Defaults()
	cfg.MQTT.HeartbeatMs = longest
	cfg.Timing.ReportMs = longest
	assert.NoError(t, Validate(cfg))

	for name, mutate := range map[string]func(c *Config){
		"report":    func(c *Config) { c.Timing.ReportMs = over },
		"debounce":  func(c *Config) { c.Timing.DebounceMs = over },
		"settle":    func(c *Config) { c.Timing.SettleMs = over },
		"heartbeat": func(c *Config) { c.MQTT.HeartbeatMs = over },
	} {
		cfg := Defaults()
		mutate(cfg)
		assert.ErrorIs(t, Validate(cfg), ErrInvalidTiming, name)
	}
}
