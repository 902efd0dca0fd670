package config

import (
	"errors"
	"fmt"
	"math"
)

// MaxSeconds is the longest countdown the 32-bit millisecond counter can time
// without ambiguity.
const MaxSeconds = math.MaxUint32 / 1000

var (
	ErrNoChannels       = errors.New("at least one duration channel is required")
	ErrInvalidDuration  = errors.New("duration must be a positive number of seconds")
	ErrDurationTooLong  = fmt.Errorf("duration exceeds %d seconds", MaxSeconds)
	ErrInvalidPin       = errors.New("pin must be a non-negative line offset")
	ErrDuplicatePin     = errors.New("pin is assigned more than once")
	ErrMissingStopPin   = errors.New("stop_pin is required")
	ErrTriggerAmbiguous = errors.New("trigger must set exactly one of pin or modbus")
	ErrInvalidTiming    = errors.New("invalid timing")
	ErrUnknownRTC       = errors.New("unknown rtc kind")
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if len(cfg.Channels) == 0 {
		return ErrNoChannels
	}

	// key = pin, value = owner description
	owners := make(map[int]string)
	claim := func(pin int, owner string) error {
		if pin < 0 {
			return fmt.Errorf("%s: pin %d: %w", owner, pin, ErrInvalidPin)
		}
		if prev, exists := owners[pin]; exists {
			return fmt.Errorf("%s: pin %d already used by %s: %w", owner, pin, prev, ErrDuplicatePin)
		}
		owners[pin] = owner
		return nil
	}

	for i, ch := range cfg.Channels {
		owner := fmt.Sprintf("channel %d", i)
		if ch.Name != "" {
			owner = fmt.Sprintf("channel %q", ch.Name)
		}
		if ch.Seconds <= 0 {
			return fmt.Errorf("%s: %d: %w", owner, ch.Seconds, ErrInvalidDuration)
		}
		if ch.Seconds > MaxSeconds {
			return fmt.Errorf("%s: %d: %w", owner, ch.Seconds, ErrDurationTooLong)
		}
		if err := claim(ch.Pin, owner); err != nil {
			return err
		}
	}

	if cfg.StopPin == nil {
		return ErrMissingStopPin
	}
	if err := claim(*cfg.StopPin, "stop"); err != nil {
		return err
	}

	switch {
	case cfg.Trigger.Pin != nil && cfg.Trigger.Modbus == nil:
		if err := claim(*cfg.Trigger.Pin, "trigger"); err != nil {
			return err
		}
	case cfg.Trigger.Modbus != nil && cfg.Trigger.Pin == nil:
		if cfg.Trigger.Modbus.Endpoint == "" {
			return errors.New("trigger modbus: endpoint is required")
		}
		if cfg.Trigger.Modbus.TimeoutMs < 0 {
			return fmt.Errorf("trigger modbus: timeout_ms %d: %w", cfg.Trigger.Modbus.TimeoutMs, ErrInvalidTiming)
		}
	default:
		return ErrTriggerAmbiguous
	}

	t := cfg.Timing
	if t.PollMs <= 0 || t.DebounceMs <= 0 || t.ReportMs <= 0 || t.SettleMs < 0 {
		return fmt.Errorf("%w: poll_ms, debounce_ms and report_ms must be positive", ErrInvalidTiming)
	}
	// The loop period bounds how late a gate can open; a period longer than the
	// debounce window would merge presses.
	if t.PollMs > t.DebounceMs {
		return fmt.Errorf("%w: poll_ms %d exceeds debounce_ms %d", ErrInvalidTiming, t.PollMs, t.DebounceMs)
	}
	if cfg.MQTT.HeartbeatMs < 0 {
		return fmt.Errorf("%w: heartbeat_ms must not be negative", ErrInvalidTiming)
	}
	// Gates compare against the 32-bit millisecond counter; a longer interval
	// would wrap and open early.
	for _, iv := range []struct {
		name string
		ms   int
	}{
		{"poll_ms", t.PollMs},
		{"debounce_ms", t.DebounceMs},
		{"report_ms", t.ReportMs},
		{"settle_ms", t.SettleMs},
		{"heartbeat_ms", cfg.MQTT.HeartbeatMs},
	} {
		if int64(iv.ms) > math.MaxUint32 {
			return fmt.Errorf("%w: %s %d exceeds %d", ErrInvalidTiming, iv.name, iv.ms, uint32(math.MaxUint32))
		}
	}

	switch cfg.RTC.Kind {
	case RTCKindDS3231:
		if cfg.RTC.I2C == "" {
			return errors.New("rtc: i2c device path is required for ds3231")
		}
	case RTCKindSystem:
	default:
		return fmt.Errorf("%w %q", ErrUnknownRTC, cfg.RTC.Kind)
	}

	return nil
}
