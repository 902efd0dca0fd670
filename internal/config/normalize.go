package config

import "github.com/sweeney/countdown-timer/internal/logic"

// defaultModbusTimeoutMs bounds a relay write inside the control loop.
const defaultModbusTimeoutMs = 200

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	for i := range cfg.Channels {
		ch := &cfg.Channels[i]
		// Unnamed channels are labelled by their duration, e.g. "15 Minutes".
		if ch.Name == "" {
			ch.Name = logic.FormatDuration(uint32(ch.Seconds))
		}
	}

	if m := cfg.Trigger.Modbus; m != nil && m.TimeoutMs == 0 {
		m.TimeoutMs = defaultModbusTimeoutMs
	}
}
