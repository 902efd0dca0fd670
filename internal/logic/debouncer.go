package logic

import (
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/countdown-timer/internal/monotonic"
)

// DefaultDebounceWindow is the minimum time between samplings of the input set.
const DefaultDebounceWindow = 50 * time.Millisecond

// Gate admits an action at most once per interval, measured on the monotonic counter.
type Gate struct {
	interval uint32
	last     monotonic.Millis
}

// NewGate creates a gate whose first opening is one interval after start.
func NewGate(interval time.Duration, start monotonic.Millis) Gate {
	return Gate{interval: uint32(interval.Milliseconds()), last: start}
}

// Ready reports whether the interval has elapsed since the last opening and, if
// so, records now as the new opening time.
func (g *Gate) Ready(now monotonic.Millis) bool {
	if monotonic.Since(g.last, now) < g.interval {
		return false
	}
	g.last = now
	return true
}

// Debouncer turns raw pulled-up input levels into press edges.
// The window is shared by every channel: the whole set is re-sampled at most once
// per window and reads inside the window are not performed at all.
type Debouncer struct {
	gate   Gate
	stable []Level
}

// NewDebouncer creates a debouncer for n channels. Every channel starts HIGH
// (released) until Seed is called.
func NewDebouncer(window time.Duration, start monotonic.Millis, n int) *Debouncer {
	stable := make([]Level, n)
	for i := range stable {
		stable[i] = High
	}
	return &Debouncer{
		gate:   NewGate(window, start),
		stable: stable,
	}
}

// Seed sets the last stable level of each channel from a boot-time read so a
// button held during boot does not register as a press.
func (d *Debouncer) Seed(levels []Level) {
	copy(d.stable, levels)
}

// Stable returns the last sampled level of channel ch.
func (d *Debouncer) Stable(ch int) Level {
	return d.stable[ch]
}

// Poll samples every channel through read if the window has elapsed and returns
// the channels that went from HIGH to LOW. A channel whose read fails keeps its
// previous level and produces no edge; the read errors are joined and returned
// together with the edges of the channels that did read.
func (d *Debouncer) Poll(now monotonic.Millis, read func(ch int) (Level, error)) ([]Edge, error) {
	if !d.gate.Ready(now) {
		return nil, nil
	}

	var edges []Edge
	var errs []error
	for ch := range d.stable {
		level, err := read(ch)
		if err != nil {
			errs = append(errs, fmt.Errorf("channel %d: %w", ch, err))
			continue
		}
		if level == Low && d.stable[ch] == High {
			edges = append(edges, Edge{Channel: ch})
		}
		d.stable[ch] = level
	}
	return edges, errors.Join(errs...)
}
