package logic

import (
	"fmt"
	"time"

	"github.com/sweeney/countdown-timer/internal/monotonic"
)

// DefaultReportInterval is the periodic status cadence.
const DefaultReportInterval = time.Second

const (
	// Banner is emitted once when the control loop starts.
	Banner = "System Ready. RTC Time | Timer Status"

	finishedMessage = "TIMER FINISHED!"
	unknownTime     = "--/--/---- --:--:--"
)

// Sink receives formatted status lines.
type Sink interface {
	Emit(line string)
}

// WallClock supplies calendar time for report lines.
type WallClock interface {
	Now() (time.Time, error)
}

// Reporter emits a status line at most once per interval and a one-shot line
// when the countdown finishes.
type Reporter struct {
	gate Gate
	wall WallClock
	sink Sink
}

// NewReporter creates a reporter whose first periodic line is due one interval
// after start.
func NewReporter(interval time.Duration, start monotonic.Millis, wall WallClock, sink Sink) *Reporter {
	return &Reporter{
		gate: NewGate(interval, start),
		wall: wall,
		sink: sink,
	}
}

// MaybeReport emits a status line for st if the report interval has elapsed on
// the monotonic counter. It returns the line and whether one was emitted. A
// wall clock failure does not suppress the line; the error is returned so the
// caller can log it.
func (r *Reporter) MaybeReport(now monotonic.Millis, st TimerState) (string, bool, error) {
	if !r.gate.Ready(now) {
		return "", false, nil
	}
	line, err := r.line(FormatStatus(st))
	r.sink.Emit(line)
	return line, true, err
}

// Finished emits the expiry notice immediately, outside the periodic cadence.
func (r *Reporter) Finished() (string, error) {
	line, err := r.line(finishedMessage)
	r.sink.Emit(line)
	return line, err
}

// Announce emits an operator feedback line without a timestamp.
func (r *Reporter) Announce(msg string) {
	r.sink.Emit(msg)
}

func (r *Reporter) line(body string) (string, error) {
	ts, err := r.wall.Now()
	if err != nil {
		return unknownTime + " | " + body, err
	}
	return FormatTimestamp(ts) + " | " + body, nil
}

// FormatTimestamp renders t as MM/DD/YYYY hh:mm:ss.
func FormatTimestamp(t time.Time) string {
	return fmt.Sprintf("%02d/%02d/%04d %02d:%02d:%02d",
		int(t.Month()), t.Day(), t.Year(), t.Hour(), t.Minute(), t.Second())
}

// FormatStatus renders the timer part of a periodic status line. Expiry is
// announced once by Finished; afterwards a finished timer reads as idle.
func FormatStatus(st TimerState) string {
	if st.Status == StatusRunning {
		return fmt.Sprintf("Timer Running: %s remaining.", FormatRemaining(st.Remaining))
	}
	return "Timer Stopped/Idle."
}

// FormatRemaining renders whole seconds as MM:SS. Minutes are not capped, so an
// hour reads 60:00.
func FormatRemaining(seconds uint32) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// FormatDuration renders an armed duration for operator feedback,
// e.g. "10 Seconds", "15 Minutes", "1 Hour", "90 Seconds".
func FormatDuration(seconds uint32) string {
	switch {
	case seconds%3600 == 0:
		return plural(seconds/3600, "Hour")
	case seconds%60 == 0:
		return plural(seconds/60, "Minute")
	default:
		return plural(seconds, "Second")
	}
}

func plural(n uint32, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// ArmedNotice is the operator feedback line for an arm command.
func ArmedNotice(seconds uint32) string {
	return fmt.Sprintf(">> Timer Set: %s <<", FormatDuration(seconds))
}

// StoppedNotice is the operator feedback line for a stop command.
const StoppedNotice = ">> Timer STOPPED <<"
