package mirror

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sweeney/countdown-timer/internal/logic"
	"github.com/sweeney/countdown-timer/internal/status"
)

func TestFieldsIdle(t *testing.T) {
	snap := status.Snapshot{
		BootID: "boot-1",
		Timer:  logic.TimerState{Status: logic.StatusIdle},
		Now:    time.Date(2026, 3, 7, 9, 0, 0, 0, time.UTC),
	}

	assert.Equal(t, []Field{
		{"status", "IDLE"},
		{"duration_seconds", "0"},
		{"remaining_seconds", "0"},
		{"trigger", "false"},
		{"finishes", "0"},
		{"boot_id", "boot-1"},
		{"updated_at", "2026-03-07T09:00:00Z"},
	}, Fields(snap))
}

func TestFieldsWithLastEvent(t *testing.T) {
	at := time.Date(2026, 3, 7, 9, 15, 0, 0, time.FixedZone("CET", 3600))
	snap := status.Snapshot{
		Timer:     logic.TimerState{Status: logic.StatusFinished, Target: 0, Trigger: true},
		Finishes:  1,
		LastEvent: &logic.Event{Type: logic.EventFinished, Timestamp: at, Seconds: 900},
	}

	fields := Fields(snap)
	byName := map[string]string{}
	for _, f := range fields {
		byName[f.Name] = f.Value
	}
	assert.Equal(t, "FINISHED", byName["status"])
	assert.Equal(t, "0", byName["duration_seconds"])
	assert.Equal(t, "true", byName["trigger"])
	assert.Equal(t, "1", byName["finishes"])
	assert.Equal(t, "FINISHED", byName["last_event"])
	assert.Equal(t, "", byName["last_channel"])
	assert.Equal(t, "2026-03-07T08:15:00Z", byName["last_event_at"])
	assert.Len(t, fields, 10)
}
