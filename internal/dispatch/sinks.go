package dispatch

import (
	"context"
	"errors"

	"github.com/sweeney/countdown-timer/internal/journal"
	"github.com/sweeney/countdown-timer/internal/mqtt"
	"github.com/sweeney/countdown-timer/internal/status"
)

// MQTT publishes timer transitions on mqtt.Topic and lifecycle messages,
// carrying the full status snapshot, retained on mqtt.TopicSystem.
type MQTT struct {
	Publisher mqtt.Publisher
}

func (MQTT) Name() string { return "mqtt" }

func (s MQTT) Handle(_ context.Context, msg Message) error {
	if msg.Kind == KindEvent {
		return s.Publisher.Publish(msg.Event)
	}
	return s.Publisher.PublishSystem(mqtt.SystemEvent{
		Timestamp:  msg.Snapshot.Now,
		Event:      msg.System,
		Reason:     msg.Reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(msg.Snapshot, msg.System, msg.Reason),
	})
}

// Appender is the write side of a journal.
type Appender interface {
	Append(r journal.Record) error
}

// Journal appends timer transitions and startup/shutdown markers. Heartbeats
// are not journaled.
type Journal struct {
	Appender Appender
}

func (Journal) Name() string { return "journal" }

func (s Journal) Handle(_ context.Context, msg Message) error {
	snap := msg.Snapshot
	switch {
	case msg.Kind == KindEvent:
		return s.Appender.Append(journal.FromEvent(snap.BootID, msg.Event))
	case msg.System == SystemHeartbeat:
		return nil
	default:
		return s.Appender.Append(journal.Record{
			Timestamp: snap.Now,
			BootID:    snap.BootID,
			Type:      msg.System,
			Status:    string(snap.Timer.Status),
			Reason:    msg.Reason,
		})
	}
}

// HashWriter stores a snapshot of the timer state.
type HashWriter interface {
	Write(ctx context.Context, snap status.Snapshot) error
}

// Mirror writes the latest state on every message.
type Mirror struct {
	Writer HashWriter
}

func (Mirror) Name() string { return "redis" }

func (s Mirror) Handle(ctx context.Context, msg Message) error {
	return s.Writer.Write(ctx, msg.Snapshot)
}

// Func adapts a function to a Sink.
type Func struct {
	Label string
	Fn    func(ctx context.Context, msg Message) error
}

func (f Func) Name() string { return f.Label }

func (f Func) Handle(ctx context.Context, msg Message) error {
	if f.Fn == nil {
		return errors.New("no handler")
	}
	return f.Fn(ctx, msg)
}
