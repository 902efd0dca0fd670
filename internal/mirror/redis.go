// Package mirror copies the latest timer state into a Redis hash so other
// hosts can read it without polling the device.
package mirror

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/rueidis"

	"github.com/sweeney/countdown-timer/internal/status"
)

// Field is one hash field and its value.
type Field struct {
	Name  string
	Value string
}

// Redis writes timer state to a single hash key.
type Redis struct {
	client rueidis.Client
	key    string
}

// Dial connects to the server at addr, selects db and checks the connection.
func Dial(ctx context.Context, addr string, db int, key string) (*Redis, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{addr},
		SelectDB:    db,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return &Redis{client: client, key: key}, nil
}

// Write stores the snapshot's timer state in the hash.
func (r *Redis) Write(ctx context.Context, snap status.Snapshot) error {
	cmd := r.client.B().Hset().Key(r.key).FieldValue()
	for _, f := range Fields(snap) {
		cmd = cmd.FieldValue(f.Name, f.Value)
	}
	if err := r.client.Do(ctx, cmd.Build()).Error(); err != nil {
		return fmt.Errorf("hset %s: %w", r.key, err)
	}
	return nil
}

// Close closes the client.
func (r *Redis) Close() error {
	r.client.Close()
	return nil
}

// Fields returns the hash fields written for snap, in a fixed order.
func Fields(snap status.Snapshot) []Field {
	fields := []Field{
		{"status", string(snap.Timer.Status)},
		{"duration_seconds", strconv.FormatUint(uint64(snap.Timer.Target), 10)},
		{"remaining_seconds", strconv.FormatUint(uint64(snap.Timer.Remaining), 10)},
		{"trigger", strconv.FormatBool(snap.Timer.Trigger)},
		{"finishes", strconv.Itoa(snap.Finishes)},
		{"boot_id", snap.BootID},
		{"updated_at", snap.Now.UTC().Format(time.RFC3339)},
	}
	if ev := snap.LastEvent; ev != nil {
		fields = append(fields,
			Field{"last_event", string(ev.Type)},
			Field{"last_channel", ev.Channel},
			Field{"last_event_at", ev.Timestamp.UTC().Format(time.RFC3339)},
		)
	}
	return fields
}
