// Package dispatch moves side effects that may block (broker publishes, Redis
// writes, journal appends) off the control loop onto a single worker goroutine.
package dispatch

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/sweeney/countdown-timer/internal/logic"
	"github.com/sweeney/countdown-timer/internal/status"
)

// Kind distinguishes timer transitions from lifecycle messages.
type Kind uint8

const (
	KindEvent Kind = iota
	KindSystem
)

// System message names.
const (
	SystemStartup   = "STARTUP"
	SystemShutdown  = "SHUTDOWN"
	SystemHeartbeat = "HEARTBEAT"
)

// Message is one unit of work for the sinks. Snapshot is taken when the
// message is queued, so every sink sees the state as of that moment.
type Message struct {
	Kind     Kind
	Event    logic.Event // KindEvent
	System   string      // KindSystem
	Reason   string      // KindSystem, shutdown only
	Snapshot status.Snapshot
}

// Sink consumes messages on the worker goroutine.
type Sink interface {
	Name() string
	Handle(ctx context.Context, msg Message) error
}

// Defaults.
const (
	DefaultCapacity = 64
	DefaultTimeout  = 5 * time.Second
)

// Dispatcher fans messages out to its sinks in queue order. Enqueue and Close
// must be called from the same goroutine.
type Dispatcher struct {
	queue   chan Message
	sinks   []Sink
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool

	dropping bool
	dropped  int
}

// New starts a dispatcher with a queue of the given capacity. Each sink call
// is bounded by timeout.
func New(capacity int, timeout time.Duration, sinks ...Sink) *Dispatcher {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		queue:   make(chan Message, capacity),
		sinks:   sinks,
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Enqueue queues msg without blocking. A full queue drops the message; the
// first drop of a burst is logged. It reports whether msg was queued.
func (d *Dispatcher) Enqueue(msg Message) bool {
	if d.closed || len(d.sinks) == 0 {
		return false
	}
	select {
	case d.queue <- msg:
		d.dropping = false
		return true
	default:
		if !d.dropping {
			log.Printf("dispatch: queue full (%d), dropping messages", cap(d.queue))
			d.dropping = true
		}
		d.dropped++
		return false
	}
}

// Dropped returns the number of messages dropped on a full queue.
func (d *Dispatcher) Dropped() int {
	return d.dropped
}

// Close stops accepting messages and waits for the queued ones to be handled,
// up to ctx's deadline. Messages still queued when ctx ends are abandoned.
func (d *Dispatcher) Close(ctx context.Context) error {
	if d.closed {
		return nil
	}
	d.closed = true
	close(d.queue)

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for msg := range d.queue {
		if d.ctx.Err() != nil {
			continue
		}
		for _, s := range d.sinks {
			d.handle(s, msg)
		}
	}
}

func (d *Dispatcher) handle(s Sink, msg Message) {
	ctx, cancel := context.WithTimeout(d.ctx, d.timeout)
	defer cancel()
	if err := s.Handle(ctx, msg); err != nil {
		log.Printf("dispatch: %s: %v", s.Name(), err)
	}
}
