package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
)

// ErrBufferFull is returned when the channel publisher cannot enqueue.
var ErrBufferFull = errors.New("event buffer full")

// ChannelPublisher hands events to a Worker through a bounded channel. A full
// buffer drops the event instead of blocking the workflow.
type ChannelPublisher struct {
	ch      chan Event
	dropped atomic.Int64
}

func NewChannelPublisher(capacity int) *ChannelPublisher {
	if capacity <= 0 {
		capacity = 1024
	}
	return &ChannelPublisher{ch: make(chan Event, capacity)}
}

func (p *ChannelPublisher) Publish(_ context.Context, event Event) error {
	select {
	case p.ch <- event:
		return nil
	default:
		p.dropped.Add(1)
		return ErrBufferFull
	}
}

// Inbox is the receive side for a Worker.
func (p *ChannelPublisher) Inbox() <-chan Event {
	return p.ch
}

func (p *ChannelPublisher) Dropped() int64 {
	return p.dropped.Load()
}

// Recorder keeps events in memory. Used by tests and as the sink when no
// broker is configured.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Actions lists recorded actions in order.
func (r *Recorder) Actions() []Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Action, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}

// LogPublisher writes events to the structured log.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	p.logger.InfoContext(ctx, "signup event",
		"event_id", event.ID,
		"action", event.Action,
		"workflow_id", event.WorkflowID,
		"step", event.Step,
		"request_id", event.RequestID,
		"browser", event.Browser,
		"os", event.OS,
	)
	return nil
}
