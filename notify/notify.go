// Package notify fans application run events out to connected
// clients, keyed by user.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Kind classifies an event.
type Kind string

const (
	// KindProgress reports a step the run took
	KindProgress Kind = "progress"

	// KindNeedsInfo reports a question the run is blocked on
	KindNeedsInfo Kind = "needs_info"

	// KindApplied reports a confirmed or stalled-complete submission
	KindApplied Kind = "applied"

	// KindFailed reports a terminal failure
	KindFailed Kind = "failed"
)

// Event is one notification about an application run.
type Event struct {
	Kind          Kind      `json:"kind"`
	UserID        string    `json:"user_id"`
	ApplicationID string    `json:"application_id"`
	JobTitle      string    `json:"job_title,omitempty"`
	Company       string    `json:"company,omitempty"`

	// Message is the human-readable summary
	Message string `json:"message,omitempty"`

	// Field and Question carry needs_info details
	Field    string `json:"field,omitempty"`
	Question string `json:"question,omitempty"`

	// Reason carries the failure cause for failed events
	Reason string `json:"reason,omitempty"`

	Time time.Time `json:"time"`
}

// Conn receives events for one connected client. Send must not block
// forever; returning an error drops the connection from the registry.
type Conn interface {
	Send(ctx context.Context, event Event) error
}

// ConnFunc adapts a function to the Conn interface.
type ConnFunc func(ctx context.Context, event Event) error

// Send calls the function.
func (f ConnFunc) Send(ctx context.Context, event Event) error { return f(ctx, event) }

// Sink receives every published event regardless of user, for
// durable delivery paths such as NATS.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Registry tracks connected clients per user and fans events out to
// them. A failed send removes only the failing connection.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]map[int]Conn
	nextID int
	sink   Sink
	logger *slog.Logger
}

// NewRegistry creates an empty registry. The sink may be nil.
func NewRegistry(sink Sink, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		conns:  make(map[string]map[int]Conn),
		sink:   sink,
		logger: logger,
	}
}

// Add registers a connection for a user and returns a function that
// removes it.
func (r *Registry) Add(userID string, conn Conn) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	if r.conns[userID] == nil {
		r.conns[userID] = make(map[int]Conn)
	}
	r.conns[userID][id] = conn

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.remove(userID, id)
	}
}

// remove must be called with the lock held.
func (r *Registry) remove(userID string, id int) {
	if conns, ok := r.conns[userID]; ok {
		delete(conns, id)
		if len(conns) == 0 {
			delete(r.conns, userID)
		}
	}
}

// Publish sends the event to every connection registered for its
// user, and to the sink if one is configured. Connections whose Send
// fails are removed; other connections are unaffected.
func (r *Registry) Publish(ctx context.Context, event Event) {
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}

	if r.sink != nil {
		if err := r.sink.Publish(ctx, event); err != nil {
			r.logger.Warn("event sink publish failed",
				"user_id", event.UserID,
				"kind", string(event.Kind),
				"error", err)
		}
	}

	r.mu.RLock()
	targets := make(map[int]Conn, len(r.conns[event.UserID]))
	for id, conn := range r.conns[event.UserID] {
		targets[id] = conn
	}
	r.mu.RUnlock()

	var failed []int
	for id, conn := range targets {
		if err := conn.Send(ctx, event); err != nil {
			r.logger.Debug("dropping notification connection",
				"user_id", event.UserID,
				"error", err)
			failed = append(failed, id)
		}
	}

	if len(failed) > 0 {
		r.mu.Lock()
		for _, id := range failed {
			r.remove(event.UserID, id)
		}
		r.mu.Unlock()
	}
}

// ConnCount returns the number of active connections for a user.
func (r *Registry) ConnCount(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID])
}
