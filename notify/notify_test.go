package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type recordingConn struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (c *recordingConn) Send(_ context.Context, event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.events = append(c.events, event)
	return nil
}

func (c *recordingConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestPublishFansOutPerUser(t *testing.T) {
	registry := NewRegistry(nil, nil)
	ctx := context.Background()

	alice1 := &recordingConn{}
	alice2 := &recordingConn{}
	bob := &recordingConn{}
	registry.Add("alice", alice1)
	registry.Add("alice", alice2)
	registry.Add("bob", bob)

	registry.Publish(ctx, Event{Kind: KindProgress, UserID: "alice", Message: "step 1"})

	if alice1.count() != 1 || alice2.count() != 1 {
		t.Error("expected both alice connections to receive the event")
	}
	if bob.count() != 0 {
		t.Error("bob should not receive alice's events")
	}
	if alice1.events[0].Time.IsZero() {
		t.Error("expected publish to stamp the event time")
	}
}

func TestPublishRemovesOnlyFailedConn(t *testing.T) {
	registry := NewRegistry(nil, nil)
	ctx := context.Background()

	healthy := &recordingConn{}
	broken := &recordingConn{err: errors.New("client went away")}
	registry.Add("alice", healthy)
	registry.Add("alice", broken)

	registry.Publish(ctx, Event{Kind: KindProgress, UserID: "alice"})

	if registry.ConnCount("alice") != 1 {
		t.Errorf("expected only the failed conn removed, got %d conns", registry.ConnCount("alice"))
	}

	registry.Publish(ctx, Event{Kind: KindApplied, UserID: "alice"})
	if healthy.count() != 2 {
		t.Errorf("healthy conn should keep receiving, got %d events", healthy.count())
	}
}

func TestRemoveFunc(t *testing.T) {
	registry := NewRegistry(nil, nil)

	conn := &recordingConn{}
	remove := registry.Add("alice", conn)
	if registry.ConnCount("alice") != 1 {
		t.Fatal("expected one connection")
	}

	remove()
	if registry.ConnCount("alice") != 0 {
		t.Error("expected connection removed")
	}

	// Removing twice is harmless
	remove()
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Publish(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func TestSinkReceivesAllEvents(t *testing.T) {
	sink := &recordingSink{}
	registry := NewRegistry(sink, nil)
	ctx := context.Background()

	// No connections registered; the sink still gets the event
	registry.Publish(ctx, Event{Kind: KindFailed, UserID: "alice", Reason: "navigation timed out"})

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.events) != 1 {
		t.Fatalf("expected 1 sink event, got %d", len(sink.events))
	}
	if sink.events[0].Reason != "navigation timed out" {
		t.Errorf("unexpected reason %q", sink.events[0].Reason)
	}
}
