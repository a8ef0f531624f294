package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// EventSubjectPrefix is the subject prefix for published events; the
// user ID is appended as the final token.
const EventSubjectPrefix = "applyflow.events"

// NATSSink publishes events to per-user NATS subjects so other
// processes can observe runs.
type NATSSink struct {
	nc *nats.Conn
}

// NewNATSSink creates a sink over an existing NATS connection.
func NewNATSSink(nc *nats.Conn) *NATSSink {
	return &NATSSink{nc: nc}
}

// Publish sends the event to applyflow.events.{user_id}.
func (s *NATSSink) Publish(_ context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	subject := fmt.Sprintf("%s.%s", EventSubjectPrefix, event.UserID)
	if err := s.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}
