package applyrunner

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// Task is one queued application run.
type Task struct {
	ApplicationID string    `json:"application_id"`
	QueuedAt      time.Time `json:"queued_at"`
}

// Queue publishes run tasks to JetStream. It backs the API's start
// and answers endpoints.
type Queue struct {
	js      jetstream.JetStream
	subject string
}

// NewQueue ensures the task stream exists and returns a queue
// publishing to it.
func NewQueue(ctx context.Context, js jetstream.JetStream, config Config) (*Queue, error) {
	// CreateOrUpdateStream is idempotent across processes
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      config.StreamName,
		Subjects:  []string{config.TaskSubject},
		Retention: jetstream.WorkQueuePolicy,
		Storage:   jetstream.FileStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("create/update task stream: %w", err)
	}
	return &Queue{js: js, subject: config.TaskSubject}, nil
}

// Enqueue publishes a run task for the given application.
func (q *Queue) Enqueue(ctx context.Context, applicationID string) error {
	task := Task{
		ApplicationID: applicationID,
		QueuedAt:      time.Now().UTC(),
	}
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	if _, err := q.js.Publish(ctx, q.subject, data); err != nil {
		return fmt.Errorf("publish task: %w", err)
	}
	return nil
}
