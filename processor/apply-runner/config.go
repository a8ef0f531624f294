package applyrunner

import "fmt"

// Config configures the apply-runner processor.
type Config struct {
	// StreamName is the JetStream stream holding run tasks
	StreamName string `json:"stream_name" yaml:"stream_name"`

	// ConsumerName is the durable consumer name
	ConsumerName string `json:"consumer_name" yaml:"consumer_name"`

	// TaskSubject is the subject run tasks are published on
	TaskSubject string `json:"task_subject" yaml:"task_subject"`

	// MaxConcurrent bounds runs executing at once
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent"`
}

// DefaultConfig returns the default apply-runner configuration.
func DefaultConfig() Config {
	return Config{
		StreamName:    "APPLYFLOW",
		ConsumerName:  "apply-runner",
		TaskSubject:   "applyflow.task.queued",
		MaxConcurrent: 2,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.StreamName == "" {
		return fmt.Errorf("stream_name is required")
	}
	if c.ConsumerName == "" {
		return fmt.Errorf("consumer_name is required")
	}
	if c.TaskSubject == "" {
		return fmt.Errorf("task_subject is required")
	}
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be at least 1")
	}
	return nil
}
