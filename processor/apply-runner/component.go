// Package applyrunner consumes queued application runs from JetStream
// and executes them through the apply orchestrator.
package applyrunner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/applyflow/application"
	"github.com/c360studio/applyflow/apply"
)

// Component is the apply-runner processor.
type Component struct {
	config  Config
	js      jetstream.JetStream
	runner  *apply.Runner
	store   application.Store
	metrics *Metrics
	logger  *slog.Logger

	consumer jetstream.Consumer

	// sem bounds concurrent runs
	sem chan struct{}

	running bool
	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewComponent creates the apply-runner.
func NewComponent(config Config, js jetstream.JetStream, runner *apply.Runner, store application.Store, metrics *Metrics, logger *slog.Logger) (*Component, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Component{
		config:  config,
		js:      js,
		runner:  runner,
		store:   store,
		metrics: metrics,
		logger:  logger,
		sem:     make(chan struct{}, config.MaxConcurrent),
	}, nil
}

// Start begins consuming run tasks.
func (c *Component) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("component already running")
	}
	c.running = true
	subCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	stream, err := c.js.Stream(subCtx, c.config.StreamName)
	if err != nil {
		c.rollbackStart(cancel)
		return fmt.Errorf("get stream %s: %w", c.config.StreamName, err)
	}

	consumer, err := stream.CreateOrUpdateConsumer(subCtx, jetstream.ConsumerConfig{
		Durable:       c.config.ConsumerName,
		FilterSubject: c.config.TaskSubject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       60 * time.Second,
		MaxDeliver:    3,
	})
	if err != nil {
		c.rollbackStart(cancel)
		return fmt.Errorf("create consumer: %w", err)
	}
	c.consumer = consumer

	c.wg.Add(1)
	go c.consumeLoop(subCtx)

	c.logger.Info("apply-runner started",
		"stream", c.config.StreamName,
		"consumer", c.config.ConsumerName,
		"subject", c.config.TaskSubject,
		"max_concurrent", c.config.MaxConcurrent)
	return nil
}

func (c *Component) rollbackStart(cancel context.CancelFunc) {
	c.mu.Lock()
	c.running = false
	c.cancel = nil
	c.mu.Unlock()
	cancel()
}

// Stop halts consumption and waits for in-flight runs to finish.
func (c *Component) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	c.logger.Info("apply-runner stopped")
}

// consumeLoop continuously fetches run tasks from the consumer.
func (c *Component) consumeLoop(ctx context.Context) {
	defer c.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msgs, err := c.consumer.Fetch(1, jetstream.FetchMaxWait(5*time.Second))
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Debug("fetch timeout or error", "error", err)
			continue
		}

		for msg := range msgs.Messages() {
			c.handleMessage(ctx, msg)
		}
		if msgs.Error() != nil && msgs.Error() != context.DeadlineExceeded {
			c.logger.Warn("message fetch error", "error", msgs.Error())
		}
	}
}

// handleMessage dispatches one run task. The message is acked as soon
// as the run is dispatched: run outcomes are persisted on the
// application itself, so redelivering a task whose run already
// started would only double-drive the form.
func (c *Component) handleMessage(ctx context.Context, msg jetstream.Msg) {
	var task Task
	if err := json.Unmarshal(msg.Data(), &task); err != nil {
		c.logger.Error("failed to parse task", "error", err)
		c.metrics.TasksDropped.Inc()
		if err := msg.Ack(); err != nil {
			c.logger.Warn("failed to ack unparseable task", "error", err)
		}
		return
	}
	if task.ApplicationID == "" {
		c.metrics.TasksDropped.Inc()
		if err := msg.Ack(); err != nil {
			c.logger.Warn("failed to ack empty task", "error", err)
		}
		return
	}

	select {
	case c.sem <- struct{}{}:
	case <-ctx.Done():
		if err := msg.Nak(); err != nil {
			c.logger.Warn("failed to nak task on shutdown", "error", err)
		}
		return
	}

	if err := msg.Ack(); err != nil {
		c.logger.Warn("failed to ack task", "error", err)
	}

	c.metrics.RunsStarted.Inc()
	c.logger.Info("dispatching application run", "application_id", task.ApplicationID)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() { <-c.sem }()
		c.executeRun(ctx, task.ApplicationID)
	}()
}

// executeRun runs one application and records its outcome.
func (c *Component) executeRun(ctx context.Context, applicationID string) {
	err := c.runner.Run(ctx, applicationID)
	if err != nil {
		c.metrics.RunsFailed.Inc()
		c.logger.Error("application run failed",
			"application_id", applicationID,
			"error", err)
		return
	}

	app, getErr := c.store.Get(ctx, applicationID)
	if getErr != nil {
		c.logger.Warn("could not read run outcome",
			"application_id", applicationID,
			"error", getErr)
		return
	}

	switch app.Status {
	case application.StatusApplied:
		c.metrics.RunsApplied.Inc()
	case application.StatusNeedsInfo:
		c.metrics.RunsNeedsInfo.Inc()
	case application.StatusFailed:
		c.metrics.RunsFailed.Inc()
	}

	c.logger.Info("application run finished",
		"application_id", applicationID,
		"status", string(app.Status),
		"steps", app.StepsTaken)
}
