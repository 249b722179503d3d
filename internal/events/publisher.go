// Package events publishes task lifecycle events to a Redis stream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/taskmanager/taskmanager/internal/metrics"
	"github.com/taskmanager/taskmanager/internal/model"
)

const (
	// StreamKey is the Redis stream for task events.
	StreamKey = "stream:task_events"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 250 * time.Millisecond
)

// Event types.
const (
	TaskCreated = "task.created"
	TaskUpdated = "task.updated"
	TaskDeleted = "task.deleted"
)

// TaskEvent is the payload written to the stream.
type TaskEvent struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	TaskID     int64  `json:"task_id"`
	UserID     int64  `json:"user_id"`
	Slug       string `json:"slug,omitempty"`
	OccurredAt int64  `json:"t"` // Unix milliseconds
}

// NewTaskEvent builds an event for task with a fresh ULID.
func NewTaskEvent(eventType string, task *model.Task, at time.Time) TaskEvent {
	return TaskEvent{
		ID:         ulid.Make().String(),
		Type:       eventType,
		TaskID:     task.ID,
		UserID:     task.UserID,
		Slug:       task.Slug,
		OccurredAt: at.UnixMilli(),
	}
}

// Publisher enqueues task events to a Redis stream.
type Publisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
	wg      sync.WaitGroup
}

// NewPublisher creates a new task event publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "events.publisher"),
		metrics: recorder,
	}
}

// Publish adds an event to the stream synchronously and returns the stream entry ID.
func (p *Publisher) Publish(ctx context.Context, event TaskEvent) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	result, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"type":    event.Type,
			"payload": string(data),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return result, nil
}

// PublishAsync publishes without blocking the caller.
// Errors are logged and counted, never returned.
func (p *Publisher) PublishAsync(event TaskEvent) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()

		streamID, err := p.Publish(ctx, event)
		if err != nil {
			p.logger.Warn("failed to publish task event",
				"type", event.Type,
				"task_id", event.TaskID,
				"error", err,
			)
			p.metrics.IncEventPublished("dropped")
			return
		}

		p.logger.Debug("task event published",
			"type", event.Type,
			"task_id", event.TaskID,
			"stream_id", streamID,
		)
		p.metrics.IncEventPublished("success")
	}()
}

// Close waits for in-flight publishes or until ctx expires.
func (p *Publisher) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for event publishes: %w", ctx.Err())
	}
}
