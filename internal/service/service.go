// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taskmanager/taskmanager/internal/events"
	"github.com/taskmanager/taskmanager/internal/model"
	"github.com/taskmanager/taskmanager/internal/repository"
)

// Service errors.
var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
)

// Store is the persistence surface the services need.
// *repository.Repository satisfies it.
type Store interface {
	repository.Querier
	InTx(ctx context.Context, fn func(q repository.Querier) error) error
}

// TaskCache is a read-through cache for single tasks.
// *cache.Cache satisfies it.
type TaskCache interface {
	GetTask(ctx context.Context, id int64) (*model.Task, error)
	SetTask(ctx context.Context, task *model.Task) error
	DeleteTasks(ctx context.Context, ids []int64) error
}

// EventPublisher emits task lifecycle events without blocking.
// *events.Publisher satisfies it.
type EventPublisher interface {
	PublishAsync(event events.TaskEvent)
}

// PasswordHasher turns a plaintext password into a storable hash.
// *auth.Hasher satisfies it.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

type noopCache struct{}

func (noopCache) GetTask(context.Context, int64) (*model.Task, error) { return nil, errCacheDisabled }
func (noopCache) SetTask(context.Context, *model.Task) error          { return nil }
func (noopCache) DeleteTasks(context.Context, []int64) error          { return nil }

var errCacheDisabled = errors.New("cache disabled")

type noopPublisher struct{}

func (noopPublisher) PublishAsync(events.TaskEvent) {}

// ReevictDelay is how long after a committed write the affected task keys
// are evicted a second time. A read-through backfill that loaded the row
// before the commit and wrote it after the first eviction is dropped then.
const ReevictDelay = 500 * time.Millisecond

// evictor removes task keys after a write, once immediately and once after delay.
type evictor struct {
	cache  TaskCache
	delay  time.Duration
	after  func(d time.Duration, f func())
	logger *slog.Logger
}

func newEvictor(c TaskCache, logger *slog.Logger) *evictor {
	return &evictor{
		cache:  c,
		delay:  ReevictDelay,
		after:  func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		logger: logger,
	}
}

func (e *evictor) evict(ctx context.Context, ids ...int64) {
	if len(ids) == 0 {
		return
	}
	if _, disabled := e.cache.(noopCache); disabled {
		return
	}

	if err := e.cache.DeleteTasks(ctx, ids); err != nil {
		e.logger.Warn("task cache invalidation failed", "task_ids", ids, "error", err)
	}
	e.after(e.delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := e.cache.DeleteTasks(ctx, ids); err != nil {
			e.logger.Warn("delayed task cache invalidation failed", "task_ids", ids, "error", err)
		}
	})
}

// wrapRepoError translates repository sentinels to service sentinels and
// wraps anything else with the failed operation.
func wrapRepoError(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrTaskNotFound):
		return ErrTaskNotFound
	case errors.Is(err, repository.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repository.ErrUsernameExists):
		return ErrUsernameTaken
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}
