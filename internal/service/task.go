package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taskmanager/taskmanager/internal/cache"
	"github.com/taskmanager/taskmanager/internal/events"
	"github.com/taskmanager/taskmanager/internal/metrics"
	"github.com/taskmanager/taskmanager/internal/model"
	"github.com/taskmanager/taskmanager/internal/repository"
	"github.com/taskmanager/taskmanager/internal/slug"
)

// TaskInput carries the client-settable task fields for create and update.
type TaskInput struct {
	Title    string
	Content  string
	Priority int
	UserID   int64
}

// TaskService handles task business logic.
type TaskService struct {
	store   Store
	cache   TaskCache
	events  EventPublisher
	metrics metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time
	evictor *evictor
}

// TaskServiceOption customizes a TaskService.
type TaskServiceOption func(*TaskService)

// WithTaskCache enables read-through caching for GetTask.
func WithTaskCache(c TaskCache) TaskServiceOption {
	return func(s *TaskService) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithEventPublisher emits lifecycle events after each committed write.
func WithEventPublisher(p EventPublisher) TaskServiceOption {
	return func(s *TaskService) {
		if p != nil {
			s.events = p
		}
	}
}

// NewTaskService creates a new TaskService.
func NewTaskService(store Store, recorder metrics.Recorder, logger *slog.Logger, opts ...TaskServiceOption) *TaskService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	s := &TaskService{
		store:   store,
		cache:   noopCache{},
		events:  noopPublisher{},
		metrics: recorder,
		logger:  logger.With("component", "service.task"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.evictor = newEvictor(s.cache, s.logger)
	return s
}

// ListTasks returns all tasks ordered by ID.
func (s *TaskService) ListTasks(ctx context.Context) ([]*model.Task, error) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask retrieves a task by ID, consulting the cache first.
func (s *TaskService) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	cached, err := s.cache.GetTask(ctx, id)
	if err == nil {
		s.metrics.IncTaskCacheHit()
		return cached, nil
	}
	if errors.Is(err, cache.ErrCacheMiss) {
		s.metrics.IncTaskCacheMiss()
	} else if !errors.Is(err, errCacheDisabled) {
		s.logger.Warn("task cache read failed", "task_id", id, "error", err)
	}

	task, err := s.store.GetTaskByID(ctx, id)
	if err != nil {
		return nil, wrapRepoError("get task", err)
	}

	if err := s.cache.SetTask(ctx, task); err != nil {
		s.logger.Warn("task cache backfill failed", "task_id", id, "error", err)
	}
	return task, nil
}

// CreateTask stores a new task owned by input.UserID.
// The owner is locked and checked before the insert inside one transaction;
// an unknown owner returns ErrUserNotFound and nothing is written.
func (s *TaskService) CreateTask(ctx context.Context, input TaskInput) (*model.Task, error) {
	task := &model.Task{
		Title:    input.Title,
		Content:  input.Content,
		Priority: input.Priority,
		Slug:     slug.Make(input.Title),
		UserID:   input.UserID,
	}

	err := s.store.InTx(ctx, func(q repository.Querier) error {
		if _, err := q.GetUserForShare(ctx, input.UserID); err != nil {
			return err
		}
		return q.CreateTask(ctx, task)
	})
	if err != nil {
		return nil, wrapRepoError("create task", err)
	}

	s.metrics.IncMutation(metrics.EntityTask, metrics.OpCreate)
	s.events.PublishAsync(events.NewTaskEvent(events.TaskCreated, task, s.now()))
	return task, nil
}

// UpdateTask overwrites every client-settable field of task id and recomputes its slug.
// The task is checked first, then the owner.
func (s *TaskService) UpdateTask(ctx context.Context, id int64, input TaskInput) (*model.Task, error) {
	var task *model.Task

	err := s.store.InTx(ctx, func(q repository.Querier) error {
		current, err := q.GetTaskForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if _, err := q.GetUserForShare(ctx, input.UserID); err != nil {
			return err
		}

		current.Title = input.Title
		current.Content = input.Content
		current.Priority = input.Priority
		current.UserID = input.UserID
		current.Slug = slug.Make(input.Title)

		if err := q.UpdateTask(ctx, current); err != nil {
			return err
		}
		task = current
		return nil
	})
	if err != nil {
		return nil, wrapRepoError("update task", err)
	}

	s.metrics.IncMutation(metrics.EntityTask, metrics.OpUpdate)
	s.invalidate(ctx, id)
	s.events.PublishAsync(events.NewTaskEvent(events.TaskUpdated, task, s.now()))
	return task, nil
}

// DeleteTask removes task id.
func (s *TaskService) DeleteTask(ctx context.Context, id int64) error {
	var task *model.Task

	err := s.store.InTx(ctx, func(q repository.Querier) error {
		current, err := q.GetTaskForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := q.DeleteTask(ctx, id); err != nil {
			return err
		}
		task = current
		return nil
	})
	if err != nil {
		return wrapRepoError("delete task", err)
	}

	s.metrics.IncMutation(metrics.EntityTask, metrics.OpDelete)
	s.invalidate(ctx, id)
	s.events.PublishAsync(events.NewTaskEvent(events.TaskDeleted, task, s.now()))
	return nil
}

func (s *TaskService) invalidate(ctx context.Context, id int64) {
	s.evictor.evict(ctx, id)
}
