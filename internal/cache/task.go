package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/taskmanager/taskmanager/internal/model"
)

const (
	taskKeyPrefix = "task:"

	// DefaultTaskTTL is the TTL for cached task data.
	DefaultTaskTTL = 5 * time.Minute
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

func taskKey(id int64) string {
	return taskKeyPrefix + strconv.FormatInt(id, 10)
}

// GetTask retrieves a task from cache by ID.
// Returns ErrCacheMiss if not found or if the stored hash is unreadable.
func (c *Cache) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	res := c.client.HGetAll(ctx, taskKey(id))
	result, err := res.Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}
	if len(result) == 0 {
		return nil, ErrCacheMiss
	}

	var cached model.CachedTask
	if err := res.Scan(&cached); err != nil {
		return nil, fmt.Errorf("failed to scan cached task: %w", err)
	}

	task, ok := cached.ToTask(id)
	if !ok {
		// Drop the corrupt entry so the next read repopulates it.
		c.client.Del(ctx, taskKey(id))
		return nil, ErrCacheMiss
	}
	return task, nil
}

// SetTask stores a task in cache.
func (c *Cache) SetTask(ctx context.Context, task *model.Task) error {
	key := taskKey(task.ID)
	cached := task.ToCachedTask()

	fields := map[string]any{
		"title":      cached.Title,
		"content":    cached.Content,
		"priority":   cached.Priority,
		"slug":       cached.Slug,
		"user_id":    cached.UserID,
		"updated_at": cached.UpdatedAt,
	}

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, c.taskTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache task: %w", err)
	}
	return nil
}

// DeleteTasks removes tasks from cache after an update, delete, or user cascade.
func (c *Cache) DeleteTasks(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = taskKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete tasks from cache: %w", err)
	}
	return nil
}
