package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/taskmanager/taskmanager/internal/cache"
	"github.com/taskmanager/taskmanager/internal/events"
	"github.com/taskmanager/taskmanager/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeCache struct {
	mu      sync.Mutex
	tasks   map[int64]model.Task
	deleted []int64
}

func newFakeCache() *fakeCache {
	return &fakeCache{tasks: make(map[int64]model.Task)}
}

func (c *fakeCache) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tasks[id]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return &t, nil
}

func (c *fakeCache) SetTask(ctx context.Context, task *model.Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks[task.ID] = *task
	return nil
}

func (c *fakeCache) DeleteTasks(ctx context.Context, ids []int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.tasks, id)
		c.deleted = append(c.deleted, id)
	}
	return nil
}

func (c *fakeCache) has(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.tasks[id]
	return ok
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.TaskEvent
}

func (p *fakePublisher) PublishAsync(ev events.TaskEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}
