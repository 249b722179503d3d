package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/taskmanager/taskmanager/internal/events"
	"github.com/taskmanager/taskmanager/internal/metrics"
	"github.com/taskmanager/taskmanager/internal/model"
	"github.com/taskmanager/taskmanager/internal/repository/memory"
)

type taskFixture struct {
	store   *memory.Store
	cache   *fakeCache
	events  *fakePublisher
	metrics *metrics.InMemoryRecorder
	svc     *TaskService
	userID  int64
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()
	f := &taskFixture{
		store:   memory.New(),
		cache:   newFakeCache(),
		events:  &fakePublisher{},
		metrics: metrics.NewInMemory(),
	}
	f.svc = NewTaskService(f.store, f.metrics, discardLogger(),
		WithTaskCache(f.cache),
		WithEventPublisher(f.events),
	)

	user := &model.User{Username: "owner", Firstname: "O", Lastname: "W", Age: 30, Slug: "owner"}
	if err := f.store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	f.userID = user.ID
	return f
}

func TestCreateTask_DerivesSlug(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	task, err := f.svc.CreateTask(ctx, TaskInput{Title: "Buy milk", Content: "2L", Priority: 1, UserID: f.userID})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if task.Slug != "buy-milk" {
		t.Errorf("expected slug buy-milk, got %q", task.Slug)
	}
	if task.ID == 0 {
		t.Error("expected generated ID")
	}

	tasks, err := f.svc.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Buy milk" || tasks[0].UserID != f.userID {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}

	if got := f.events.types(); len(got) != 1 || got[0] != events.TaskCreated {
		t.Errorf("expected one task.created event, got %v", got)
	}
	if f.metrics.Snapshot().Mutations["task.create"] != 1 {
		t.Error("expected task create to be counted")
	}
}

func TestCreateTask_UnknownUserPersistsNothing(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	_, err := f.svc.CreateTask(ctx, TaskInput{Title: "Orphan", Content: "", UserID: 9999})
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	tasks, _ := f.svc.ListTasks(ctx)
	if len(tasks) != 0 {
		t.Fatalf("expected no tasks, got %d", len(tasks))
	}
	if len(f.events.types()) != 0 {
		t.Error("expected no events for a failed create")
	}
}

func TestGetTask_ReadThroughCache(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	created, err := f.svc.CreateTask(ctx, TaskInput{Title: "T", UserID: f.userID})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	if _, err := f.svc.GetTask(ctx, created.ID); err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if !f.cache.has(created.ID) {
		t.Fatal("expected cache backfill after miss")
	}

	got, err := f.svc.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got.Slug != "t" {
		t.Errorf("expected slug t, got %q", got.Slug)
	}

	snap := f.metrics.Snapshot()
	if snap.TaskCacheMisses != 1 || snap.TaskCacheHits != 1 {
		t.Errorf("expected 1 miss and 1 hit, got %+v", snap)
	}
}

func TestGetTask_NotFound(t *testing.T) {
	f := newTaskFixture(t)

	if _, err := f.svc.GetTask(context.Background(), 12345); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestUpdateTask_OverwritesAndRecomputesSlug(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	other := &model.User{Username: "other"}
	if err := f.store.CreateUser(ctx, other); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	created, _ := f.svc.CreateTask(ctx, TaskInput{Title: "Old title", Content: "old", Priority: 1, UserID: f.userID})
	_, _ = f.svc.GetTask(ctx, created.ID) // populate cache

	updated, err := f.svc.UpdateTask(ctx, created.ID, TaskInput{Title: "New Title", Content: "", Priority: 7, UserID: other.ID})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if updated.Slug != "new-title" || updated.Content != "" || updated.Priority != 7 || updated.UserID != other.ID {
		t.Fatalf("unexpected task after update: %+v", updated)
	}
	if f.cache.has(created.ID) {
		t.Error("expected cache entry to be invalidated")
	}

	got, err := f.svc.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got.Title != "New Title" || got.Slug != "new-title" {
		t.Fatalf("update not persisted: %+v", got)
	}
}

func TestUpdateTask_Errors(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	created, _ := f.svc.CreateTask(ctx, TaskInput{Title: "Keep", Content: "c", Priority: 2, UserID: f.userID})

	tests := []struct {
		name    string
		id      int64
		userID  int64
		wantErr error
	}{
		{"missing task wins over missing user", 999, 999, ErrTaskNotFound},
		{"missing task", 999, f.userID, ErrTaskNotFound},
		{"missing user", created.ID, 999, ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.UpdateTask(ctx, tt.id, TaskInput{Title: "Changed", UserID: tt.userID})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	got, _ := f.store.GetTaskByID(ctx, created.ID)
	if got.Title != "Keep" || got.UserID != f.userID {
		t.Fatalf("failed updates must not mutate: %+v", got)
	}
}

func TestDeleteTask_Twice(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	created, _ := f.svc.CreateTask(ctx, TaskInput{Title: "Gone", UserID: f.userID})

	if err := f.svc.DeleteTask(ctx, created.ID); err != nil {
		t.Fatalf("first delete failed: %v", err)
	}
	if err := f.svc.DeleteTask(ctx, created.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound on second delete, got %v", err)
	}
	if _, err := f.svc.GetTask(ctx, created.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound after delete, got %v", err)
	}

	types := f.events.types()
	if len(types) != 2 || types[1] != events.TaskDeleted {
		t.Errorf("expected created then deleted events, got %v", types)
	}
}

func TestNewTaskService_Defaults(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewTaskService(store, nil, discardLogger(), WithTaskCache(nil), WithEventPublisher(nil))

	user := &model.User{Username: "solo"}
	_ = store.CreateUser(ctx, user)

	created, err := svc.CreateTask(ctx, TaskInput{Title: "No cache", UserID: user.ID})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	got, err := svc.GetTask(ctx, created.ID)
	if err != nil || got.Slug != "no-cache" {
		t.Fatalf("GetTask without cache: %+v, %v", got, err)
	}
}

// deferEvictions captures delayed evictions so a test can run them on demand.
func deferEvictions(t *testing.T, e *evictor) *[]func() {
	t.Helper()
	var pending []func()
	e.after = func(d time.Duration, fn func()) {
		if d != ReevictDelay {
			t.Errorf("delay = %v, want %v", d, ReevictDelay)
		}
		pending = append(pending, fn)
	}
	return &pending
}

func TestUpdateTask_EvictsLateBackfill(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)
	pending := deferEvictions(t, f.svc.evictor)

	created, err := f.svc.CreateTask(ctx, TaskInput{Title: "Old", Content: "c", Priority: 1, UserID: f.userID})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	stale := *created

	if _, err := f.svc.UpdateTask(ctx, created.ID, TaskInput{Title: "New", Content: "c", Priority: 1, UserID: f.userID}); err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}

	// A reader that loaded the row before the commit writes it back late.
	if err := f.cache.SetTask(ctx, &stale); err != nil {
		t.Fatalf("SetTask failed: %v", err)
	}
	if len(*pending) != 1 {
		t.Fatalf("expected one delayed eviction, got %d", len(*pending))
	}
	(*pending)[0]()

	if f.cache.has(created.ID) {
		t.Fatal("expected the late backfill to be evicted")
	}
	got, err := f.svc.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got.Title != "New" || got.Slug != "new" {
		t.Fatalf("expected fresh task, got %+v", got)
	}
}

func TestDeleteTask_EvictsLateBackfill(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)
	pending := deferEvictions(t, f.svc.evictor)

	created, _ := f.svc.CreateTask(ctx, TaskInput{Title: "Gone", UserID: f.userID})
	stale := *created

	if err := f.svc.DeleteTask(ctx, created.ID); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	_ = f.cache.SetTask(ctx, &stale)
	for _, fn := range *pending {
		fn()
	}

	if _, err := f.svc.GetTask(ctx, created.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestEvictor_DisabledCacheSchedulesNothing(t *testing.T) {
	e := newEvictor(noopCache{}, discardLogger())
	e.after = func(time.Duration, func()) {
		t.Fatal("no delayed eviction expected without a cache")
	}
	e.evict(context.Background(), 1, 2)
}
