package service

import (
	"context"
	"errors"
	"testing"

	"github.com/taskmanager/taskmanager/internal/metrics"
	"github.com/taskmanager/taskmanager/internal/repository/memory"
)

func newUserService(t *testing.T) (*UserService, *TaskService, *memory.Store, *fakeCache) {
	t.Helper()
	store := memory.New()
	c := newFakeCache()
	rec := metrics.NewInMemory()
	users := NewUserService(store, fakeHasher{}, c, rec, discardLogger())
	tasks := NewTaskService(store, rec, discardLogger(), WithTaskCache(c))
	return users, tasks, store, c
}

func strPtr(s string) *string { return &s }

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newUserService(t)

	user, err := svc.CreateUser(ctx, UserInput{Username: "Jane Doe", Firstname: "Jane", Lastname: "Doe", Age: 28, Password: strPtr("s3cretpass")})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.Slug != "jane-doe" {
		t.Errorf("expected slug jane-doe, got %q", user.Slug)
	}
	if !user.HasPassword() || *user.PasswordHash != "hashed:s3cretpass" {
		t.Errorf("expected hashed password, got %v", user.PasswordHash)
	}

	_, err = svc.CreateUser(ctx, UserInput{Username: "Jane Doe", Firstname: "J", Lastname: "D"})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	users, _ := svc.ListUsers(ctx)
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newUserService(t)

	created, _ := svc.CreateUser(ctx, UserInput{Username: "alpha", Firstname: "A", Lastname: "L", Age: 20, Password: strPtr("original1")})

	updated, err := svc.UpdateUser(ctx, created.ID, UserInput{Username: "Beta User", Firstname: "B", Lastname: "U", Age: 21})
	if err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	if updated.Slug != "beta-user" || updated.Firstname != "B" || updated.Age != 21 {
		t.Fatalf("unexpected user: %+v", updated)
	}
	if updated.PasswordHash == nil || *updated.PasswordHash != "hashed:original1" {
		t.Fatalf("password should be kept when not supplied, got %v", updated.PasswordHash)
	}

	updated, err = svc.UpdateUser(ctx, created.ID, UserInput{Username: "Beta User", Firstname: "B", Lastname: "U", Age: 21, Password: strPtr("rotated99")})
	if err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	if *updated.PasswordHash != "hashed:rotated99" {
		t.Fatalf("expected rotated hash, got %s", *updated.PasswordHash)
	}

	if _, err := svc.UpdateUser(ctx, 999, UserInput{Username: "x"}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	other, _ := svc.CreateUser(ctx, UserInput{Username: "gamma"})
	if _, err := svc.UpdateUser(ctx, other.ID, UserInput{Username: "Beta User"}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestDeleteUser_CascadesTasksAndCache(t *testing.T) {
	ctx := context.Background()
	users, tasks, store, c := newUserService(t)

	owner, _ := users.CreateUser(ctx, UserInput{Username: "owner"})
	task, err := tasks.CreateTask(ctx, TaskInput{Title: "T", UserID: owner.ID})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	_, _ = tasks.GetTask(ctx, task.ID)
	stale := *task
	pending := deferEvictions(t, users.evictor)

	if err := users.DeleteUser(ctx, owner.ID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if c.has(task.ID) {
		t.Error("expected cached task of deleted user to be evicted")
	}

	// A concurrent read-through that raced the delete is dropped on the second pass.
	_ = c.SetTask(ctx, &stale)
	for _, fn := range *pending {
		fn()
	}
	if c.has(task.ID) {
		t.Error("expected late backfill of a deleted task to be evicted")
	}
	if _, err := store.GetTaskByID(ctx, task.ID); err == nil {
		t.Error("expected task to be removed with its owner")
	}
	if err := users.DeleteUser(ctx, owner.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound on second delete, got %v", err)
	}
}

func TestListUserTasks(t *testing.T) {
	ctx := context.Background()
	users, tasks, _, _ := newUserService(t)

	a, _ := users.CreateUser(ctx, UserInput{Username: "a"})
	b, _ := users.CreateUser(ctx, UserInput{Username: "b"})
	for _, in := range []TaskInput{{Title: "a1", UserID: a.ID}, {Title: "b1", UserID: b.ID}, {Title: "a2", UserID: a.ID}} {
		if _, err := tasks.CreateTask(ctx, in); err != nil {
			t.Fatalf("CreateTask failed: %v", err)
		}
	}

	got, err := users.ListUserTasks(ctx, a.ID)
	if err != nil {
		t.Fatalf("ListUserTasks failed: %v", err)
	}
	if len(got) != 2 || got[0].Title != "a1" || got[1].Title != "a2" {
		t.Fatalf("unexpected tasks: %+v", got)
	}

	if _, err := users.ListUserTasks(ctx, 999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestWrapRepoError(t *testing.T) {
	boom := errors.New("boom")
	err := wrapRepoError("list things", boom)
	if !errors.Is(err, boom) || err.Error() != "failed to list things: boom" {
		t.Fatalf("unexpected wrap: %v", err)
	}

	var _ Store = memory.New()
}
