// Package memory is an in-process implementation of the repository queries.
// It mirrors the PostgreSQL constraints the services rely on: foreign keys
// with cascade, unique usernames, and all-or-nothing transactions.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/taskmanager/taskmanager/internal/model"
	"github.com/taskmanager/taskmanager/internal/repository"
)

// Store holds users and tasks in memory.
type Store struct {
	mu    sync.Mutex
	state *state
}

// New returns an empty Store.
func New() *Store {
	return &Store{state: newState()}
}

// InTx runs fn against a copy of the data and keeps the copy only if fn
// returns nil. Transactions are serialized.
func (s *Store) InTx(ctx context.Context, fn func(q repository.Querier) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	working := s.state.clone()
	if err := fn(working); err != nil {
		return err
	}
	s.state = working
	return nil
}

// ListTasks returns all tasks ordered by ID.
func (s *Store) ListTasks(ctx context.Context) ([]*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ListTasks(ctx)
}

// ListTasksByUser returns the tasks owned by userID ordered by ID.
func (s *Store) ListTasksByUser(ctx context.Context, userID int64) ([]*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ListTasksByUser(ctx, userID)
}

// GetTaskByID returns task id or repository.ErrTaskNotFound.
func (s *Store) GetTaskByID(ctx context.Context, id int64) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.GetTaskByID(ctx, id)
}

// GetTaskForUpdate behaves like GetTaskByID; InTx already serializes writers.
func (s *Store) GetTaskForUpdate(ctx context.Context, id int64) (*model.Task, error) {
	return s.GetTaskByID(ctx, id)
}

// CreateTask inserts task and assigns its ID and timestamps.
// An unknown owner returns repository.ErrUserNotFound.
func (s *Store) CreateTask(ctx context.Context, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.CreateTask(ctx, task)
}

// UpdateTask overwrites the mutable fields of an existing task.
func (s *Store) UpdateTask(ctx context.Context, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.UpdateTask(ctx, task)
}

// DeleteTask removes task id.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.DeleteTask(ctx, id)
}

// ListUsers returns all users ordered by ID.
func (s *Store) ListUsers(ctx context.Context) ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ListUsers(ctx)
}

// GetUserByID returns user id or repository.ErrUserNotFound.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.GetUserByID(ctx, id)
}

// GetUserForShare behaves like GetUserByID.
func (s *Store) GetUserForShare(ctx context.Context, id int64) (*model.User, error) {
	return s.GetUserByID(ctx, id)
}

// GetUserForUpdate behaves like GetUserByID.
func (s *Store) GetUserForUpdate(ctx context.Context, id int64) (*model.User, error) {
	return s.GetUserByID(ctx, id)
}

// CreateUser inserts user; a taken username returns repository.ErrUsernameExists.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.CreateUser(ctx, user)
}

// UpdateUser overwrites an existing user, keeping usernames unique.
func (s *Store) UpdateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.UpdateUser(ctx, user)
}

// DeleteUser removes user id together with the tasks it owns.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.DeleteUser(ctx, id)
}

// state is the unlocked data set; it implements repository.Querier directly
// so a transaction can hand out its working copy.
type state struct {
	users      map[int64]model.User
	tasks      map[int64]model.Task
	nextUserID int64
	nextTaskID int64
}

func newState() *state {
	return &state{
		users:      make(map[int64]model.User),
		tasks:      make(map[int64]model.Task),
		nextUserID: 1,
		nextTaskID: 1,
	}
}

func (st *state) clone() *state {
	c := &state{
		users:      make(map[int64]model.User, len(st.users)),
		tasks:      make(map[int64]model.Task, len(st.tasks)),
		nextUserID: st.nextUserID,
		nextTaskID: st.nextTaskID,
	}
	for id, u := range st.users {
		c.users[id] = u
	}
	for id, t := range st.tasks {
		c.tasks[id] = t
	}
	return c
}

func (st *state) ListTasks(ctx context.Context) ([]*model.Task, error) {
	return st.filterTasks(func(model.Task) bool { return true }), nil
}

func (st *state) ListTasksByUser(ctx context.Context, userID int64) ([]*model.Task, error) {
	return st.filterTasks(func(t model.Task) bool { return t.UserID == userID }), nil
}

func (st *state) filterTasks(keep func(model.Task) bool) []*model.Task {
	tasks := make([]*model.Task, 0, len(st.tasks))
	for _, t := range st.tasks {
		if keep(t) {
			t := t
			tasks = append(tasks, &t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks
}

func (st *state) GetTaskByID(ctx context.Context, id int64) (*model.Task, error) {
	t, ok := st.tasks[id]
	if !ok {
		return nil, repository.ErrTaskNotFound
	}
	return &t, nil
}

func (st *state) GetTaskForUpdate(ctx context.Context, id int64) (*model.Task, error) {
	return st.GetTaskByID(ctx, id)
}

func (st *state) CreateTask(ctx context.Context, task *model.Task) error {
	if _, ok := st.users[task.UserID]; !ok {
		return repository.ErrUserNotFound
	}
	now := time.Now().UTC()
	task.ID = st.nextTaskID
	task.CreatedAt = now
	task.UpdatedAt = now
	st.nextTaskID++
	st.tasks[task.ID] = *task
	return nil
}

func (st *state) UpdateTask(ctx context.Context, task *model.Task) error {
	current, ok := st.tasks[task.ID]
	if !ok {
		return repository.ErrTaskNotFound
	}
	if _, ok := st.users[task.UserID]; !ok {
		return repository.ErrUserNotFound
	}
	task.CreatedAt = current.CreatedAt
	task.UpdatedAt = time.Now().UTC()
	st.tasks[task.ID] = *task
	return nil
}

func (st *state) DeleteTask(ctx context.Context, id int64) error {
	if _, ok := st.tasks[id]; !ok {
		return repository.ErrTaskNotFound
	}
	delete(st.tasks, id)
	return nil
}

func (st *state) ListUsers(ctx context.Context) ([]*model.User, error) {
	users := make([]*model.User, 0, len(st.users))
	for _, u := range st.users {
		u := u
		users = append(users, &u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (st *state) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	u, ok := st.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (st *state) GetUserForShare(ctx context.Context, id int64) (*model.User, error) {
	return st.GetUserByID(ctx, id)
}

func (st *state) GetUserForUpdate(ctx context.Context, id int64) (*model.User, error) {
	return st.GetUserByID(ctx, id)
}

func (st *state) CreateUser(ctx context.Context, user *model.User) error {
	if st.usernameTaken(user.Username, 0) {
		return repository.ErrUsernameExists
	}
	now := time.Now().UTC()
	user.ID = st.nextUserID
	user.CreatedAt = now
	user.UpdatedAt = now
	st.nextUserID++
	st.users[user.ID] = *user
	return nil
}

func (st *state) UpdateUser(ctx context.Context, user *model.User) error {
	current, ok := st.users[user.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	if st.usernameTaken(user.Username, user.ID) {
		return repository.ErrUsernameExists
	}
	user.CreatedAt = current.CreatedAt
	user.UpdatedAt = time.Now().UTC()
	st.users[user.ID] = *user
	return nil
}

// DeleteUser removes the user and, like ON DELETE CASCADE, their tasks.
func (st *state) DeleteUser(ctx context.Context, id int64) error {
	if _, ok := st.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(st.users, id)
	for tid, t := range st.tasks {
		if t.UserID == id {
			delete(st.tasks, tid)
		}
	}
	return nil
}

func (st *state) usernameTaken(username string, except int64) bool {
	for id, u := range st.users {
		if id != except && u.Username == username {
			return true
		}
	}
	return false
}
