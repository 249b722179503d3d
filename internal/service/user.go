package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taskmanager/taskmanager/internal/metrics"
	"github.com/taskmanager/taskmanager/internal/model"
	"github.com/taskmanager/taskmanager/internal/repository"
	"github.com/taskmanager/taskmanager/internal/slug"
)

// UserInput carries the client-settable user fields for create and update.
// A nil Password leaves any stored hash untouched on update.
type UserInput struct {
	Username  string
	Firstname string
	Lastname  string
	Age       int
	Password  *string
}

// UserService handles user business logic.
type UserService struct {
	store   Store
	hasher  PasswordHasher
	metrics metrics.Recorder
	logger  *slog.Logger
	evictor *evictor
}

// NewUserService creates a new UserService.
// taskCache may be nil; it is only used to evict tasks removed by a user delete.
func NewUserService(store Store, hasher PasswordHasher, taskCache TaskCache, recorder metrics.Recorder, logger *slog.Logger) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if taskCache == nil {
		taskCache = noopCache{}
	}
	logger = logger.With("component", "service.user")
	return &UserService{
		store:   store,
		hasher:  hasher,
		metrics: recorder,
		logger:  logger,
		evictor: newEvictor(taskCache, logger),
	}
}

// ListUsers returns all users ordered by ID.
func (s *UserService) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, wrapRepoError("get user", err)
	}
	return user, nil
}

// ListUserTasks returns the tasks owned by user id.
func (s *UserService) ListUserTasks(ctx context.Context, id int64) ([]*model.Task, error) {
	var tasks []*model.Task

	err := s.store.InTx(ctx, func(q repository.Querier) error {
		if _, err := q.GetUserByID(ctx, id); err != nil {
			return err
		}
		var err error
		tasks, err = q.ListTasksByUser(ctx, id)
		return err
	})
	if err != nil {
		return nil, wrapRepoError("list user tasks", err)
	}
	return tasks, nil
}

// CreateUser stores a new user. A duplicate username returns ErrUsernameTaken.
func (s *UserService) CreateUser(ctx context.Context, input UserInput) (*model.User, error) {
	user := &model.User{
		Username:  input.Username,
		Firstname: input.Firstname,
		Lastname:  input.Lastname,
		Age:       input.Age,
		Slug:      slug.Make(input.Username),
	}
	hash, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, wrapRepoError("create user", err)
	}

	s.metrics.IncMutation(metrics.EntityUser, metrics.OpCreate)
	return user, nil
}

// UpdateUser overwrites every client-settable field of user id and recomputes its slug.
func (s *UserService) UpdateUser(ctx context.Context, id int64, input UserInput) (*model.User, error) {
	hash, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	var user *model.User
	err = s.store.InTx(ctx, func(q repository.Querier) error {
		current, err := q.GetUserForUpdate(ctx, id)
		if err != nil {
			return err
		}

		current.Username = input.Username
		current.Firstname = input.Firstname
		current.Lastname = input.Lastname
		current.Age = input.Age
		current.Slug = slug.Make(input.Username)
		if hash != nil {
			current.PasswordHash = hash
		}

		if err := q.UpdateUser(ctx, current); err != nil {
			return err
		}
		user = current
		return nil
	})
	if err != nil {
		return nil, wrapRepoError("update user", err)
	}

	s.metrics.IncMutation(metrics.EntityUser, metrics.OpUpdate)
	return user, nil
}

// DeleteUser removes user id together with the tasks they own.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	var owned []int64

	err := s.store.InTx(ctx, func(q repository.Querier) error {
		if _, err := q.GetUserForUpdate(ctx, id); err != nil {
			return err
		}
		tasks, err := q.ListTasksByUser(ctx, id)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			owned = append(owned, t.ID)
		}
		return q.DeleteUser(ctx, id)
	})
	if err != nil {
		return wrapRepoError("delete user", err)
	}

	s.metrics.IncMutation(metrics.EntityUser, metrics.OpDelete)
	s.evictor.evict(ctx, owned...)
	return nil
}

// hashPassword returns nil when no password was supplied.
func (s *UserService) hashPassword(password *string) (*string, error) {
	if password == nil {
		return nil, nil
	}
	hash, err := s.hasher.Hash(*password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return &hash, nil
}
