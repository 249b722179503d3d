package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/taskmanager/taskmanager/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrUsernameExists = errors.New("username already exists")
)

const userColumns = `id, username, firstname, lastname, age, slug, password_hash, created_at, updated_at`

// ListUsers returns every user in insertion order.
func (q *Queries) ListUsers(ctx context.Context) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id ASC`

	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*model.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// GetUserByID retrieves a user by their ID.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return q.getUser(ctx, query, id)
}

// GetUserForShare retrieves a user and holds a key-share lock on the row, so the
// user cannot be deleted before the transaction that references it commits.
func (q *Queries) GetUserForShare(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR KEY SHARE`
	return q.getUser(ctx, query, id)
}

// GetUserForUpdate retrieves a user and locks the row for modification.
func (q *Queries) GetUserForUpdate(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	return q.getUser(ctx, query, id)
}

// CreateUser inserts a user and fills in its generated ID and timestamps.
func (q *Queries) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (username, firstname, lastname, age, slug, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := q.db.QueryRow(ctx, query,
		user.Username,
		user.Firstname,
		user.Lastname,
		user.Age,
		user.Slug,
		user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// UpdateUser overwrites every mutable column of a user.
func (q *Queries) UpdateUser(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET username = $2, firstname = $3, lastname = $4, age = $5, slug = $6,
		    password_hash = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := q.db.QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.Firstname,
		user.Lastname,
		user.Age,
		user.Slug,
		user.PasswordHash,
	).Scan(&user.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		if isUniqueViolation(err) {
			return ErrUsernameExists
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}

// DeleteUser removes a user. Their tasks go with them via ON DELETE CASCADE.
func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	result, err := q.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (q *Queries) getUser(ctx context.Context, query string, id int64) (*model.User, error) {
	user, err := scanUser(q.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return user, nil
}

// scanUser scans a single row into a User model.
func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Firstname,
		&user.Lastname,
		&user.Age,
		&user.Slug,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return &user, err
}
