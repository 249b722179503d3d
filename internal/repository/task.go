package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/taskmanager/taskmanager/internal/model"
)

// Common errors for task repository operations.
var (
	ErrTaskNotFound = errors.New("task not found")
)

const taskColumns = `id, title, content, priority, slug, user_id, created_at, updated_at`

// ListTasks returns every task in insertion order.
func (q *Queries) ListTasks(ctx context.Context) ([]*model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY id ASC`

	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return collectTasks(rows)
}

// ListTasksByUser returns the tasks owned by userID in insertion order.
func (q *Queries) ListTasksByUser(ctx context.Context, userID int64) ([]*model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1 ORDER BY id ASC`

	rows, err := q.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks by user: %w", err)
	}
	return collectTasks(rows)
}

// GetTaskByID retrieves a task by its ID.
func (q *Queries) GetTaskByID(ctx context.Context, id int64) (*model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	return q.getTask(ctx, query, id)
}

// GetTaskForUpdate retrieves a task and locks its row until the transaction ends.
// Only meaningful inside InTx.
func (q *Queries) GetTaskForUpdate(ctx context.Context, id int64) (*model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 FOR UPDATE`
	return q.getTask(ctx, query, id)
}

// CreateTask inserts a task and fills in its generated ID and timestamps.
func (q *Queries) CreateTask(ctx context.Context, task *model.Task) error {
	query := `
		INSERT INTO tasks (title, content, priority, slug, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := q.db.QueryRow(ctx, query,
		task.Title,
		task.Content,
		task.Priority,
		task.Slug,
		task.UserID,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// UpdateTask overwrites every mutable column of a task.
func (q *Queries) UpdateTask(ctx context.Context, task *model.Task) error {
	query := `
		UPDATE tasks
		SET title = $2, content = $3, priority = $4, slug = $5, user_id = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := q.db.QueryRow(ctx, query,
		task.ID,
		task.Title,
		task.Content,
		task.Priority,
		task.Slug,
		task.UserID,
	).Scan(&task.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTaskNotFound
		}
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update task: %w", err)
	}

	return nil
}

// DeleteTask removes a task by ID.
func (q *Queries) DeleteTask(ctx context.Context, id int64) error {
	result, err := q.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrTaskNotFound
	}

	return nil
}

func (q *Queries) getTask(ctx context.Context, query string, id int64) (*model.Task, error) {
	task, err := scanTask(q.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task by ID: %w", err)
	}
	return task, nil
}

// scanTask scans a single row into a Task model.
// pgx.Rows satisfies pgx.Row, so this serves both QueryRow and iteration.
func scanTask(row pgx.Row) (*model.Task, error) {
	var task model.Task
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Content,
		&task.Priority,
		&task.Slug,
		&task.UserID,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	return &task, err
}

func collectTasks(rows pgx.Rows) ([]*model.Task, error) {
	defer rows.Close()

	tasks := make([]*model.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}
