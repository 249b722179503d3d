package model

import (
	"strconv"
	"time"
)

// Task is a unit of work owned by exactly one User.
type Task struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Priority  int       `json:"priority"`
	Slug      string    `json:"slug"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// CachedTask represents task data stored in a Redis hash.
// Uses string types for Redis hash compatibility.
type CachedTask struct {
	Title     string `redis:"title"`
	Content   string `redis:"content"`
	Priority  string `redis:"priority"`
	Slug      string `redis:"slug"`
	UserID    string `redis:"user_id"`
	UpdatedAt string `redis:"updated_at"` // Unix timestamp
}

// ToTask converts CachedTask to the Task domain model.
// Returns false when a numeric field cannot be parsed.
func (c *CachedTask) ToTask(id int64) (*Task, bool) {
	priority, err := strconv.Atoi(c.Priority)
	if err != nil {
		return nil, false
	}
	userID, err := strconv.ParseInt(c.UserID, 10, 64)
	if err != nil {
		return nil, false
	}

	task := &Task{
		ID:       id,
		Title:    c.Title,
		Content:  c.Content,
		Priority: priority,
		Slug:     c.Slug,
		UserID:   userID,
	}

	if c.UpdatedAt != "" {
		if ts, err := strconv.ParseInt(c.UpdatedAt, 10, 64); err == nil {
			task.UpdatedAt = time.Unix(ts, 0)
		}
	}

	return task, true
}

// ToCachedTask converts Task to its cached representation.
func (t *Task) ToCachedTask() *CachedTask {
	return &CachedTask{
		Title:     t.Title,
		Content:   t.Content,
		Priority:  strconv.Itoa(t.Priority),
		Slug:      t.Slug,
		UserID:    strconv.FormatInt(t.UserID, 10),
		UpdatedAt: strconv.FormatInt(t.UpdatedAt.Unix(), 10),
	}
}
