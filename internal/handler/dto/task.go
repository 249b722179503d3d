package dto

import (
	"math"
	"strings"

	"github.com/taskmanager/taskmanager/internal/model"
)

// TaskRequest is the body for creating or updating a task.
// Pointer fields distinguish an absent key from a zero value.
type TaskRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Priority *int    `json:"priority"`
	UserID   *int64  `json:"user_id"`
}

// Validate checks presence and ranges. Content may be empty but not absent.
func (r *TaskRequest) Validate() FieldErrors {
	var errs FieldErrors

	switch {
	case r.Title == nil:
		errs = append(errs, Missing("body", "title"))
	case strings.TrimSpace(*r.Title) == "":
		errs = append(errs, FieldError{Loc: []string{"body", "title"}, Msg: "Title must not be blank", Type: TypeValue})
	}

	if r.Content == nil {
		errs = append(errs, Missing("body", "content"))
	}

	switch {
	case r.Priority == nil:
		errs = append(errs, Missing("body", "priority"))
	case *r.Priority < 0:
		errs = append(errs, FieldError{Loc: []string{"body", "priority"}, Msg: "Input should be greater than or equal to 0", Type: TypeOutOfRange})
	case *r.Priority > math.MaxInt32:
		errs = append(errs, tooLarge("priority"))
	}

	switch {
	case r.UserID == nil:
		errs = append(errs, Missing("body", "user_id"))
	case *r.UserID <= 0:
		errs = append(errs, FieldError{Loc: []string{"body", "user_id"}, Msg: "Input should be a positive integer", Type: TypeValue})
	}

	return errs
}

// TaskResponse represents a task in API responses.
type TaskResponse struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Priority int    `json:"priority"`
	Slug     string `json:"slug"`
	UserID   int64  `json:"user_id"`
}

// ToTaskResponse converts a Task model to TaskResponse DTO.
func ToTaskResponse(t *model.Task) TaskResponse {
	return TaskResponse{
		ID:       t.ID,
		Title:    t.Title,
		Content:  t.Content,
		Priority: t.Priority,
		Slug:     t.Slug,
		UserID:   t.UserID,
	}
}

// ToTaskListResponse converts tasks to a never-nil response slice.
func ToTaskListResponse(tasks []*model.Task) []TaskResponse {
	out := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		out[i] = ToTaskResponse(t)
	}
	return out
}
