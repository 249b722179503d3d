package dto

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/taskmanager/taskmanager/internal/model"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// UserRequest is the body for creating or updating a user.
// Password is optional; when present it must be at least MinPasswordLength runes.
type UserRequest struct {
	Username  *string `json:"username"`
	Firstname *string `json:"firstname"`
	Lastname  *string `json:"lastname"`
	Age       *int    `json:"age"`
	Password  *string `json:"password,omitempty"`
}

// Validate checks presence and ranges.
func (r *UserRequest) Validate() FieldErrors {
	var errs FieldErrors

	switch {
	case r.Username == nil:
		errs = append(errs, Missing("body", "username"))
	case strings.TrimSpace(*r.Username) == "":
		errs = append(errs, FieldError{Loc: []string{"body", "username"}, Msg: "Username must not be blank", Type: TypeValue})
	}

	if r.Firstname == nil {
		errs = append(errs, Missing("body", "firstname"))
	}
	if r.Lastname == nil {
		errs = append(errs, Missing("body", "lastname"))
	}

	switch {
	case r.Age == nil:
		errs = append(errs, Missing("body", "age"))
	case *r.Age < 0:
		errs = append(errs, FieldError{Loc: []string{"body", "age"}, Msg: "Input should be greater than or equal to 0", Type: TypeOutOfRange})
	case *r.Age > math.MaxInt32:
		errs = append(errs, tooLarge("age"))
	}

	if r.Password != nil && utf8.RuneCountInString(*r.Password) < MinPasswordLength {
		errs = append(errs, FieldError{Loc: []string{"body", "password"}, Msg: "String should have at least 8 characters", Type: TypeTooShort})
	}

	return errs
}

// UserResponse represents a user in API responses. The password hash never leaves the service.
type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Age       int    `json:"age"`
	Slug      string `json:"slug"`
}

// ToUserResponse converts a User model to UserResponse DTO.
func ToUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Firstname: u.Firstname,
		Lastname:  u.Lastname,
		Age:       u.Age,
		Slug:      u.Slug,
	}
}

// ToUserListResponse converts users to a never-nil response slice.
func ToUserListResponse(users []*model.User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = ToUserResponse(u)
	}
	return out
}
