// Package model defines domain entities for the application.
package model

import "time"

// User owns zero or more tasks.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Firstname    string    `json:"firstname"`
	Lastname     string    `json:"lastname"`
	Age          int       `json:"age"`
	Slug         string    `json:"slug"`
	PasswordHash *string   `json:"-"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// HasPassword reports whether a password hash is stored for the user.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
