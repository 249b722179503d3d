// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"math"
	"strconv"
	"strings"
)

// Validation error types.
const (
	TypeMissing    = "missing"
	TypeValue      = "value_error"
	TypeInt        = "int_parsing"
	TypeJSON       = "json_invalid"
	TypeWrongType  = "type_error"
	TypeTooShort   = "string_too_short"
	TypeOutOfRange = "greater_than_equal"
	TypeTooLarge   = "less_than_equal"
)

// FieldError describes one invalid input location.
// Loc starts with "body" or "query", followed by the field name.
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// FieldErrors is the typed result of request validation. Empty means valid.
type FieldErrors []FieldError

// Error joins the messages so FieldErrors can travel as an error.
func (fe FieldErrors) Error() string {
	parts := make([]string, len(fe))
	for i, e := range fe {
		parts[i] = strings.Join(e.Loc, ".") + ": " + e.Msg
	}
	return strings.Join(parts, "; ")
}

// Missing builds a "field required" error.
func Missing(loc ...string) FieldError {
	return FieldError{Loc: loc, Msg: "Field required", Type: TypeMissing}
}

// ErrorResponse is the body of every non-2xx response.
// Detail is a string, or a FieldErrors list for 422 responses.
type ErrorResponse struct {
	Detail any `json:"detail"`
}

// MessageResponse is the welcome probe body.
type MessageResponse struct {
	Message string `json:"message"`
}

// TransactionResponse acknowledges a successful write.
type TransactionResponse struct {
	StatusCode  int    `json:"status code"`
	Transaction string `json:"transaction"`
}

// tooLarge reports an integer body field that does not fit the int4 column behind it.
func tooLarge(field string) FieldError {
	return FieldError{
		Loc:  []string{"body", field},
		Msg:  "Input should be less than or equal to " + strconv.Itoa(math.MaxInt32),
		Type: TypeTooLarge,
	}
}
