// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/taskmanager/taskmanager/internal/handler/dto"
	"github.com/taskmanager/taskmanager/internal/middleware"
	"github.com/taskmanager/taskmanager/internal/service"
)

// Handler serves the welcome probe and the router fallbacks.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// Welcome answers GET /.
func (h *Handler) Welcome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Welcome to Taskmanager"})
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeDetail(w, http.StatusNotFound, "Not Found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already out; an encode failure only means the client went away.
	_ = json.NewEncoder(w).Encode(data)
}

// writeDetail writes {"detail": msg}.
func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Detail: msg})
}

// writeValidation writes a 422 with the field error list.
func writeValidation(w http.ResponseWriter, errs dto.FieldErrors) {
	writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{Detail: errs})
}

// errBodyTooLarge marks a body cut off by MaxBodySize.
var errBodyTooLarge = errors.New("request body too large")

// errTrailingData marks bytes left over after the JSON object.
var errTrailingData = errors.New("unexpected data after JSON object")

// decodeBody decodes a single JSON object into dst. Malformed JSON, trailing
// data and type mismatches come back as field errors; an oversize body as
// errBodyTooLarge.
func decodeBody(r *http.Request, dst any) (dto.FieldErrors, error) {
	if r.Body == nil {
		return dto.FieldErrors{dto.Missing("body")}, nil
	}

	dec := json.NewDecoder(r.Body)
	err := dec.Decode(dst)
	if err == nil {
		err = expectEOF(dec)
	}
	if err == nil {
		return nil, nil
	}

	var (
		maxErr    *http.MaxBytesError
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
	)
	switch {
	case errors.As(err, &maxErr):
		return nil, errBodyTooLarge
	case errors.Is(err, io.EOF):
		return dto.FieldErrors{dto.Missing("body")}, nil
	case errors.As(err, &typeErr):
		return dto.FieldErrors{{
			Loc:  []string{"body", typeErr.Field},
			Msg:  "Input should be a valid " + typeErr.Type.String(),
			Type: dto.TypeWrongType,
		}}, nil
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, errTrailingData):
		return dto.FieldErrors{{Loc: []string{"body"}, Msg: "JSON decode error", Type: dto.TypeJSON}}, nil
	default:
		return dto.FieldErrors{{Loc: []string{"body"}, Msg: err.Error(), Type: dto.TypeJSON}}, nil
	}
}

// expectEOF fails unless only whitespace follows the decoded value.
func expectEOF(dec *json.Decoder) error {
	var extra json.RawMessage
	switch err := dec.Decode(&extra); {
	case errors.Is(err, io.EOF):
		return nil
	case err == nil:
		return errTrailingData
	default:
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return errTrailingData
	}
}

// queryID parses a required integer query parameter.
func queryID(r *http.Request, name string) (int64, dto.FieldErrors) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, dto.FieldErrors{dto.Missing("query", name)}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, dto.FieldErrors{{
			Loc:  []string{"query", name},
			Msg:  "Input should be a valid integer, unable to parse string as an integer",
			Type: dto.TypeInt,
		}}
	}
	return id, nil
}

// handleServiceError maps service errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		writeDetail(w, http.StatusNotFound, "Task was not found")
	case errors.Is(err, service.ErrUserNotFound):
		writeDetail(w, http.StatusNotFound, "User was not found")
	case errors.Is(err, service.ErrUsernameTaken):
		writeDetail(w, http.StatusConflict, "Username is already taken")
	case errors.Is(err, errBodyTooLarge):
		writeDetail(w, http.StatusRequestEntityTooLarge, "Request body too large")
	default:
		logger.Error("internal_error",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
	}
}
