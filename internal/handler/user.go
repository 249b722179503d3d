package handler

import (
	"log/slog"
	"net/http"

	"github.com/taskmanager/taskmanager/internal/handler/dto"
	"github.com/taskmanager/taskmanager/internal/service"
)

// UserHandler handles HTTP requests for user operations.
type UserHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /user/.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToUserListResponse(users))
}

// Get handles GET /user/user_id?user_id=.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, errs := queryID(r, "user_id")
	if errs != nil {
		writeValidation(w, errs)
		return
	}

	user, err := h.svc.GetUser(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// Tasks handles GET /user/user_id/tasks?user_id=.
func (h *UserHandler) Tasks(w http.ResponseWriter, r *http.Request) {
	id, errs := queryID(r, "user_id")
	if errs != nil {
		writeValidation(w, errs)
		return
	}

	tasks, err := h.svc.ListUserTasks(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToTaskListResponse(tasks))
}

// Create handles POST /user/create.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	user, err := h.svc.CreateUser(r.Context(), input)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("user_created", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, dto.TransactionResponse{
		StatusCode:  http.StatusCreated,
		Transaction: "Successful",
	})
}

// Update handles PUT /user/update?user_id=.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, errs := queryID(r, "user_id")
	if errs != nil {
		writeValidation(w, errs)
		return
	}
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	if _, err := h.svc.UpdateUser(r.Context(), id, input); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("user_updated", "user_id", id, "password_changed", input.Password != nil)
	writeJSON(w, http.StatusOK, dto.TransactionResponse{
		StatusCode:  http.StatusOK,
		Transaction: "User update is successful!",
	})
}

// Delete handles DELETE /user/delete?user_id=.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, errs := queryID(r, "user_id")
	if errs != nil {
		writeValidation(w, errs)
		return
	}

	if err := h.svc.DeleteUser(r.Context(), id); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("user_deleted", "user_id", id)
	writeJSON(w, http.StatusOK, dto.TransactionResponse{
		StatusCode:  http.StatusOK,
		Transaction: "User delete is successful",
	})
}

func (h *UserHandler) decodeInput(w http.ResponseWriter, r *http.Request) (service.UserInput, bool) {
	var req dto.UserRequest
	errs, err := decodeBody(r, &req)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return service.UserInput{}, false
	}
	if errs == nil {
		errs = req.Validate()
	}
	if len(errs) > 0 {
		writeValidation(w, errs)
		return service.UserInput{}, false
	}

	return service.UserInput{
		Username:  *req.Username,
		Firstname: *req.Firstname,
		Lastname:  *req.Lastname,
		Age:       *req.Age,
		Password:  req.Password,
	}, true
}
