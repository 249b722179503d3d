package handler

import (
	"log/slog"
	"net/http"

	"github.com/taskmanager/taskmanager/internal/handler/dto"
	"github.com/taskmanager/taskmanager/internal/service"
)

// TaskHandler handles HTTP requests for task operations.
type TaskHandler struct {
	svc    *service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(svc *service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /tack/.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.svc.ListTasks(r.Context())
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToTaskListResponse(tasks))
}

// Get handles GET /tack/task_id?task_id=.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, errs := queryID(r, "task_id")
	if errs != nil {
		writeValidation(w, errs)
		return
	}

	task, err := h.svc.GetTask(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToTaskResponse(task))
}

// Create handles POST /tack/create.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	task, err := h.svc.CreateTask(r.Context(), input)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("task_created",
		"task_id", task.ID,
		"user_id", task.UserID,
	)
	writeJSON(w, http.StatusCreated, dto.TransactionResponse{
		StatusCode:  http.StatusCreated,
		Transaction: "Successful",
	})
}

// Update handles PUT /tack/update?task_id=.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, errs := queryID(r, "task_id")
	if errs != nil {
		writeValidation(w, errs)
		return
	}
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	if _, err := h.svc.UpdateTask(r.Context(), id, input); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("task_updated", "task_id", id)
	writeJSON(w, http.StatusOK, dto.TransactionResponse{
		StatusCode:  http.StatusOK,
		Transaction: "Task update is successful!",
	})
}

// Delete handles DELETE /tack/delete?task_id=.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, errs := queryID(r, "task_id")
	if errs != nil {
		writeValidation(w, errs)
		return
	}

	if err := h.svc.DeleteTask(r.Context(), id); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("task_deleted", "task_id", id)
	writeJSON(w, http.StatusOK, dto.TransactionResponse{
		StatusCode:  http.StatusOK,
		Transaction: "Task delete is successful",
	})
}

// decodeInput reads and validates a TaskRequest, writing the error response itself.
func (h *TaskHandler) decodeInput(w http.ResponseWriter, r *http.Request) (service.TaskInput, bool) {
	var req dto.TaskRequest
	errs, err := decodeBody(r, &req)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return service.TaskInput{}, false
	}
	if errs == nil {
		errs = req.Validate()
	}
	if len(errs) > 0 {
		writeValidation(w, errs)
		return service.TaskInput{}, false
	}

	return service.TaskInput{
		Title:    *req.Title,
		Content:  *req.Content,
		Priority: *req.Priority,
		UserID:   *req.UserID,
	}, true
}
