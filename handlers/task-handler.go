package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"sitetrack/microservices/tasks-service/logging"
	"sitetrack/microservices/tasks-service/models"
	"sitetrack/microservices/tasks-service/services"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskHandler struct {
	service *services.TaskService
}

func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// callerFromRequest reads the identity the gateway attaches after
// authentication. This service trusts the headers; token validation happens
// upstream.
func callerFromRequest(r *http.Request) (models.Caller, error) {
	userID := r.Header.Get("User-ID")
	role := r.Header.Get("Role")
	if userID == "" || role == "" {
		return models.Caller{}, services.NewUnauthorized()
	}
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return models.Caller{}, services.NewUnauthorized()
	}
	return models.Caller{ID: id, Role: models.Role(role)}, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Code    services.ErrorCode `json:"code"`
	Message string             `json:"message"`
	Details map[string]any     `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	var de *services.DomainError
	if !errors.As(err, &de) {
		logging.Logger.Errorf("Event ID: UNEXPECTED_ERROR, Description: Unhandled error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Code: "INTERNAL", Message: "internal server error"})
		return
	}

	status := http.StatusBadRequest
	switch de.Code {
	case services.CodeUnauthorized:
		status = http.StatusUnauthorized
	case services.CodeForbidden:
		status = http.StatusForbidden
	case services.CodeNotFound:
		status = http.StatusNotFound
	case services.CodeHasDependents:
		status = http.StatusConflict
	case services.CodeInfrastructure:
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, errorResponse{Code: de.Code, Message: de.Message, Details: de.Details})
}

// ListTasks handles GET /api/tasks with the recognized query parameters:
// projectId, priority, category, assignedTo, blocked, dueSoon, page, limit,
// includeStats.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	query, err := parseTaskQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.ListTasks(r.Context(), caller, query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func parseTaskQuery(r *http.Request) (services.TaskQuery, error) {
	var query services.TaskQuery
	params := r.URL.Query()

	if v := params.Get("projectId"); v != "" {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			return query, services.NewInvalidInput("projectId", "must be a valid id")
		}
		query.ProjectID = &id
	}
	if v := params.Get("assignedTo"); v != "" {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			return query, services.NewInvalidInput("assignedTo", "must be a valid id")
		}
		query.AssignedTo = &id
	}
	if v := params.Get("priority"); v != "" {
		priority := models.TaskPriority(v)
		if !priority.Valid() {
			return query, services.NewInvalidInput("priority", "unknown priority")
		}
		query.Priority = &priority
	}
	if v := params.Get("category"); v != "" {
		category := models.TaskCategory(v)
		if !category.Valid() {
			return query, services.NewInvalidInput("category", "unknown category")
		}
		query.Category = &category
	}
	query.Blocked = params.Get("blocked") == "true"
	query.DueSoon = params.Get("dueSoon") == "true"
	query.IncludeStats = params.Get("includeStats") == "true"

	if v := params.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return query, services.NewInvalidInput("page", "must be a positive integer")
		}
		query.Page = page
	}
	if v := params.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return query, services.NewInvalidInput("limit", "must be a positive integer")
		}
		query.Limit = limit
	}
	return query, nil
}

// GetTask handles GET /api/tasks/{taskID}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	taskID, err := taskIDFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	task, err := h.service.GetTask(r.Context(), caller, taskID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// CreateTask handles POST /api/tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var input services.CreateTaskInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, services.NewInvalidInput("body", "invalid request payload"))
		return
	}

	task, err := h.service.CreateTask(r.Context(), caller, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// UpdateTask handles PUT /api/tasks/{taskID}.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	taskID, err := taskIDFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var input services.UpdateTaskInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, services.NewInvalidInput("body", "invalid request payload"))
		return
	}

	task, err := h.service.UpdateTask(r.Context(), caller, taskID, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// DeleteTask handles DELETE /api/tasks/{taskID}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	taskID, err := taskIDFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.DeleteTask(r.Context(), caller, taskID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}

func taskIDFromRequest(r *http.Request) (primitive.ObjectID, error) {
	vars := mux.Vars(r)
	taskID, err := primitive.ObjectIDFromHex(vars["taskID"])
	if err != nil {
		return primitive.NilObjectID, services.NewInvalidInput("taskID", "must be a valid id")
	}
	return taskID, nil
}
