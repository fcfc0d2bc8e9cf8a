package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"ringtoned/logger"
	"ringtoned/model"
)

type taskNameRequest struct {
	TaskName string `json:"task_name"`
}

type testPlaybackRequest struct {
	RingtonePath string `json:"ringtone_path"`
}

// requireScheduler writes 503 and returns false when schtasks is missing.
func (h *APIHandler) requireScheduler(w http.ResponseWriter) bool {
	if h.tasks.Available() {
		return true
	}
	writeError(w, http.StatusServiceUnavailable, schedulerUnavailable)
	return false
}

// SchedulerStatusHandler reports whether tasks can be registered.
func (h *APIHandler) SchedulerStatusHandler(w http.ResponseWriter, r *http.Request) {
	available := h.tasks.Available()
	message := "Windows Task Scheduler service is available"
	if !available {
		message = schedulerUnavailable
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"available": available,
		"message":   message,
	})
}

// CreateTaskHandler registers a weekly task that plays a ringtone.
func (h *APIHandler) CreateTaskHandler(w http.ResponseWriter, r *http.Request) {
	if !h.requireScheduler(w) {
		return
	}

	var req model.CreateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if missing := missingTaskField(req); missing != "" {
		writeError(w, http.StatusBadRequest, "Missing required field: "+missing)
		return
	}

	resolved, err := filepath.Abs(req.RingtonePath)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ringtone path: "+err.Error())
		return
	}
	if _, err := os.Stat(resolved); err != nil {
		writeError(w, http.StatusNotFound, "Ringtone file not found: "+resolved)
		return
	}

	if err := h.tasks.Create(r.Context(), req.TaskName, resolved, req.Time, req.Days); err != nil {
		fail(w, r, err)
		return
	}
	logger.Info("Created scheduled task", logger.String("task", req.TaskName), logger.String("ringtone", resolved))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   fmt.Sprintf("Scheduled task %q created successfully", req.TaskName),
		"task_name": req.TaskName,
		"full_name": h.tasks.FullName(req.TaskName),
	})
}

func missingTaskField(req model.CreateTaskRequest) string {
	switch {
	case strings.TrimSpace(req.TaskName) == "":
		return "task_name"
	case req.RingtonePath == "":
		return "ringtone_path"
	case req.Time == "":
		return "time"
	case req.Days == nil:
		return "days"
	}
	return ""
}

// DeleteTaskHandler removes a task. A failed delete still answers 200: the
// task most likely never existed.
func (h *APIHandler) DeleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	name, ok := h.taskName(w, r)
	if !ok {
		return
	}

	message := fmt.Sprintf("Scheduled task %q deleted successfully", name)
	if err := h.tasks.Delete(r.Context(), name); err != nil {
		logger.Info("Task deletion failed, task may not exist", logger.String("task", name), logger.ErrorField(err))
		message = fmt.Sprintf("Scheduled task %q was not found or already deleted", name)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   message,
		"task_name": name,
	})
}

// EnableTaskHandler re-enables a disabled task.
func (h *APIHandler) EnableTaskHandler(w http.ResponseWriter, r *http.Request) {
	h.toggleTask(w, r, "enabled", h.tasks.Enable)
}

// DisableTaskHandler disables a task without deleting it.
func (h *APIHandler) DisableTaskHandler(w http.ResponseWriter, r *http.Request) {
	h.toggleTask(w, r, "disabled", h.tasks.Disable)
}

func (h *APIHandler) toggleTask(w http.ResponseWriter, r *http.Request, verb string, op func(context.Context, string) error) {
	name, ok := h.taskName(w, r)
	if !ok {
		return
	}
	if err := op(r.Context(), name); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   fmt.Sprintf("Scheduled task %q %s successfully", name, verb),
		"task_name": name,
	})
}

// taskName checks availability and decodes {"task_name": ...}.
func (h *APIHandler) taskName(w http.ResponseWriter, r *http.Request) (string, bool) {
	if !h.requireScheduler(w) {
		return "", false
	}
	var req taskNameRequest
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.TaskName) == "" {
		writeError(w, http.StatusBadRequest, "Task name is required")
		return "", false
	}
	return req.TaskName, true
}

// TestPlaybackHandler plays a ringtone now through the same command the
// scheduler would run.
func (h *APIHandler) TestPlaybackHandler(w http.ResponseWriter, r *http.Request) {
	if !h.requireScheduler(w) {
		return
	}

	var req testPlaybackRequest
	if err := decodeJSON(r, &req); err != nil || req.RingtonePath == "" {
		writeError(w, http.StatusBadRequest, "Ringtone path is required")
		return
	}
	if _, err := os.Stat(req.RingtonePath); err != nil {
		writeError(w, http.StatusNotFound, "Ringtone file not found")
		return
	}
	if !h.testLimiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "Too many test playbacks, try again shortly")
		return
	}

	if err := h.tasks.TestPlayback(r.Context(), req.RingtonePath); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"message":       "Ringtone test played successfully",
		"ringtone_path": req.RingtonePath,
	})
}

// ListTasksHandler lists the ringtone tasks known to the OS scheduler.
func (h *APIHandler) ListTasksHandler(w http.ResponseWriter, r *http.Request) {
	if !h.requireScheduler(w) {
		return
	}
	tasks, err := h.tasks.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"tasks":   tasks,
		"count":   len(tasks),
	})
}

// TaskStatusHandler queries the state of a single task.
func (h *APIHandler) TaskStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !h.requireScheduler(w) {
		return
	}
	name := mux.Vars(r)["name"]
	status, err := h.tasks.Status(r.Context(), name)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"task_name": name,
		"full_name": h.tasks.FullName(name),
		"status":    status,
	})
}
