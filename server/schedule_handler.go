package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"ringtoned/logger"
	"ringtoned/model"
	"ringtoned/repository"
)

// ListSchedulesHandler returns the schedule records shared between origins.
func (h *APIHandler) ListSchedulesHandler(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.schedules.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"schedules": schedules,
		"count":     len(schedules),
	})
}

// SaveScheduleHandler inserts or replaces a record by id.
func (h *APIHandler) SaveScheduleHandler(w http.ResponseWriter, r *http.Request) {
	var rec model.ScheduleRecord
	if err := decodeJSON(r, &rec); err != nil || len(rec) == 0 {
		writeError(w, http.StatusBadRequest, "No schedule data provided")
		return
	}

	id, err := h.schedules.Save(r.Context(), rec)
	if err != nil {
		fail(w, r, err)
		return
	}
	logger.Info("Schedule saved", logger.String("id", id))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"message":     "Schedule data saved successfully",
		"schedule_id": id,
	})
}

// DeleteScheduleHandler removes a record by id.
func (h *APIHandler) DeleteScheduleHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.schedules.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Schedule %s not found", id))
			return
		}
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"message":     fmt.Sprintf("Schedule %s deleted successfully", id),
		"schedule_id": id,
	})
}
