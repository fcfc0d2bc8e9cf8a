package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"ringtoned/core/scheduler"
	"ringtoned/logger"
	"ringtoned/repository"
)

const schedulerUnavailable = "Windows Task Scheduler service is not available"

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("Failed to write response", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "error": msg})
}

// errorStatus maps domain errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, repository.ErrInvalidFolder),
		errors.Is(err, repository.ErrUnsupportedFormat),
		errors.Is(err, repository.ErrInvalidRequest),
		errors.Is(err, scheduler.ErrInvalidDay),
		errors.Is(err, scheduler.ErrInvalidTime),
		errors.Is(err, scheduler.ErrCommandTooLong):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, scheduler.ErrRingtoneNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// fail logs server-side failures and writes the error response.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.ErrorField(err))
	}
	writeError(w, status, err.Error())
}

func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errors.New("No data provided")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("No data provided")
	}
	return nil
}
