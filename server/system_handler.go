package server

import (
	"net/http"
	"strconv"
	"time"

	"ringtoned/logger"
)

const isoLocal = "2006-01-02T15:04:05.000000"

// HealthHandler reports the library paths and whether ffmpeg works.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	available := h.processor.Available(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":               "healthy",
		"ringtones_folder":     h.cfg.RingtonesDir,
		"wav_ringtones_folder": h.cfg.WavDir,
		"mp3_ringtones_folder": h.cfg.MP3Dir,
		"upload_folder":        h.cfg.UploadDir,
		"ffmpeg_available":     available,
		"ffmpeg_path":          h.ffmpegPath(available),
		"scheduler_available":  h.tasks.Available(),
		"timestamp":            time.Now().Format(isoLocal),
	})
}

// FFmpegStatusHandler reports whether MP3 conversion is possible.
func (h *APIHandler) FFmpegStatusHandler(w http.ResponseWriter, r *http.Request) {
	available := h.processor.Available(r.Context())
	message := "FFmpeg is not available"
	if available {
		message = "FFmpeg is available and working"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":                true,
		"ffmpeg_available":       available,
		"ffmpeg_path":            h.ffmpegPath(available),
		"mp3_conversion_enabled": available,
		"message":                message,
	})
}

func (h *APIHandler) ffmpegPath(available bool) *string {
	if !available {
		return nil
	}
	p := h.cfg.FFmpegPath
	return &p
}

// PlaybackHistoryHandler lists recent playback attempts, newest first.
func (h *APIHandler) PlaybackHistoryHandler(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, http.StatusServiceUnavailable, "Playback history is not available")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"history": records,
		"count":   len(records),
	})
}

// LibraryEventsHandler upgrades to a websocket that receives library changes.
func (h *APIHandler) LibraryEventsHandler(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		writeError(w, http.StatusServiceUnavailable, "Library events are not available")
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("Websocket upgrade failed", logger.ErrorField(err))
		return
	}
	h.hub.Serve(r.Context(), conn)
}
