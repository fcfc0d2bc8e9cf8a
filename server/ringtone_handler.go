package server

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"ringtoned/repository"
)

// ListRingtonesHandler returns every ringtone in both folders.
func (h *APIHandler) ListRingtonesHandler(w http.ResponseWriter, r *http.Request) {
	ringtones, err := h.ringtones.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"ringtones": ringtones,
		"count":     len(ringtones),
	})
}

// SaveRingtoneHandler accepts a multipart form carrying either the trimmed
// clip as "file" or the name of an earlier upload as "source".
func (h *APIHandler) SaveRingtoneHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	req := repository.SaveRequest{
		Source:       r.FormValue("source"),
		OriginalName: r.FormValue("original_name"),
		StartTime:    r.FormValue("start_time"),
		EndTime:      r.FormValue("end_time"),
		Duration:     r.FormValue("duration"),
	}

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		if header.Filename == "" {
			writeError(w, http.StatusBadRequest, "No file selected")
			return
		}
		req.Filename = header.Filename
		req.Body = file
	case errors.Is(err, http.ErrMissingFile) && req.Source != "":
	default:
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}

	saved, err := h.ringtones.Save(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}

	meta := saved.Metadata
	message := fmt.Sprintf("%s ringtone created successfully!", strings.ToUpper(meta.Format))
	if saved.MP3Metadata != nil {
		message = "Ringtone created successfully in both WAV and MP3 formats!"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"message":       message,
		"filename":      meta.Filename,
		"file_path":     meta.FilePath,
		"size":          saved.Size,
		"created":       saved.Created,
		"metadata":      meta,
		"format":        meta.Format,
		"folder":        meta.Folder,
		"mp3_available": meta.MP3Available,
		"mp3_filename":  meta.MP3Filename,
		"mp3_path":      meta.MP3Path,
		"mp3_created":   saved.MP3Created(),
		"mp3_metadata":  saved.MP3Metadata,
	})
}

// DownloadRingtoneHandler sends a ringtone as an attachment.
func (h *APIHandler) DownloadRingtoneHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	path, err := h.ringtones.Open(vars["folder"], vars["filename"])
	if err != nil {
		fail(w, r, err)
		return
	}

	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": filepath.Base(path)}))
	http.ServeFile(w, r, path)
}

// DeleteRingtoneHandler removes a ringtone together with its other format.
func (h *APIHandler) DeleteRingtoneHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	folder, filename := vars["folder"], vars["filename"]

	if err := h.ringtones.Delete(r.Context(), folder, filename); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  "Ringtone deleted successfully",
		"filename": filename,
		"folder":   folder,
	})
}

// UploadHandler stores an original audio file for later trimming.
func (h *APIHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()
	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "No file selected")
		return
	}

	uploaded, err := h.ringtones.SaveUpload(r.Context(), header.Filename, file)
	if err != nil {
		fail(w, r, err)
		return
	}

	ext := strings.ToUpper(strings.TrimPrefix(filepath.Ext(uploaded.Filename), "."))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   fmt.Sprintf(".%s audio file uploaded successfully", ext),
		"filename":  uploaded.Filename,
		"file_path": uploaded.FilePath,
		"size":      uploaded.Size,
		"uploaded":  uploaded.Uploaded,
	})
}
