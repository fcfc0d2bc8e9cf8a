// Package server is the HTTP facade over the ringtone library, the schedule
// store and the OS task registrar.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"ringtoned/config"
	"ringtoned/core/audio"
	"ringtoned/core/library"
	"ringtoned/logger"
	"ringtoned/model"
	"ringtoned/repository"
)

// TaskRegistrar is the subset of the OS scheduler wrapper the API drives.
type TaskRegistrar interface {
	Available() bool
	FullName(taskName string) string
	Create(ctx context.Context, taskName, ringtonePath, clock string, days []int) error
	Delete(ctx context.Context, taskName string) error
	Enable(ctx context.Context, taskName string) error
	Disable(ctx context.Context, taskName string) error
	List(ctx context.Context) ([]model.TaskInfo, error)
	Status(ctx context.Context, taskName string) (string, error)
	TestPlayback(ctx context.Context, ringtonePath string) error
}

// Deps holds everything the handlers need. History and Hub may be nil.
type Deps struct {
	Config    *config.Config
	Ringtones repository.RingtoneRepository
	Schedules repository.ScheduleRepository
	History   repository.HistoryRepository
	Tasks     TaskRegistrar
	Processor audio.Processor
	Hub       *library.Hub
}

// APIHandler serves every API endpoint.
type APIHandler struct {
	cfg       *config.Config
	ringtones repository.RingtoneRepository
	schedules repository.ScheduleRepository
	history   repository.HistoryRepository
	tasks     TaskRegistrar
	processor audio.Processor
	hub       *library.Hub

	testLimiter *rate.Limiter
	upgrader    websocket.Upgrader
}

// NewAPIHandler creates the handler set.
func NewAPIHandler(d Deps) *APIHandler {
	limit := rate.Inf
	if n := d.Config.TestPlaybackPerMinute; n > 0 {
		limit = rate.Every(time.Minute / time.Duration(n))
	}
	burst := d.Config.TestPlaybackPerMinute
	if burst < 1 {
		burst = 1
	}

	policy := newOriginPolicy(d.Config.CORSOrigins, d.Config.CORSNetworkPorts)
	return &APIHandler{
		cfg:         d.Config,
		ringtones:   d.Ringtones,
		schedules:   d.Schedules,
		history:     d.History,
		tasks:       d.Tasks,
		processor:   d.Processor,
		hub:         d.Hub,
		testLimiter: rate.NewLimiter(limit, burst),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || policy.Allowed(origin)
			},
		},
	}
}

// NewRouter wires every route. CORS wraps the router itself so preflight
// requests are answered even for routes that only accept POST.
func NewRouter(d Deps) http.Handler {
	h := NewAPIHandler(d)

	router := mux.NewRouter()
	router.Use(metricsMiddleware)

	router.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/ffmpeg/status", h.FFmpegStatusHandler).Methods(http.MethodGet)

	router.HandleFunc("/api/ringtones", h.ListRingtonesHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/ringtones", h.SaveRingtoneHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/ringtones/{folder}/{filename}", h.DownloadRingtoneHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/ringtones/{folder}/{filename}", h.DeleteRingtoneHandler).Methods(http.MethodDelete)
	router.HandleFunc("/api/upload", h.UploadHandler).Methods(http.MethodPost)

	router.HandleFunc("/api/task-scheduler/status", h.SchedulerStatusHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/task-scheduler/create", h.CreateTaskHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/task-scheduler/delete", h.DeleteTaskHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/task-scheduler/enable", h.EnableTaskHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/task-scheduler/disable", h.DisableTaskHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/task-scheduler/test", h.TestPlaybackHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/task-scheduler/list", h.ListTasksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/task-scheduler/tasks/{name}/status", h.TaskStatusHandler).Methods(http.MethodGet)

	router.HandleFunc("/api/schedules", h.ListSchedulesHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/schedules", h.SaveScheduleHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/schedules/{id}", h.DeleteScheduleHandler).Methods(http.MethodDelete)

	router.HandleFunc("/api/playback/history", h.PlaybackHistoryHandler).Methods(http.MethodGet)
	router.HandleFunc("/ws/library", h.LibraryEventsHandler).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	policy := newOriginPolicy(d.Config.CORSOrigins, d.Config.CORSNetworkPorts)
	return corsMiddleware(policy)(router)
}

// EnsureDirs creates the library directories.
func EnsureDirs(cfg *config.Config) error {
	for _, dir := range cfg.Dirs() {
		if err := ensureDirExists(dir); err != nil {
			return err
		}
	}
	return nil
}

func ensureDirExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", path, err)
		}
		logger.Info("Created directory", logger.String("path", path))
	}
	return nil
}

// Start serves handler on cfg.ServerAddr until ctx is cancelled, then shuts
// down gracefully.
func Start(ctx context.Context, cfg *config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		// ffmpeg conversion of a posted ringtone can take a while.
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("Server exited")
	return nil
}
