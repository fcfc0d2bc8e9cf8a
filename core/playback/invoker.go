// Package playback plays a ringtone file when a scheduled task fires.
package playback

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"ringtoned/config"
	"ringtoned/logger"
	"ringtoned/model"
)

var (
	ErrMissingFile      = errors.New("ringtone file not found")
	ErrAllMethodsFailed = errors.New("all playback methods failed")
)

// HistoryRecorder stores the outcome of each run.
type HistoryRecorder interface {
	Record(ctx context.Context, rec model.PlaybackRecord) error
}

// Invoker plays one file using the first backend that succeeds, guarded by a
// lock file so overlapping tasks do not play on top of each other.
type Invoker struct {
	backends   []Backend
	lockPath   string
	staleAfter time.Duration
	history    HistoryRecorder
}

// NewInvoker creates an Invoker. history may be nil.
func NewInvoker(cfg *config.Config, backends []Backend, history HistoryRecorder) *Invoker {
	return &Invoker{
		backends:   backends,
		lockPath:   cfg.LockFile,
		staleAfter: cfg.LockStaleAfter,
		history:    history,
	}
}

// Play runs the backends in order and returns the name of the one that
// played the file.
func (inv *Invoker) Play(ctx context.Context, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: no path given", ErrMissingFile)
	}

	// Only a lock held by another run blocks playback; an unwritable lock
	// location just means playing unguarded.
	lock, err := AcquireLock(inv.lockPath, inv.staleAfter)
	switch {
	case errors.Is(err, ErrLocked):
		return "", err
	case err != nil:
		logger.Warn("Playback lock unavailable, playing without it",
			logger.String("path", inv.lockPath), logger.ErrorField(err))
	default:
		defer func() {
			if err := lock.Release(); err != nil {
				logger.Warn("Failed to release playback lock", logger.ErrorField(err))
			}
		}()
	}

	started := time.Now()
	method, err := inv.attempt(ctx, path)
	inv.record(ctx, path, method, started, err)
	return method, err
}

func (inv *Invoker) attempt(ctx context.Context, path string) (string, error) {
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrMissingFile, path)
	}

	logger.Info("Playing ringtone", logger.String("path", path))
	var errs []error
	for _, b := range inv.backends {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		logger.Info("Trying playback method", logger.String("method", b.Name()))
		err := b.Attempt(ctx, path)
		if err == nil {
			logger.Info("Ringtone played", logger.String("method", b.Name()))
			return b.Name(), nil
		}
		logger.Info("Playback method failed", logger.String("method", b.Name()), logger.ErrorField(err))
		errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
	}
	return "", fmt.Errorf("%w: %w", ErrAllMethodsFailed, errors.Join(errs...))
}

func (inv *Invoker) record(ctx context.Context, path, method string, started time.Time, playErr error) {
	if inv.history == nil {
		return
	}
	rec := model.PlaybackRecord{
		RingtonePath: path,
		Method:       method,
		Success:      playErr == nil,
		StartedAt:    started,
		TookMS:       time.Since(started).Milliseconds(),
	}
	if playErr != nil {
		rec.Error = playErr.Error()
	}
	if err := inv.history.Record(ctx, rec); err != nil {
		logger.Warn("Failed to record playback history", logger.ErrorField(err))
	}
}

// ExitCode maps a Play result to the process exit status.
func ExitCode(err error) int {
	if err != nil {
		return 1
	}
	return 0
}
