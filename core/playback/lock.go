package playback

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"ringtoned/logger"
)

// ErrLocked means another playback started less than the stale window ago.
var ErrLocked = errors.New("another ringtone is already playing")

// Lock is a single-instance guard backed by a pid file.
type Lock struct {
	path string
}

// AcquireLock takes the playback lock. A lock file older than staleAfter is
// assumed to belong to a crashed run and is removed.
func AcquireLock(path string, staleAfter time.Duration) (*Lock, error) {
	if info, err := os.Stat(path); err == nil {
		age := time.Since(info.ModTime())
		if age < staleAfter {
			return nil, fmt.Errorf("%w (lock %s is %s old)", ErrLocked, path, age.Round(time.Second))
		}
		logger.Info("Removing stale playback lock", logger.String("path", path), logger.Duration("age", age))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove stale lock %s: %w", path, err)
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("failed to create lock %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write lock %s: %w", path, err)
	}
	return &Lock{path: path}, nil
}

// Release removes the lock file.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock %s: %w", l.path, err)
	}
	return nil
}
