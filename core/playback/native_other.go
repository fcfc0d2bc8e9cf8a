//go:build !windows

package playback

import (
	"context"
	"errors"
)

// nativeBackend has no OS sound API to call outside Windows.
type nativeBackend struct{}

func (nativeBackend) Name() string { return "native" }

func (nativeBackend) Attempt(ctx context.Context, path string) error {
	if !isWAV(path) {
		return errWAVOnly
	}
	return errors.New("native playback is only available on Windows")
}
