//go:build windows

package playback

import (
	"context"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	sndSync      = 0x0000
	sndNoDefault = 0x0002
	sndFilename  = 0x00020000
)

var (
	winmm          = windows.NewLazySystemDLL("winmm.dll")
	procPlaySoundW = winmm.NewProc("PlaySoundW")
)

// nativeBackend plays WAV files with winmm's PlaySoundW, blocking until done.
type nativeBackend struct{}

func (nativeBackend) Name() string { return "native" }

func (nativeBackend) Attempt(ctx context.Context, path string) error {
	if !isWAV(path) {
		return errWAVOnly
	}
	if err := procPlaySoundW.Find(); err != nil {
		return fmt.Errorf("PlaySoundW unavailable: %w", err)
	}
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	ret, _, callErr := procPlaySoundW.Call(uintptr(unsafe.Pointer(p)), 0, sndFilename|sndSync|sndNoDefault)
	if ret == 0 {
		return fmt.Errorf("PlaySoundW failed for %s: %v", path, callErr)
	}
	return nil
}
