package playback

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"ringtoned/core/audio"
	"ringtoned/core/command"
)

// Backend is one way of getting a file to the speakers. Attempt blocks until
// playback finishes and returns nil only if the file was played.
type Backend interface {
	Name() string
	Attempt(ctx context.Context, path string) error
}

var errWAVOnly = errors.New("backend only plays WAV files")

func isWAV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".wav")
}

// DefaultBackends returns the backends in the order they are tried: the OS
// sound API, then ffplay, then the platform's stock players.
func DefaultBackends(ffmpegPath string, runner command.Runner, timeout time.Duration) []Backend {
	return []Backend{
		nativeBackend{},
		&MixerBackend{ffplay: audio.SiblingTool(ffmpegPath, "ffplay"), runner: runner, timeout: timeout},
		&SystemBackend{players: systemPlayers(runtime.GOOS), runner: runner, timeout: timeout},
	}
}

// MixerBackend plays through ffplay without a window.
type MixerBackend struct {
	ffplay  string
	runner  command.Runner
	timeout time.Duration
}

func (b *MixerBackend) Name() string { return "mixer" }

func (b *MixerBackend) Attempt(ctx context.Context, path string) error {
	return runPlayer(ctx, b.runner, b.ffplay, []string{"-nodisp", "-autoexit", "-loglevel", "quiet", path}, b.timeout)
}

// player is a stock command line player. args are placed before the file.
type player struct {
	name    string
	args    []string
	wavOnly bool
}

func systemPlayers(goos string) []player {
	switch goos {
	case "windows":
		return []player{{name: "wmplayer", args: []string{"/play", "/close"}}}
	case "darwin":
		return []player{{name: "afplay"}}
	default:
		return []player{
			{name: "aplay", args: []string{"-q"}, wavOnly: true},
			{name: "paplay"},
			{name: "afplay"},
		}
	}
}

// SystemBackend tries each stock player in turn.
type SystemBackend struct {
	players []player
	runner  command.Runner
	timeout time.Duration
}

func (b *SystemBackend) Name() string { return "system" }

func (b *SystemBackend) Attempt(ctx context.Context, path string) error {
	var errs []error
	for _, p := range b.players {
		if p.wavOnly && !isWAV(path) {
			continue
		}
		args := append(append([]string(nil), p.args...), path)
		err := runPlayer(ctx, b.runner, p.name, args, b.timeout)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return errors.New("no system player for this file type")
	}
	return errors.Join(errs...)
}

func runPlayer(ctx context.Context, runner command.Runner, name string, args []string, timeout time.Duration) error {
	res, err := runner.Run(ctx, name, args, timeout)
	if err != nil {
		return err
	}
	if !res.OK() {
		if stderr := strings.TrimSpace(res.Stderr); stderr != "" {
			return fmt.Errorf("%s exited with code %d: %s", name, res.ExitCode, stderr)
		}
		return fmt.Errorf("%s exited with code %d", name, res.ExitCode)
	}
	return nil
}
