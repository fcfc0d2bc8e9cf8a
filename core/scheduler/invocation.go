package scheduler

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PlayCommand is the command line a task runs to play one ringtone through
// the reusable "play" handler of this binary.
func PlayCommand(executable, ringtonePath string) string {
	return quote(executable) + " play " + quote(ringtonePath)
}

// quote wraps s in double quotes without escaping; Windows paths keep their
// backslashes.
func quote(s string) string {
	return `"` + s + `"`
}

// wrapperCommand is the task command when it points at a wrapper script.
func wrapperCommand(wrapperPath string) string {
	return quote(wrapperPath)
}

// WrapperName is deterministic per ringtone so recreating a task rewrites the
// same script instead of piling up new ones.
func WrapperName(ringtonePath string, windows bool) string {
	sum := md5.Sum([]byte(ringtonePath))
	ext := ".sh"
	if windows {
		ext = ".cmd"
	}
	return "rt_" + hex.EncodeToString(sum[:])[:12] + ext
}

// wrapperContent renders the script body. The path is quoted so the shell
// treats it as data: single quotes for sh, doubled percent signs for cmd.
func wrapperContent(executable, ringtonePath string, windows bool) string {
	if windows {
		line := strings.ReplaceAll(PlayCommand(executable, ringtonePath), "%", "%%")
		return fmt.Sprintf("@echo off\r\n%s %%*\r\n", line)
	}
	return fmt.Sprintf("#!/bin/sh\nexec %s play %s \"$@\"\n", shellQuote(executable), shellQuote(ringtonePath))
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// writeWrapper writes (or rewrites) the wrapper script for a ringtone and
// returns its absolute path.
func writeWrapper(dir, executable, ringtonePath string, windows bool) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create scripts directory %s: %w", dir, err)
	}
	path, err := filepath.Abs(filepath.Join(dir, WrapperName(ringtonePath, windows)))
	if err != nil {
		return "", fmt.Errorf("failed to resolve wrapper path in %s: %w", dir, err)
	}
	if err := os.WriteFile(path, []byte(wrapperContent(executable, ringtonePath, windows)), 0755); err != nil {
		return "", fmt.Errorf("failed to write wrapper script %s: %w", path, err)
	}
	return path, nil
}
