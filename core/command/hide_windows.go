//go:build windows

package command

import (
	"os/exec"
	"syscall"
)

// createNoWindow keeps console programs from flashing a window when the
// server or a scheduled task spawns them.
const createNoWindow = 0x08000000

func hideWindow(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true, CreationFlags: createNoWindow}
}
