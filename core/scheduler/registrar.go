// Package scheduler registers weekly ringtone tasks with the Windows Task
// Scheduler by driving the schtasks command.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"ringtoned/config"
	"ringtoned/core/command"
	"ringtoned/logger"
	"ringtoned/model"
)

var (
	ErrCommandFailed    = errors.New("scheduler command failed")
	ErrCommandTooLong   = errors.New("task command exceeds the scheduler limit")
	ErrRingtoneNotFound = errors.New("ringtone file not found")
)

// Registrar creates, lists and controls ringtone tasks.
type Registrar struct {
	runner       command.Runner
	schtasks     string
	prefix       string
	executable   string
	scriptsDir   string
	maxCmdLen    int
	timeout      time.Duration
	testTimeout  time.Duration
	windowsShell bool
}

// NewRegistrar builds a Registrar from the application configuration.
func NewRegistrar(cfg *config.Config, runner command.Runner) *Registrar {
	return &Registrar{
		runner:       runner,
		schtasks:     cfg.SchtasksPath,
		prefix:       cfg.TaskPrefix,
		executable:   cfg.PlayerExecutable,
		scriptsDir:   cfg.ScriptsDir,
		maxCmdLen:    cfg.MaxCommandLength,
		timeout:      cfg.SchedulerTimeout,
		testTimeout:  cfg.TestPlaybackTimeout,
		windowsShell: runtime.GOOS == "windows",
	}
}

// FullName returns the scheduler-side name of a ringtone task.
func (r *Registrar) FullName(taskName string) string {
	return r.prefix + taskName
}

// Available reports whether the schtasks tool can be found.
func (r *Registrar) Available() bool {
	_, ok := command.Lookup(r.schtasks)
	return ok
}

// Create registers (or replaces) a weekly task that plays ringtonePath at
// clock ("HH:MM") on the given weekdays (0=Sunday).
func (r *Registrar) Create(ctx context.Context, taskName, ringtonePath, clock string, days []int) error {
	if strings.TrimSpace(taskName) == "" {
		return fmt.Errorf("%w: empty task name", ErrCommandFailed)
	}
	if err := requireFile(ringtonePath); err != nil {
		return err
	}
	rec, err := NewRecurrence(clock, days)
	if err != nil {
		return err
	}

	taskCmd, err := r.taskCommand(ringtonePath)
	if err != nil {
		return err
	}

	fullName := r.FullName(taskName)
	args := []string{
		"/create",
		"/tn", fullName,
		"/tr", taskCmd,
		"/sc", "weekly",
		"/d", rec.DayString(),
		"/st", rec.Clock(),
		"/f",
	}
	if err := r.exec(ctx, "create", args); err != nil {
		return err
	}

	fields := []zap.Field{
		logger.String("task", fullName),
		logger.String("days", rec.DayString()),
		logger.String("time", rec.Clock()),
	}
	if next, err := rec.Next(time.Now()); err == nil {
		fields = append(fields, logger.String("next_run", next.Format(time.RFC3339)))
	}
	logger.Info("Scheduled task created", fields...)
	return nil
}

// taskCommand returns the command a task should run for ringtonePath, writing
// a wrapper script when the direct command does not fit.
func (r *Registrar) taskCommand(ringtonePath string) (string, error) {
	direct := PlayCommand(r.executable, ringtonePath)
	if len(direct) <= r.maxCmdLen {
		return direct, nil
	}

	wrapper, err := writeWrapper(r.scriptsDir, r.executable, ringtonePath, r.windowsShell)
	if err != nil {
		return "", err
	}
	cmd := wrapperCommand(wrapper)
	if len(cmd) > r.maxCmdLen {
		return "", fmt.Errorf("%w: wrapper command is %d characters (limit %d)", ErrCommandTooLong, len(cmd), r.maxCmdLen)
	}
	logger.Info("Task command too long, using wrapper script",
		logger.Int("direct_length", len(direct)),
		logger.String("wrapper", wrapper))
	return cmd, nil
}

// Delete removes a task.
func (r *Registrar) Delete(ctx context.Context, taskName string) error {
	return r.exec(ctx, "delete", []string{"/delete", "/tn", r.FullName(taskName), "/f"})
}

// Enable re-enables a disabled task.
func (r *Registrar) Enable(ctx context.Context, taskName string) error {
	return r.exec(ctx, "enable", []string{"/change", "/tn", r.FullName(taskName), "/enable"})
}

// Disable stops a task from firing without deleting it.
func (r *Registrar) Disable(ctx context.Context, taskName string) error {
	return r.exec(ctx, "disable", []string{"/change", "/tn", r.FullName(taskName), "/disable"})
}

// List returns the ringtone tasks known to the scheduler. Status is not
// resolved here; use Status for a single task.
func (r *Registrar) List(ctx context.Context) ([]model.TaskInfo, error) {
	res, err := r.query(ctx, "list", []string{"/query", "/fo", "csv", "/v"})
	if err != nil {
		return nil, err
	}
	return parseTaskList(res.Stdout, r.prefix), nil
}

// Status queries the state of one task.
func (r *Registrar) Status(ctx context.Context, taskName string) (string, error) {
	res, err := r.query(ctx, "status", []string{"/query", "/tn", r.FullName(taskName), "/fo", "csv", "/v"})
	if err != nil {
		return model.TaskStatusUnknown, err
	}
	return parseTaskStatus(res.Stdout), nil
}

// TestPlayback plays a ringtone immediately through the same command a task
// would run.
func (r *Registrar) TestPlayback(ctx context.Context, ringtonePath string) error {
	if err := requireFile(ringtonePath); err != nil {
		return err
	}

	name, args := r.executable, []string{"play", ringtonePath}
	if len(PlayCommand(r.executable, ringtonePath)) > r.maxCmdLen {
		wrapper, err := writeWrapper(r.scriptsDir, r.executable, ringtonePath, r.windowsShell)
		if err != nil {
			return err
		}
		name, args = wrapper, nil
	}

	res, err := r.runner.Run(ctx, name, args, r.testTimeout)
	if err == nil && !res.OK() {
		err = fmt.Errorf("%w: test playback exited %d: %s", ErrCommandFailed, res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	observe("test", err)
	if err != nil {
		logger.Warn("Test playback failed", logger.String("path", ringtonePath), logger.ErrorField(err))
		return err
	}
	return nil
}

func (r *Registrar) exec(ctx context.Context, op string, args []string) error {
	_, err := r.query(ctx, op, args)
	if err != nil {
		logger.Warn("Scheduler command failed", logger.String("op", op), logger.ErrorField(err))
	}
	return err
}

func (r *Registrar) query(ctx context.Context, op string, args []string) (command.Result, error) {
	logger.Debug("Running scheduler command", logger.String("cmd", command.Line(r.schtasks, args)))

	res, err := r.runner.Run(ctx, r.schtasks, args, r.timeout)
	if err == nil && !res.OK() {
		err = fmt.Errorf("%w: schtasks %s exited %d: %s", ErrCommandFailed, op, res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	observe(op, err)
	return res, err
}

func requireFile(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", ErrRingtoneNotFound)
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return fmt.Errorf("%w: %s", ErrRingtoneNotFound, path)
	}
	return nil
}
