package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ringtoned/core/command"
	"ringtoned/core/scheduler"
	"ringtoned/logger"
)

var (
	taskTime string
	taskDays string
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage the OS scheduled tasks that play ringtones",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		rootCmd.PersistentPreRun(cmd, args)
		initLogging(cfg.LogFile, cfg.LogLevel, os.Stderr)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func newRegistrar() *scheduler.Registrar {
	return scheduler.NewRegistrar(cfg, command.NewExecRunner())
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ringtone tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tasks, err := newRegistrar().List(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tFULL NAME\tSTATUS")
		for _, t := range tasks {
			fmt.Fprintf(w, "%s\t%s\t%s\n", t.Name, t.FullName, t.Status)
		}
		return w.Flush()
	},
}

var tasksCreateCmd = &cobra.Command{
	Use:   "create <name> <ringtone-path>",
	Short: "Create a weekly task that plays a ringtone",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		days, err := parseDays(taskDays)
		if err != nil {
			return err
		}
		path, err := filepath.Abs(args[1])
		if err != nil {
			return err
		}
		reg := newRegistrar()
		if err := reg.Create(cmd.Context(), args[0], path, taskTime, days); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", reg.FullName(args[0]))
		return nil
	},
}

func parseDays(s string) ([]int, error) {
	var days []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", scheduler.ErrInvalidDay, part)
		}
		days = append(days, d)
	}
	return days, nil
}

// taskOpCmd builds a subcommand that runs one registrar operation on a task name.
func taskOpCmd(use, short, done string, op func(*scheduler.Registrar, context.Context, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <name>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := newRegistrar()
			if err := op(reg, cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", done, reg.FullName(args[0]))
			return nil
		},
	}
}

var tasksStatusCmd = &cobra.Command{
	Use:   "status <name>",
	Short: "Show the scheduler state of a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := newRegistrar().Status(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), status)
		return nil
	},
}

var tasksTestCmd = &cobra.Command{
	Use:   "test <ringtone-path>",
	Short: "Play a ringtone now through the scheduled task command",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return newRegistrar().TestPlayback(cmd.Context(), args[0])
	},
}

func init() {
	tasksCreateCmd.Flags().StringVarP(&taskTime, "time", "t", "", "time of day, HH:MM (24h)")
	tasksCreateCmd.Flags().StringVarP(&taskDays, "days", "d", "", "comma separated weekdays, 0=Sunday .. 6=Saturday")
	tasksCreateCmd.MarkFlagRequired("time")
	tasksCreateCmd.MarkFlagRequired("days")
	tasksCreateCmd.Example = `  # weekdays at 07:00
  ringtoned tasks create morning ringtones/wav_ringtones/alarm.wav --time 07:00 --days 1,2,3,4,5`

	tasksCmd.AddCommand(
		tasksListCmd,
		tasksCreateCmd,
		taskOpCmd("delete", "Delete a ringtone task", "Deleted", (*scheduler.Registrar).Delete),
		taskOpCmd("enable", "Enable a ringtone task", "Enabled", (*scheduler.Registrar).Enable),
		taskOpCmd("disable", "Disable a ringtone task", "Disabled", (*scheduler.Registrar).Disable),
		tasksStatusCmd,
		tasksTestCmd,
	)
	rootCmd.AddCommand(tasksCmd)
}
