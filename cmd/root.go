package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ringtoned/config"
	"ringtoned/logger"
)

// cfg is loaded once before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:          "ringtoned",
	Short:        "Ringtone creator backend and the player its scheduled tasks run.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initLogging starts the global logger. A log file that cannot be opened is
// reported on stderr and logging continues on the console.
func initLogging(path, level string, console io.Writer) {
	err := logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(level),
		OutputPath: path,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
		Console:    console,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging to console only: %v\n", err)
	}
}
