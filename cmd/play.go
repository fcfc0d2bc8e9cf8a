package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ringtoned/core/command"
	"ringtoned/core/playback"
	"ringtoned/db"
	"ringtoned/logger"
	"ringtoned/repository"
)

var playVerbose bool

// playCmd is the entry point the OS scheduler runs. It exits 0 when the
// ringtone played and 1 otherwise.
var playCmd = &cobra.Command{
	Use:   "play <ringtone-path>",
	Short: "Play a ringtone once (used by scheduled tasks)",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		level, console := "warn", io.Discard
		if playVerbose {
			level, console = "debug", io.Writer(os.Stderr)
		}
		initLogging(cfg.PlaybackLogFile, level, console)

		var path string
		if len(args) == 1 {
			path = args[0]
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		err := play(ctx, path)
		stop()
		logger.Sync()
		os.Exit(playback.ExitCode(err))
	},
}

func init() {
	playCmd.Flags().BoolVarP(&playVerbose, "verbose", "v", false, "log every playback attempt to the console")
	rootCmd.AddCommand(playCmd)
}

func play(ctx context.Context, path string) error {
	var history playback.HistoryRecorder
	if historyDB, err := db.OpenSQLite(ctx, cfg.HistoryDB); err != nil {
		logger.Warn("Playback history unavailable", logger.ErrorField(err))
	} else {
		defer historyDB.Close()
		history = repository.NewSQLiteHistoryRepository(historyDB)
	}

	backends := playback.DefaultBackends(cfg.FFmpegPath, command.NewExecRunner(), cfg.PlayerTimeout)
	inv := playback.NewInvoker(cfg, backends, history)

	if _, err := inv.Play(ctx, path); err != nil {
		logger.Error("Ringtone playback failed", logger.String("path", path), logger.ErrorField(err))
		return err
	}
	return nil
}
