package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ringtoned/cache"
	"ringtoned/config"
	"ringtoned/core/audio"
	"ringtoned/core/command"
	"ringtoned/core/library"
	"ringtoned/core/scheduler"
	"ringtoned/db"
	"ringtoned/logger"
	"ringtoned/repository"
	"ringtoned/server"
	"ringtoned/storage"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the ringtone creator HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		initLogging(cfg.LogFile, cfg.LogLevel, os.Stdout)
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServer(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServer(ctx context.Context) error {
	if err := server.EnsureDirs(cfg); err != nil {
		return err
	}

	runner := command.NewExecRunner()
	processor := audio.NewFFmpegProcessor(cfg.FFmpegPath, runner)
	if !processor.Available(ctx) {
		logger.Warn("FFmpeg not available, MP3 conversion disabled", logger.String("ffmpeg", cfg.FFmpegPath))
	}

	metaCache := cache.NewMetadataCache(cfg.MetadataCacheSize, cfg.MetadataCacheTTL)
	ringtones := repository.NewFileRingtoneRepository(cfg, processor, metaCache)
	if cfg.MirrorEnabled() {
		mirror, err := storage.NewMirror(ctx, cfg)
		if err != nil {
			logger.Warn("Object storage mirror disabled", logger.ErrorField(err))
		} else {
			ringtones.SetMirror(mirror)
			logger.Info("Mirroring ringtones to object storage",
				logger.String("endpoint", cfg.MinioEndpoint), logger.String("bucket", cfg.MinioBucket))
		}
	}

	schedules, closeSchedules, err := openScheduleStore(ctx)
	if err != nil {
		return err
	}
	defer closeSchedules()

	var history repository.HistoryRepository
	historyDB, err := db.OpenSQLite(ctx, cfg.HistoryDB)
	if err != nil {
		logger.Warn("Playback history disabled", logger.String("path", cfg.HistoryDB), logger.ErrorField(err))
	} else {
		defer historyDB.Close()
		history = repository.NewSQLiteHistoryRepository(historyDB)
	}

	registrar := scheduler.NewRegistrar(cfg, runner)
	if !registrar.Available() {
		logger.Warn("Task scheduler not available, scheduling endpoints will answer 503",
			logger.String("schtasks", cfg.SchtasksPath))
	}

	hub := library.NewHub()
	go hub.Run()
	defer hub.Stop()

	watcher, err := library.NewWatcher(map[string]string{
		config.WavFolder: cfg.WavDir,
		config.MP3Folder: cfg.MP3Dir,
	}, ringtones, hub)
	if err != nil {
		logger.Warn("Library watcher disabled", logger.ErrorField(err))
	} else {
		go watcher.Run(ctx)
	}

	handler := server.NewRouter(server.Deps{
		Config:    cfg,
		Ringtones: ringtones,
		Schedules: schedules,
		History:   history,
		Tasks:     registrar,
		Processor: processor,
		Hub:       hub,
	})
	return server.Start(ctx, cfg, handler)
}

// openScheduleStore returns the configured schedule store and a close func.
func openScheduleStore(ctx context.Context) (repository.ScheduleRepository, func(), error) {
	switch cfg.ScheduleStore {
	case "redis":
		client, err := cache.ConnectRedis(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Schedules stored in Redis", logger.String("addr", cfg.RedisHost+":"+cfg.RedisPort))
		return repository.NewRedisScheduleRepository(client), func() { client.Close() }, nil
	case "file", "":
		return repository.NewFileScheduleRepository(cfg.SchedulesFile), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown SCHEDULE_STORE %q (want file or redis)", cfg.ScheduleStore)
	}
}
