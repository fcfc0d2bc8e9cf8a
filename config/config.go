package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Folder names under the ringtones directory. They double as the {folder}
// segment of the ringtone download/delete routes.
const (
	WavFolder = "wav_ringtones"
	MP3Folder = "mp3_ringtones"
)

// Config stores the application configuration.
type Config struct {
	ServerAddr string

	DataDir       string
	RingtonesDir  string
	WavDir        string
	MP3Dir        string
	UploadDir     string // original, untrimmed uploads
	SchedulesFile string
	ScriptsDir    string // wrapper scripts for over-long task commands
	LockFile      string
	HistoryDB     string

	FFmpegPath     string
	MP3Bitrate     string // e.g., "128k"
	MaxUploadBytes int64

	LogLevel        string
	LogFile         string
	PlaybackLogFile string

	CORSOrigins      []string
	CORSNetworkPorts []string

	SchtasksPath          string
	TaskPrefix            string
	PlayerExecutable      string
	MaxCommandLength      int
	SchedulerTimeout      time.Duration
	TestPlaybackTimeout   time.Duration
	TestPlaybackPerMinute int
	LockStaleAfter        time.Duration
	PlayerTimeout         time.Duration

	ScheduleStore string // "file" or "redis"
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	MetadataCacheSize int
	MetadataCacheTTL  time.Duration
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("30s") or bare seconds ("30").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultPlayerExecutable() string {
	exe, err := os.Executable()
	if err != nil {
		return "ringtoned"
	}
	return exe
}

// defaultDataDir is the directory holding the binary. Scheduled tasks start
// in the scheduler's own working directory, so nothing may depend on the cwd.
func defaultDataDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// absPath resolves p against the working directory, keeping p on failure.
func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}

// Load loads configuration from environment variables (via .env file) or defaults.
// A .env in the working directory wins over one next to the binary.
func Load() *Config {
	// godotenv.Load() does not override variables that are already set.
	loaded := false
	for _, f := range []string{".env", filepath.Join(defaultDataDir(), ".env")} {
		if err := godotenv.Load(f); err == nil {
			loaded = true
		}
	}
	if !loaded {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only. Every
// derived path is absolute.
func FromEnv() *Config {
	dataDir := absPath(getEnv("DATA_DIR", defaultDataDir()))
	ringtonesDir := filepath.Join(dataDir, "ringtones")

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":5000"),

		DataDir:       dataDir,
		RingtonesDir:  ringtonesDir,
		WavDir:        filepath.Join(ringtonesDir, WavFolder),
		MP3Dir:        filepath.Join(ringtonesDir, MP3Folder),
		UploadDir:     filepath.Join(dataDir, "original_sound"),
		SchedulesFile: filepath.Join(dataDir, "schedules.json"),
		ScriptsDir:    filepath.Join(dataDir, "scripts"),
		LockFile:      filepath.Join(dataDir, "play_ringtone.lock"),
		HistoryDB:     absPath(getEnv("HISTORY_DB", filepath.Join(dataDir, "playback_history.db"))),

		FFmpegPath:     getEnv("FFMPEG_PATH", "ffmpeg"),
		MP3Bitrate:     getEnv("MP3_BITRATE", "128k"),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 32)) << 20,

		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFile:         absPath(getEnv("LOG_FILE", filepath.Join(dataDir, "logs", "ringtoned.log"))),
		PlaybackLogFile: absPath(getEnv("PLAYBACK_LOG_FILE", filepath.Join(dataDir, "logs", "ringtone_playback.log"))),

		CORSOrigins: getEnvList("CORS_ORIGINS", []string{
			"http://localhost:3000", "http://127.0.0.1:3000",
			"http://localhost:3001", "http://127.0.0.1:3001",
			"http://localhost:3002", "http://127.0.0.1:3002",
		}),
		CORSNetworkPorts: getEnvList("CORS_NETWORK_PORTS", []string{"3000", "3001", "3002"}),

		SchtasksPath:          getEnv("SCHTASKS_PATH", "schtasks"),
		TaskPrefix:            getEnv("TASK_PREFIX", "Ringtone_"),
		PlayerExecutable:      getEnv("PLAYER_EXECUTABLE", defaultPlayerExecutable()),
		MaxCommandLength:      getEnvInt("MAX_COMMAND_LENGTH", 261), // Windows task command limit
		SchedulerTimeout:      getEnvDuration("SCHEDULER_TIMEOUT", 30*time.Second),
		TestPlaybackTimeout:   getEnvDuration("TEST_PLAYBACK_TIMEOUT", 10*time.Second),
		TestPlaybackPerMinute: getEnvInt("TEST_PLAYBACK_PER_MINUTE", 12),
		LockStaleAfter:        getEnvDuration("LOCK_STALE_AFTER", 30*time.Second),
		PlayerTimeout:         getEnvDuration("PLAYER_TIMEOUT", 30*time.Second),

		ScheduleStore: strings.ToLower(getEnv("SCHEDULE_STORE", "file")),
		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""), // empty disables the mirror
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "ringtones"),
		MinioRegion:    getEnv("MINIO_REGION", ""),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		MetadataCacheSize: getEnvInt("METADATA_CACHE_SIZE", 512),
		MetadataCacheTTL:  getEnvDuration("METADATA_CACHE_TTL", 10*time.Minute),
	}
}

// FolderDir maps a ringtone folder name to its directory. ok is false for
// anything other than the two known folders.
func (c *Config) FolderDir(folder string) (dir string, ok bool) {
	switch folder {
	case WavFolder:
		return c.WavDir, true
	case MP3Folder:
		return c.MP3Dir, true
	}
	return "", false
}

// Dirs lists the directories the server creates on startup.
func (c *Config) Dirs() []string {
	return []string{c.RingtonesDir, c.WavDir, c.MP3Dir, c.UploadDir, c.ScriptsDir}
}

// MirrorEnabled reports whether ringtones should be mirrored to object storage.
func (c *Config) MirrorEnabled() bool {
	return c.MinioEndpoint != ""
}
