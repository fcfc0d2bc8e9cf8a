package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("DATA_DIR", "/srv/rt")

	cfg := FromEnv()

	if cfg.ServerAddr != ":5000" {
		t.Fatalf("ServerAddr = %q, want :5000", cfg.ServerAddr)
	}
	if want := filepath.Join("/srv/rt", "ringtones", WavFolder); cfg.WavDir != want {
		t.Fatalf("WavDir = %q, want %q", cfg.WavDir, want)
	}
	if want := filepath.Join("/srv/rt", "ringtones", MP3Folder); cfg.MP3Dir != want {
		t.Fatalf("MP3Dir = %q, want %q", cfg.MP3Dir, want)
	}
	if want := filepath.Join("/srv/rt", "original_sound"); cfg.UploadDir != want {
		t.Fatalf("UploadDir = %q, want %q", cfg.UploadDir, want)
	}
	if cfg.MaxCommandLength != 261 {
		t.Fatalf("MaxCommandLength = %d, want 261", cfg.MaxCommandLength)
	}
	if cfg.LockStaleAfter != 30*time.Second {
		t.Fatalf("LockStaleAfter = %v, want 30s", cfg.LockStaleAfter)
	}
	if cfg.TestPlaybackTimeout != 10*time.Second {
		t.Fatalf("TestPlaybackTimeout = %v, want 10s", cfg.TestPlaybackTimeout)
	}
	if cfg.MP3Bitrate != "128k" {
		t.Fatalf("MP3Bitrate = %q, want 128k", cfg.MP3Bitrate)
	}
	if cfg.MirrorEnabled() {
		t.Fatal("mirror should be disabled without MINIO_ENDPOINT")
	}
}

func TestFromEnvPathsAreAbsolute(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("DATA_DIR", "data")

	cfg := FromEnv()

	if want := filepath.Join(wd, "data"); cfg.DataDir != want {
		t.Fatalf("DataDir = %q, want %q", cfg.DataDir, want)
	}
	for name, p := range map[string]string{
		"ScriptsDir": cfg.ScriptsDir,
		"LockFile":   cfg.LockFile,
		"HistoryDB":  cfg.HistoryDB,
		"WavDir":     cfg.WavDir,
		"LogFile":    cfg.LogFile,
	} {
		if !filepath.IsAbs(p) {
			t.Errorf("%s = %q, want an absolute path", name, p)
		}
	}
}

func TestFromEnvDefaultDataDirIsExecutableDir(t *testing.T) {
	exe, err := os.Executable()
	if err != nil {
		t.Skip("executable path unavailable")
	}
	t.Setenv("DATA_DIR", "")
	os.Unsetenv("DATA_DIR")

	cfg := FromEnv()

	if want := filepath.Dir(exe); cfg.DataDir != want {
		t.Fatalf("DataDir = %q, want %q", cfg.DataDir, want)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("SCHEDULER_TIMEOUT", "45")
	t.Setenv("LOCK_STALE_AFTER", "1m")
	t.Setenv("MAX_UPLOAD_MB", "8")
	t.Setenv("CORS_ORIGINS", "http://a:1, ,http://b:2")
	t.Setenv("SCHEDULE_STORE", "Redis")
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg := FromEnv()

	if cfg.SchedulerTimeout != 45*time.Second {
		t.Fatalf("SchedulerTimeout = %v, want 45s", cfg.SchedulerTimeout)
	}
	if cfg.LockStaleAfter != time.Minute {
		t.Fatalf("LockStaleAfter = %v, want 1m", cfg.LockStaleAfter)
	}
	if cfg.MaxUploadBytes != 8<<20 {
		t.Fatalf("MaxUploadBytes = %d, want %d", cfg.MaxUploadBytes, 8<<20)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b:2" {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.ScheduleStore != "redis" {
		t.Fatalf("ScheduleStore = %q, want redis", cfg.ScheduleStore)
	}
	if !cfg.MirrorEnabled() || !cfg.MinioUseSSL {
		t.Fatal("mirror with SSL should be enabled")
	}
}

func TestFolderDir(t *testing.T) {
	cfg := FromEnv()

	if dir, ok := cfg.FolderDir(WavFolder); !ok || dir != cfg.WavDir {
		t.Fatalf("FolderDir(wav) = %q, %v", dir, ok)
	}
	if dir, ok := cfg.FolderDir(MP3Folder); !ok || dir != cfg.MP3Dir {
		t.Fatalf("FolderDir(mp3) = %q, %v", dir, ok)
	}
	if _, ok := cfg.FolderDir("../etc"); ok {
		t.Fatal("unknown folder must be rejected")
	}
}
