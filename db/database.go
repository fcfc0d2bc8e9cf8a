package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"ringtoned/logger"
)

// OpenSQLite opens (creating if needed) the SQLite database at path and
// brings its schema up to date.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory for %s: %w", path, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	// One writer at a time; the playback process and the server share the file.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			logger.Warn("Failed to apply SQLite pragma",
				logger.String("path", path), logger.String("pragma", pragma), logger.ErrorField(err))
		}
	}

	if err := InitDB(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	logger.Debug("SQLite database ready", logger.String("path", path))
	return db, nil
}

// InitDB creates the tables if they don't exist.
func InitDB(ctx context.Context, db *sql.DB) error {
	if err := createPlaybackHistoryTable(ctx, db); err != nil {
		return err
	}
	return nil
}

func createPlaybackHistoryTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS playback_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ringtone_path TEXT NOT NULL,
		method TEXT NOT NULL DEFAULT '',
		success INTEGER NOT NULL,
		error TEXT,
		started_at TEXT NOT NULL,
		took_ms INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_playback_history_started_at ON playback_history(started_at);
	`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create playback_history table: %w", err)
	}
	return nil
}
