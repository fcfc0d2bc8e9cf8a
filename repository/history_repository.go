package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ringtoned/model"
)

// historyTimeLayout has fixed width so started_at sorts as text.
const historyTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// HistoryRepository records playback attempts.
type HistoryRepository interface {
	Record(ctx context.Context, rec model.PlaybackRecord) error
	Recent(ctx context.Context, limit int) ([]model.PlaybackRecord, error)
}

// SQLiteHistoryRepository implements HistoryRepository on the playback_history table.
type SQLiteHistoryRepository struct {
	DB *sql.DB
}

// NewSQLiteHistoryRepository creates a repository on an open database.
func NewSQLiteHistoryRepository(db *sql.DB) *SQLiteHistoryRepository {
	return &SQLiteHistoryRepository{DB: db}
}

// Record appends one playback attempt.
func (r *SQLiteHistoryRepository) Record(ctx context.Context, rec model.PlaybackRecord) error {
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now()
	}
	var errText sql.NullString
	if rec.Error != "" {
		errText = sql.NullString{String: rec.Error, Valid: true}
	}

	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO playback_history (ringtone_path, method, success, error, started_at, took_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.RingtonePath, rec.Method, rec.Success, errText, rec.StartedAt.UTC().Format(historyTimeLayout), rec.TookMS,
	)
	if err != nil {
		return fmt.Errorf("failed to insert playback history: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (r *SQLiteHistoryRepository) Recent(ctx context.Context, limit int) ([]model.PlaybackRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, ringtone_path, method, success, error, started_at, took_ms
		 FROM playback_history ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query playback history: %w", err)
	}
	defer rows.Close()

	recs := []model.PlaybackRecord{}
	for rows.Next() {
		var (
			rec       model.PlaybackRecord
			errText   sql.NullString
			startedAt string
		)
		if err := rows.Scan(&rec.ID, &rec.RingtonePath, &rec.Method, &rec.Success, &errText, &startedAt, &rec.TookMS); err != nil {
			return nil, fmt.Errorf("failed to scan playback history: %w", err)
		}
		rec.Error = errText.String
		if t, err := time.Parse(historyTimeLayout, startedAt); err == nil {
			rec.StartedAt = t
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate playback history: %w", err)
	}
	return recs, nil
}
