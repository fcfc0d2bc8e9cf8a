package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ringtoned/db"
	"ringtoned/model"
)

func TestHistoryRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	sqlDB, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenSQLite error: %v", err)
	}
	defer sqlDB.Close()
	repo := NewSQLiteHistoryRepository(sqlDB)

	base := time.Date(2026, 10, 18, 7, 0, 0, 0, time.UTC)
	recs := []model.PlaybackRecord{
		{RingtonePath: "/r/a.wav", Method: "native", Success: true, StartedAt: base, TookMS: 1200},
		{RingtonePath: "/r/b.mp3", Success: false, Error: "all playback methods failed", StartedAt: base.Add(time.Minute)},
		{RingtonePath: "/r/c.wav", Method: "mixer", Success: true, StartedAt: base.Add(2 * time.Minute)},
	}
	for _, rec := range recs {
		if err := repo.Record(ctx, rec); err != nil {
			t.Fatalf("Record error: %v", err)
		}
	}

	got, err := repo.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent returned %d rows, want 2", len(got))
	}
	if got[0].RingtonePath != "/r/c.wav" || got[1].RingtonePath != "/r/b.mp3" {
		t.Fatalf("order = %s, %s", got[0].RingtonePath, got[1].RingtonePath)
	}
	if got[1].Success || got[1].Error == "" || got[1].Method != "" {
		t.Fatalf("failure row = %+v", got[1])
	}
	if !got[0].StartedAt.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("StartedAt = %v", got[0].StartedAt)
	}
}
