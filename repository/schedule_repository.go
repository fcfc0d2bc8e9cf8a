package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"ringtoned/logger"
	"ringtoned/model"
)

// ScheduleRepository persists client-owned schedule records.
type ScheduleRepository interface {
	List(ctx context.Context) ([]model.ScheduleRecord, error)
	// Save inserts or replaces a record by id and returns the id, generating
	// one when the record has none.
	Save(ctx context.Context, rec model.ScheduleRecord) (string, error)
	Delete(ctx context.Context, id string) error
}

func ensureID(rec model.ScheduleRecord) string {
	id := rec.ID()
	if id == "" {
		id = uuid.NewString()
		rec["id"] = id
	}
	return id
}

// FileScheduleRepository keeps all records in one JSON array. Writes are
// serialised inside the process; across processes the last writer wins.
type FileScheduleRepository struct {
	path string
	mu   sync.Mutex
}

// NewFileScheduleRepository creates a repository backed by path.
func NewFileScheduleRepository(path string) *FileScheduleRepository {
	return &FileScheduleRepository{path: path}
}

func (r *FileScheduleRepository) load() ([]model.ScheduleRecord, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.ScheduleRecord{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", r.path, err)
	}
	var recs []model.ScheduleRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		logger.Warn("Schedules file is corrupt, starting empty", logger.String("path", r.path), logger.ErrorField(err))
		return []model.ScheduleRecord{}, nil
	}
	if recs == nil {
		recs = []model.ScheduleRecord{}
	}
	return recs, nil
}

func (r *FileScheduleRepository) store(recs []model.ScheduleRecord) error {
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode schedules: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", r.path, err)
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", r.path, err)
	}
	return nil
}

func (r *FileScheduleRepository) List(ctx context.Context) ([]model.ScheduleRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

func (r *FileScheduleRepository) Save(ctx context.Context, rec model.ScheduleRecord) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	recs, err := r.load()
	if err != nil {
		return "", err
	}
	id := ensureID(rec)

	replaced := false
	for i, existing := range recs {
		if existing.ID() == id {
			recs[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		recs = append(recs, rec)
	}
	if err := r.store(recs); err != nil {
		return "", err
	}
	logger.Info("Schedule saved", logger.String("id", id), logger.Bool("updated", replaced))
	return id, nil
}

func (r *FileScheduleRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	recs, err := r.load()
	if err != nil {
		return err
	}
	kept := recs[:0]
	for _, rec := range recs {
		if rec.ID() != id {
			kept = append(kept, rec)
		}
	}
	if len(kept) == len(recs) {
		return fmt.Errorf("%w: schedule %s", ErrNotFound, id)
	}
	if err := r.store(kept); err != nil {
		return err
	}
	logger.Info("Schedule deleted", logger.String("id", id))
	return nil
}

// schedulesKey is the Redis hash holding id -> JSON record.
const schedulesKey = "ringtone:schedules"

// RedisScheduleRepository shares schedule records between machines through
// a Redis hash.
type RedisScheduleRepository struct {
	client *redis.Client
}

// NewRedisScheduleRepository wraps an already connected client.
func NewRedisScheduleRepository(client *redis.Client) *RedisScheduleRepository {
	return &RedisScheduleRepository{client: client}
}

func (r *RedisScheduleRepository) List(ctx context.Context) ([]model.ScheduleRecord, error) {
	all, err := r.client.HGetAll(ctx, schedulesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read schedules from Redis: %w", err)
	}

	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	recs := make([]model.ScheduleRecord, 0, len(ids))
	for _, id := range ids {
		var rec model.ScheduleRecord
		if err := json.Unmarshal([]byte(all[id]), &rec); err != nil {
			logger.Warn("Skipping unreadable schedule", logger.String("id", id), logger.ErrorField(err))
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (r *RedisScheduleRepository) Save(ctx context.Context, rec model.ScheduleRecord) (string, error) {
	id := ensureID(rec)
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("failed to encode schedule %s: %w", id, err)
	}
	if err := r.client.HSet(ctx, schedulesKey, id, data).Err(); err != nil {
		return "", fmt.Errorf("failed to save schedule %s to Redis: %w", id, err)
	}
	return id, nil
}

func (r *RedisScheduleRepository) Delete(ctx context.Context, id string) error {
	n, err := r.client.HDel(ctx, schedulesKey, id).Result()
	if err != nil {
		return fmt.Errorf("failed to delete schedule %s from Redis: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: schedule %s", ErrNotFound, id)
	}
	return nil
}
