package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ringtoned/model"
)

func TestFileScheduleRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewFileScheduleRepository(filepath.Join(t.TempDir(), "schedules.json"))

	list, err := repo.List(ctx)
	if err != nil || len(list) != 0 {
		t.Fatalf("empty List = %v, %v", list, err)
	}

	id, err := repo.Save(ctx, model.ScheduleRecord{"name": "wake", "time": "07:00"})
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if id == "" {
		t.Fatal("Save should generate an id")
	}
	if _, err := repo.Save(ctx, model.ScheduleRecord{"id": "fixed", "name": "lunch"}); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Save(ctx, model.ScheduleRecord{"id": id, "name": "wake", "time": "06:30"}); err != nil {
		t.Fatal(err)
	}

	list, err = repo.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("List = %v, want 2 records", list)
	}
	if list[0].ID() != id || list[0]["time"] != "06:30" {
		t.Fatalf("record was not replaced in place: %v", list[0])
	}

	if err := repo.Delete(ctx, "fixed"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := repo.Delete(ctx, "fixed"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete err = %v, want ErrNotFound", err)
	}
	list, _ = repo.List(ctx)
	if len(list) != 1 || list[0].ID() != id {
		t.Fatalf("after delete List = %v", list)
	}
}

func TestFileScheduleRepositoryNumericID(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "schedules.json")
	repo := NewFileScheduleRepository(path)

	id, err := repo.Save(ctx, model.ScheduleRecord{"id": float64(1760770800123), "name": "wake"})
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if id != "1760770800123" {
		t.Fatalf("id = %q, want the client's numeric id", id)
	}

	list, err := NewFileScheduleRepository(path).List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %v, %v", list, err)
	}
	if list[0]["id"] != float64(1760770800123) {
		t.Fatalf("stored id = %#v, want it kept as a number", list[0]["id"])
	}
	if err := repo.Delete(ctx, "1760770800123"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
}

func TestFileScheduleRepositoryCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedules.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	repo := NewFileScheduleRepository(path)

	list, err := repo.List(context.Background())
	if err != nil || len(list) != 0 {
		t.Fatalf("List = %v, %v", list, err)
	}
	if _, err := repo.Save(context.Background(), model.ScheduleRecord{"id": "a"}); err != nil {
		t.Fatalf("Save over corrupt file: %v", err)
	}
}
