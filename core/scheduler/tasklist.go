package scheduler

import (
	"encoding/csv"
	"io"
	"strings"

	"ringtoned/model"
)

// parseTaskList extracts the ringtone tasks from `schtasks /query /fo csv /v`
// output. The verbose CSV repeats its header once per task folder and names
// tasks with their folder path (e.g. "\Ringtone_wakeup").
func parseTaskList(out, prefix string) []model.TaskInfo {
	r := csv.NewReader(strings.NewReader(out))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	nameCol := 0
	tasks := []model.TaskInfo{}
	seen := map[string]bool{}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if col := indexOf(rec, "TaskName"); col >= 0 {
			nameCol = col
			continue
		}
		if nameCol >= len(rec) {
			continue
		}

		full := strings.TrimLeft(strings.TrimSpace(rec[nameCol]), `\`)
		if !strings.HasPrefix(full, prefix) || seen[full] {
			continue
		}
		seen[full] = true
		tasks = append(tasks, model.TaskInfo{
			Name:     strings.TrimPrefix(full, prefix),
			FullName: full,
			Status:   model.TaskStatusUnknown,
		})
	}
	return tasks
}

// parseTaskStatus reads the Status column of a single-task query, falling
// back to a substring match when the header is missing.
func parseTaskStatus(out string) string {
	r := csv.NewReader(strings.NewReader(out))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil || len(records) < 2 {
		return model.TaskStatusUnknown
	}

	header, row := records[0], records[1]
	if col := indexOf(header, "Status"); col >= 0 && col < len(row) {
		if s := knownStatus(row[col]); s != "" {
			return s
		}
	}
	if s := knownStatus(strings.Join(row, ",")); s != "" {
		return s
	}
	return model.TaskStatusUnknown
}

func knownStatus(s string) string {
	for _, st := range []string{model.TaskStatusReady, model.TaskStatusDisabled, model.TaskStatusRunning} {
		if strings.Contains(s, st) {
			return st
		}
	}
	return ""
}

func indexOf(rec []string, field string) int {
	for i, v := range rec {
		if strings.TrimSpace(v) == field {
			return i
		}
	}
	return -1
}
