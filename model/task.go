package model

import "time"

// Task states reported by the OS scheduler.
const (
	TaskStatusReady    = "Ready"
	TaskStatusDisabled = "Disabled"
	TaskStatusRunning  = "Running"
	TaskStatusUnknown  = "Unknown"
)

// TaskInfo is one ringtone task known to the OS scheduler.
type TaskInfo struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Status   string `json:"status"`
}

// CreateTaskRequest is the body of POST /api/task-scheduler/create.
type CreateTaskRequest struct {
	TaskName     string `json:"task_name"`
	RingtonePath string `json:"ringtone_path"`
	Time         string `json:"time"` // HH:MM, 24h
	Days         []int  `json:"days"` // 0=Sunday .. 6=Saturday
}

// PlaybackRecord is one run of the playback invoker.
type PlaybackRecord struct {
	ID           int64     `json:"id"`
	RingtonePath string    `json:"ringtone_path"`
	Method       string    `json:"method"`
	Success      bool      `json:"success"`
	Error        string    `json:"error,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	TookMS       int64     `json:"took_ms"`
}
