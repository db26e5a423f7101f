package model

import "time"

// TaskType identifies one of the named background tasks.
type TaskType string

const (
	TaskVideoSync     TaskType = "VIDEO_SYNC"
	TaskChannelHourly TaskType = "CHANNEL_HOURLY"
	TaskChannelDaily  TaskType = "CHANNEL_DAILY"
)

// ValidTaskType reports whether t names a known task.
func ValidTaskType(t TaskType) bool {
	switch t {
	case TaskVideoSync, TaskChannelHourly, TaskChannelDaily:
		return true
	}
	return false
}

// TaskLog is one row per task execution attempt. Success is nil while the
// run is in flight; the row is never mutated after FinishedAt is set.
type TaskLog struct {
	ID         string     `json:"id"`
	TaskType   TaskType   `json:"taskType"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Success    *bool      `json:"success,omitempty"`
	Message    string     `json:"message,omitempty"`
	DurationMs int64      `json:"durationMs"`
}

// TaskRunResponse is the API response for a manual task trigger.
type TaskRunResponse struct {
	Success  bool     `json:"success"`
	TaskType TaskType `json:"taskType"`
	Message  string   `json:"message,omitempty"`
	Log      *TaskLog `json:"log,omitempty"`
}
