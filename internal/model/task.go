package model

import (
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// ParsePriority maps a case-insensitive name to a Priority.
// Unknown names fall back to PriorityMedium.
func ParsePriority(s string) Priority {
	switch strings.ToLower(s) {
	case "low":
		return PriorityLow
	case "high":
		return PriorityHigh
	case "critical":
		return PriorityCritical
	default:
		return PriorityMedium
	}
}

type Task struct {
	ID          int       `json:"id"`
	ChatID      int64     `json:"chat_id"`
	Description string    `json:"description"`
	DueAt       time.Time `json:"due_at"`
	Priority    Priority  `json:"priority"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
}

// RecordVersion is the current schema version of a persisted TaskRecord.
const RecordVersion = 1

// TaskRecord is the durable per-user record: the full task collection plus
// the monotonic id counter. Ids are never reused, even after deletion.
type TaskRecord struct {
	Version int    `json:"version"`
	NextID  int    `json:"next_id"`
	Tasks   []Task `json:"tasks"`
}

// NewTaskRecord returns an empty record for a user with no stored tasks.
func NewTaskRecord() TaskRecord {
	return TaskRecord{Version: RecordVersion, NextID: 1}
}

// Find returns the task with the given id and whether it exists.
func (r TaskRecord) Find(taskID int) (Task, bool) {
	for _, t := range r.Tasks {
		if t.ID == taskID {
			return t, true
		}
	}
	return Task{}, false
}
