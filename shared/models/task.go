package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
)

// ParseTaskStatus accepts user input in any case. ok is false for anything
// outside the known statuses.
func ParseTaskStatus(s string) (TaskStatus, bool) {
	switch TaskStatus(strings.ToLower(strings.TrimSpace(s))) {
	case TaskStatusPending:
		return TaskStatusPending, true
	case TaskStatusCompleted:
		return TaskStatusCompleted, true
	default:
		return "", false
	}
}

// IsCompleted reports whether the task is done. Unknown statuses count as active.
func (s TaskStatus) IsCompleted() bool {
	return s == TaskStatusCompleted
}

// Toggle flips pending <-> completed.
func (s TaskStatus) Toggle() TaskStatus {
	if s.IsCompleted() {
		return TaskStatusPending
	}
	return TaskStatusCompleted
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func ParsePriority(s string) (Priority, bool) {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityHigh:
		return PriorityHigh, true
	case PriorityMedium:
		return PriorityMedium, true
	case PriorityLow:
		return PriorityLow, true
	default:
		return "", false
	}
}

// Rank orders priorities for display: high=1, medium=2, low=3.
// Values from stale clients fall into the lowest tier.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 3
	}
}

// Task is a single to-do item owned by one user.
// DateTime and Deadline are ISO-8601 strings as submitted by the client;
// CreatedAt and UpdatedAt are set by the repository layer.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DateTime    string     `json:"dateTime"`
	Deadline    string     `json:"deadline"`
	Priority    Priority   `json:"priority"`
	Category    string     `json:"category,omitempty"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
	MaxCategoryLength    = 50
)
