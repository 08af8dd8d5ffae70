package handlers

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/chepyr/go-task-planner/internal/ranking"
	"github.com/chepyr/go-task-planner/shared/models"
)

// taskInput is the body of POST /tasks and PUT/PATCH /tasks/{id}.
// Nil fields are left untouched on update.
type taskInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	DateTime    *string `json:"dateTime"`
	Deadline    *string `json:"deadline"`
	Priority    *string `json:"priority"`
	Category    *string `json:"category"`
	Status      *string `json:"status"`
}

type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func invalid(format string, args ...any) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

func (in taskInput) requireCreateFields() error {
	switch {
	case in.Title == nil:
		return invalid("title is required")
	case in.DateTime == nil:
		return invalid("dateTime is required")
	case in.Deadline == nil:
		return invalid("deadline is required")
	case in.Priority == nil:
		return invalid("priority is required")
	}
	return nil
}

// apply merges the input into task and checks the merged result.
func (in taskInput) apply(task *models.Task) error {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return invalid("title cannot be empty")
		}
		if utf8.RuneCountInString(title) > models.MaxTitleLength {
			return invalid("title too long (max %d chars)", models.MaxTitleLength)
		}
		task.Title = title
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		if utf8.RuneCountInString(desc) > models.MaxDescriptionLength {
			return invalid("description too long (max %d chars)", models.MaxDescriptionLength)
		}
		task.Description = desc
	}
	if in.Category != nil {
		category := strings.TrimSpace(*in.Category)
		if utf8.RuneCountInString(category) > models.MaxCategoryLength {
			return invalid("category too long (max %d chars)", models.MaxCategoryLength)
		}
		if strings.EqualFold(category, ranking.All) {
			return invalid("category %q is reserved", category)
		}
		task.Category = category
	}
	if in.Priority != nil {
		priority, ok := models.ParsePriority(*in.Priority)
		if !ok {
			return invalid("priority must be one of low, medium, high")
		}
		task.Priority = priority
	}
	if in.Status != nil {
		status, ok := models.ParseTaskStatus(*in.Status)
		if !ok {
			return invalid("status must be pending or completed")
		}
		task.Status = status
	}
	if in.DateTime != nil {
		ts, err := normalizeTimestamp("dateTime", *in.DateTime)
		if err != nil {
			return err
		}
		task.DateTime = ts
	}
	if in.Deadline != nil {
		ts, err := normalizeTimestamp("deadline", *in.Deadline)
		if err != nil {
			return err
		}
		task.Deadline = ts
	}

	// only checked when the client touched one of the two fields, so legacy
	// rows with bad timestamps can still be edited otherwise
	if in.DateTime != nil || in.Deadline != nil {
		scheduled, okS := ranking.ParseTimestamp(task.DateTime)
		deadline, okD := ranking.ParseTimestamp(task.Deadline)
		if !okS || !okD {
			return invalid("dateTime and deadline must be ISO-8601 timestamps")
		}
		if !deadline.After(scheduled) {
			return invalid("deadline must be after dateTime")
		}
	}
	return nil
}

func normalizeTimestamp(field, value string) (string, error) {
	t, ok := ranking.ParseTimestamp(value)
	if !ok {
		return "", invalid("%s must be an ISO-8601 timestamp", field)
	}
	return t.UTC().Format(time.RFC3339Nano), nil
}
