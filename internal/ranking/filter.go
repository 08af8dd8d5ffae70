// Package ranking narrows and orders a user's task snapshot: equality
// filters on status, priority and category, the four sort modes including
// the weighted smart score, and page slicing. Every function is pure and
// safe to call concurrently on shared input.
package ranking

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chepyr/go-task-planner/shared/models"
)

// All disables a criterion.
const All = "all"

const (
	AnyStatus   = models.TaskStatus(All)
	AnyPriority = models.Priority(All)
	AnyCategory = All
)

var (
	ErrInvalidStatus   = errors.New("invalid status filter")
	ErrInvalidPriority = errors.New("invalid priority filter")
)

// Criteria selects tasks by exact equality on each active field.
// An empty field behaves like "all".
type Criteria struct {
	Status   models.TaskStatus
	Priority models.Priority
	Category string
}

func DefaultCriteria() Criteria {
	return Criteria{Status: AnyStatus, Priority: AnyPriority, Category: AnyCategory}
}

// ParseCriteria builds criteria from free-form input. Status and priority
// are case-insensitive; category is compared verbatim.
func ParseCriteria(status, priority, category string) (Criteria, error) {
	c := DefaultCriteria()

	if s := strings.ToLower(strings.TrimSpace(status)); s != "" && s != All {
		parsed, ok := models.ParseTaskStatus(s)
		if !ok {
			return Criteria{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
		}
		c.Status = parsed
	}
	if p := strings.ToLower(strings.TrimSpace(priority)); p != "" && p != All {
		parsed, ok := models.ParsePriority(p)
		if !ok {
			return Criteria{}, fmt.Errorf("%w: %q", ErrInvalidPriority, priority)
		}
		c.Priority = parsed
	}
	if category != "" {
		c.Category = category
	}
	return c, nil
}

// Match reports whether task passes every active criterion.
func (c Criteria) Match(task models.Task) bool {
	if c.Status != "" && c.Status != AnyStatus && task.Status != c.Status {
		return false
	}
	if c.Priority != "" && c.Priority != AnyPriority && task.Priority != c.Priority {
		return false
	}
	if c.Category != "" && c.Category != AnyCategory && task.Category != c.Category {
		return false
	}
	return true
}

// FilterTasks returns, in input order, the tasks matching c.
// The result is always a new slice.
func FilterTasks(tasks []models.Task, c Criteria) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if c.Match(t) {
			out = append(out, t)
		}
	}
	return out
}
