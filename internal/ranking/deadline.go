package ranking

import (
	"time"

	"github.com/chepyr/go-task-planner/shared/models"
)

const dueSoonHours = 24.0

// IsOverdue reports a deadline strictly before now. Malformed deadlines are never overdue.
func IsOverdue(task models.Task, now time.Time) bool {
	deadline, ok := ParseTimestamp(task.Deadline)
	return ok && deadline.Before(now)
}

// IsDueSoon reports a deadline in the next 24 hours.
func IsDueSoon(task models.Task, now time.Time) bool {
	deadline, ok := ParseTimestamp(task.Deadline)
	if !ok {
		return false
	}
	hours := deadline.Sub(now).Hours()
	return hours > 0 && hours <= dueSoonHours
}
