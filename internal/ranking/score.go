package ranking

import (
	"strings"
	"time"

	"github.com/chepyr/go-task-planner/shared/models"
)

const (
	// horizonHours caps both the deadline distance and the schedule age at one week.
	horizonHours = 168.0

	priorityWeight = 0.4
	deadlineWeight = 0.4
	dateTimeWeight = 0.2

	// ageScale stretches the normalized age term to 0..10 before weighting.
	ageScale = 10.0
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the ISO-8601 forms clients send for dateTime and
// deadline. Values without a zone are read as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// timestampOr returns the parsed timestamp, or fallback when s is malformed.
func timestampOr(s string, fallback time.Time) time.Time {
	if t, ok := ParseTimestamp(s); ok {
		return t
	}
	return fallback
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SmartScore is the composite urgency of an active task relative to now.
// Lower scores are shown first. A malformed deadline or dateTime is read as
// now: the deadline term becomes 0 and the age term becomes its maximum 2.0.
func SmartScore(task models.Task, now time.Time) float64 {
	priorityScore := float64(task.Priority.Rank()) * priorityWeight

	deadline := timestampOr(task.Deadline, now)
	hoursRemaining := clamp(deadline.Sub(now).Hours(), 0, horizonHours)
	deadlineScore := hoursRemaining * deadlineWeight

	scheduled := timestampOr(task.DateTime, now)
	hoursSinceScheduled := clamp(now.Sub(scheduled).Hours(), 0, horizonHours)
	dateTimeScore := ((horizonHours - hoursSinceScheduled) / horizonHours) * ageScale * dateTimeWeight

	return priorityScore + deadlineScore + dateTimeScore
}
