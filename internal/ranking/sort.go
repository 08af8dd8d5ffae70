package ranking

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/chepyr/go-task-planner/shared/models"
)

type SortMode string

const (
	SortSmart    SortMode = "smart"
	SortDeadline SortMode = "deadline"
	SortPriority SortMode = "priority"
	SortAdded    SortMode = "added"
)

// ParseSortMode reads a mode name in any case. An empty string selects smart.
func ParseSortMode(s string) (SortMode, bool) {
	switch mode := SortMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case "":
		return SortSmart, true
	case SortSmart, SortDeadline, SortPriority, SortAdded:
		return mode, true
	default:
		return "", false
	}
}

// SortTasks orders tasks by mode using the current wall clock.
func SortTasks(tasks []models.Task, mode SortMode) []models.Task {
	return SortTasksAt(tasks, mode, time.Now())
}

// SortTasksAt orders a copy of tasks by mode. now is the single reference
// time for every score computed during the call, which keeps the comparator
// transitive. The sort is stable in all modes and the input is not modified.
// Unknown modes fall back to smart.
func SortTasksAt(tasks []models.Task, mode SortMode, now time.Time) []models.Task {
	switch mode {
	case SortDeadline:
		return sortByKey(tasks, func(t models.Task) time.Time {
			return timestampOr(t.Deadline, now)
		}, time.Time.Compare)
	case SortPriority:
		return sortByKey(tasks, func(t models.Task) int {
			return t.Priority.Rank()
		}, cmp.Compare[int])
	case SortAdded:
		return sortByKey(tasks, func(t models.Task) time.Time {
			return t.CreatedAt
		}, newestFirst)
	default:
		return sortSmart(tasks, now)
	}
}

// newestFirst compares time.Time values directly; UnixNano is only defined
// between the years 1678 and 2262.
func newestFirst(a, b time.Time) int {
	return b.Compare(a)
}

type keyed[K any] struct {
	task models.Task
	key  K
}

// sortByKey computes each key once and sorts ascending by compare.
func sortByKey[K any](tasks []models.Task, key func(models.Task) K, compare func(a, b K) int) []models.Task {
	items := make([]keyed[K], len(tasks))
	for i, t := range tasks {
		items[i] = keyed[K]{task: t, key: key(t)}
	}
	slices.SortStableFunc(items, func(a, b keyed[K]) int {
		return compare(a.key, b.key)
	})
	return unwrap(items, func(k keyed[K]) models.Task { return k.task })
}

type smartItem struct {
	task      models.Task
	completed bool
	score     float64
	updated   time.Time
}

func sortSmart(tasks []models.Task, now time.Time) []models.Task {
	items := make([]smartItem, len(tasks))
	for i, t := range tasks {
		item := smartItem{task: t, completed: t.Status.IsCompleted()}
		if item.completed {
			item.updated = t.UpdatedAt
		} else {
			item.score = SmartScore(t, now)
		}
		items[i] = item
	}
	slices.SortStableFunc(items, func(a, b smartItem) int {
		switch {
		case a.completed != b.completed:
			if a.completed {
				return 1
			}
			return -1
		case a.completed:
			return newestFirst(a.updated, b.updated)
		default:
			return cmp.Compare(a.score, b.score)
		}
	})
	return unwrap(items, func(s smartItem) models.Task { return s.task })
}

func unwrap[T any](items []T, get func(T) models.Task) []models.Task {
	out := make([]models.Task, len(items))
	for i, item := range items {
		out[i] = get(item)
	}
	return out
}
