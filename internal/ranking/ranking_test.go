package ranking

import (
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/chepyr/go-task-planner/shared/models"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

var refNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// at formats refNow shifted by h hours the way clients send timestamps.
func at(h float64) string {
	return refNow.Add(time.Duration(h * float64(time.Hour))).Format(time.RFC3339)
}

func task(id int, mutate func(*models.Task)) models.Task {
	t := models.Task{
		ID:        uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprint(id))),
		Title:     fmt.Sprintf("task %d", id),
		DateTime:  at(0),
		Deadline:  at(24),
		Priority:  models.PriorityMedium,
		Status:    models.TaskStatusPending,
		CreatedAt: refNow.Add(-time.Hour),
		UpdatedAt: refNow.Add(-time.Hour),
	}
	if mutate != nil {
		mutate(&t)
	}
	return t
}

func titles(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func TestSmartSort_HighPriorityNearDeadlineFirst(t *testing.T) {
	tasks := []models.Task{
		task(1, func(t *models.Task) { t.Priority = models.PriorityLow; t.Deadline = at(200) }),
		task(2, func(t *models.Task) { t.Priority = models.PriorityHigh; t.Deadline = at(2) }),
	}

	got := titles(SortTasksAt(tasks, SortSmart, refNow))
	want := []string{"task 2", "task 1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("smart order mismatch (-want +got):\n%s", diff)
	}
}

func TestSmartSort_CompletedByMostRecentUpdate(t *testing.T) {
	tasks := []models.Task{
		task(1, func(t *models.Task) { t.Status = models.TaskStatusCompleted; t.UpdatedAt = refNow.Add(-2 * time.Hour) }),
		task(2, func(t *models.Task) { t.Status = models.TaskStatusCompleted; t.UpdatedAt = refNow.Add(-1 * time.Hour) }),
	}

	got := titles(SortTasksAt(tasks, SortSmart, refNow))
	if diff := cmp.Diff([]string{"task 2", "task 1"}, got); diff != "" {
		t.Fatalf("completed order mismatch (-want +got):\n%s", diff)
	}
}

func TestSmartSort_ActiveBeforeCompleted(t *testing.T) {
	tasks := []models.Task{
		// most urgent looking task, but done
		task(1, func(t *models.Task) {
			t.Status = models.TaskStatusCompleted
			t.Priority = models.PriorityHigh
			t.Deadline = at(-10)
		}),
		task(2, func(t *models.Task) { t.Priority = models.PriorityLow; t.Deadline = at(500) }),
		task(3, func(t *models.Task) { t.Status = models.TaskStatusCompleted; t.UpdatedAt = refNow }),
		task(4, func(t *models.Task) { t.Status = "archived" }),
		task(5, nil),
	}

	got := SortTasksAt(tasks, SortSmart, refNow)
	seenCompleted := false
	for _, tk := range got {
		if tk.Status.IsCompleted() {
			seenCompleted = true
			continue
		}
		if seenCompleted {
			t.Fatalf("active task %q placed after a completed one: %v", tk.Title, titles(got))
		}
	}
	if len(got) != len(tasks) {
		t.Fatalf("expected %d tasks, got %d", len(tasks), len(got))
	}
}

func TestSmartScore(t *testing.T) {
	tests := []struct {
		name string
		task models.Task
		want float64
	}{
		{
			name: "high priority, due in 2h, scheduled now",
			task: task(1, func(t *models.Task) { t.Priority = models.PriorityHigh; t.Deadline = at(2) }),
			want: 0.4 + 0.8 + 2.0,
		},
		{
			name: "deadline beyond one week is capped",
			task: task(1, func(t *models.Task) { t.Priority = models.PriorityLow; t.Deadline = at(1000) }),
			want: 1.2 + 168*0.4 + 2.0,
		},
		{
			name: "overdue deadline counts as zero",
			task: task(1, func(t *models.Task) { t.Priority = models.PriorityMedium; t.Deadline = at(-30) }),
			want: 0.8 + 0 + 2.0,
		},
		{
			name: "scheduled 84h ago halves the age term",
			task: task(1, func(t *models.Task) { t.Priority = models.PriorityHigh; t.Deadline = at(0); t.DateTime = at(-84) }),
			want: 0.4 + 0 + 1.0,
		},
		{
			name: "scheduled over a week ago drops the age term",
			task: task(1, func(t *models.Task) { t.Priority = models.PriorityHigh; t.Deadline = at(0); t.DateTime = at(-400) }),
			want: 0.4,
		},
		{
			name: "scheduled in the future keeps the full age term",
			task: task(1, func(t *models.Task) { t.Priority = models.PriorityHigh; t.Deadline = at(0); t.DateTime = at(5) }),
			want: 0.4 + 2.0,
		},
		{
			name: "malformed deadline is read as now",
			task: task(1, func(t *models.Task) { t.Priority = models.PriorityHigh; t.Deadline = "next tuesday" }),
			want: 0.4 + 0 + 2.0,
		},
		{
			name: "malformed dateTime is read as now",
			task: task(1, func(t *models.Task) { t.Priority = models.PriorityHigh; t.Deadline = at(0); t.DateTime = "" }),
			want: 0.4 + 2.0,
		},
		{
			name: "unknown priority ranks as low",
			task: task(1, func(t *models.Task) { t.Priority = "urgent"; t.Deadline = at(0) }),
			want: 1.2 + 2.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SmartScore(tt.task, refNow)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("SmartScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSmartSort_EqualScoresKeepInputOrder(t *testing.T) {
	var tasks []models.Task
	for i := range 6 {
		tasks = append(tasks, task(i, nil))
	}
	got := titles(SortTasksAt(tasks, SortSmart, refNow))
	if diff := cmp.Diff(titles(tasks), got); diff != "" {
		t.Fatalf("ties reordered (-want +got):\n%s", diff)
	}
}

func TestSortDeadline_Ascending(t *testing.T) {
	tasks := []models.Task{
		task(2, func(t *models.Task) { t.Deadline = at(48) }),
		task(3, func(t *models.Task) { t.Deadline = at(72) }),
		task(1, func(t *models.Task) { t.Deadline = at(24) }),
	}
	got := titles(SortTasksAt(tasks, SortDeadline, refNow))
	if diff := cmp.Diff([]string{"task 1", "task 2", "task 3"}, got); diff != "" {
		t.Fatalf("deadline order mismatch (-want +got):\n%s", diff)
	}
}

func TestSortDeadline_MalformedSortsAsNow(t *testing.T) {
	tasks := []models.Task{
		task(1, func(t *models.Task) { t.Deadline = at(1) }),
		task(2, func(t *models.Task) { t.Deadline = "garbage" }),
		task(3, func(t *models.Task) { t.Deadline = at(-1) }),
	}
	got := titles(SortTasksAt(tasks, SortDeadline, refNow))
	if diff := cmp.Diff([]string{"task 3", "task 2", "task 1"}, got); diff != "" {
		t.Fatalf("deadline order mismatch (-want +got):\n%s", diff)
	}
}

func TestSortStability(t *testing.T) {
	// pairs share a sort key in every mode; ids tell input order apart
	tasks := []models.Task{
		task(1, func(t *models.Task) { t.Priority = models.PriorityLow; t.Deadline = at(10) }),
		task(2, func(t *models.Task) { t.Priority = models.PriorityHigh; t.Deadline = at(5); t.CreatedAt = refNow }),
		task(3, func(t *models.Task) { t.Priority = models.PriorityLow; t.Deadline = at(10) }),
		task(4, func(t *models.Task) { t.Priority = models.PriorityHigh; t.Deadline = at(5); t.CreatedAt = refNow }),
	}

	tests := []struct {
		mode SortMode
		want []string
	}{
		{SortDeadline, []string{"task 2", "task 4", "task 1", "task 3"}},
		{SortPriority, []string{"task 2", "task 4", "task 1", "task 3"}},
		{SortAdded, []string{"task 2", "task 4", "task 1", "task 3"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			got := titles(SortTasksAt(tasks, tt.mode, refNow))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("%s order mismatch (-want +got):\n%s", tt.mode, diff)
			}
		})
	}
}

func TestSortPriority_HighMediumLow(t *testing.T) {
	tasks := []models.Task{
		task(1, func(t *models.Task) { t.Priority = models.PriorityLow; t.Deadline = at(1) }),
		task(2, func(t *models.Task) { t.Priority = models.PriorityMedium; t.Status = models.TaskStatusCompleted }),
		task(3, func(t *models.Task) { t.Priority = "bogus" }),
		task(4, func(t *models.Task) { t.Priority = models.PriorityHigh; t.Deadline = at(900) }),
	}
	got := titles(SortTasksAt(tasks, SortPriority, refNow))
	if diff := cmp.Diff([]string{"task 4", "task 2", "task 1", "task 3"}, got); diff != "" {
		t.Fatalf("priority order mismatch (-want +got):\n%s", diff)
	}
}

func TestSortAdded_NewestFirst(t *testing.T) {
	tasks := []models.Task{
		task(1, func(t *models.Task) { t.CreatedAt = refNow.Add(-3 * time.Hour) }),
		task(2, func(t *models.Task) { t.CreatedAt = refNow.Add(-1 * time.Hour) }),
		task(3, func(t *models.Task) { t.CreatedAt = refNow.Add(-2 * time.Hour) }),
	}
	got := titles(SortTasksAt(tasks, SortAdded, refNow))
	if diff := cmp.Diff([]string{"task 2", "task 3", "task 1"}, got); diff != "" {
		t.Fatalf("added order mismatch (-want +got):\n%s", diff)
	}
}

func TestSortTasks_DoesNotMutateInput(t *testing.T) {
	tasks := []models.Task{
		task(1, func(t *models.Task) { t.Deadline = at(30) }),
		task(2, func(t *models.Task) { t.Deadline = at(10) }),
		task(3, func(t *models.Task) { t.Deadline = at(20) }),
	}
	before := titles(tasks)
	for _, mode := range []SortMode{SortSmart, SortDeadline, SortPriority, SortAdded, "unknown"} {
		out := SortTasks(tasks, mode)
		if len(out) != len(tasks) {
			t.Fatalf("%s: expected %d tasks, got %d", mode, len(tasks), len(out))
		}
	}
	if diff := cmp.Diff(before, titles(tasks)); diff != "" {
		t.Fatalf("input mutated (-want +got):\n%s", diff)
	}
}

func TestSortTasksAt_UnknownModeIsSmart(t *testing.T) {
	tasks := []models.Task{
		task(1, func(t *models.Task) { t.Status = models.TaskStatusCompleted }),
		task(2, func(t *models.Task) { t.Deadline = at(100) }),
		task(3, func(t *models.Task) { t.Deadline = at(1) }),
	}
	want := titles(SortTasksAt(tasks, SortSmart, refNow))
	got := titles(SortTasksAt(tasks, "alphabetical", refNow))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unknown mode mismatch (-want +got):\n%s", diff)
	}
}

func TestSortTasks_EmptyInput(t *testing.T) {
	got := SortTasks(nil, SortSmart)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestSortTasks_ConcurrentCallers(t *testing.T) {
	var tasks []models.Task
	for i := range 50 {
		tasks = append(tasks, task(i, func(t *models.Task) {
			t.Deadline = at(float64((i * 37) % 200))
			if i%3 == 0 {
				t.Status = models.TaskStatusCompleted
				t.UpdatedAt = refNow.Add(time.Duration(i) * time.Minute)
			}
		}))
	}
	want := titles(SortTasksAt(tasks, SortSmart, refNow))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := titles(SortTasksAt(tasks, SortSmart, refNow))
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("concurrent result differs (-want +got):\n%s", diff)
			}
		}()
	}
	wg.Wait()
}

func TestParseSortMode(t *testing.T) {
	tests := []struct {
		in     string
		want   SortMode
		wantOK bool
	}{
		{"", SortSmart, true},
		{"smart", SortSmart, true},
		{" Deadline ", SortDeadline, true},
		{"PRIORITY", SortPriority, true},
		{"added", SortAdded, true},
		{"title", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseSortMode(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseSortMode(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in     string
		wantOK bool
	}{
		{"2026-03-10T12:00:00Z", true},
		{"2026-03-10T12:00:00.123Z", true},
		{"2026-03-10T12:00:00+02:00", true},
		{"2026-03-10T12:00:00", true},
		{"2026-03-10T12:00", true},
		{"2026-03-10", true},
		{"", false},
		{"yesterday", false},
		{"2026-13-45T99:00:00Z", false},
	}
	for _, tt := range tests {
		_, ok := ParseTimestamp(tt.in)
		if ok != tt.wantOK {
			t.Errorf("ParseTimestamp(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
		}
	}
}

func TestSort_FarFutureTimestamps(t *testing.T) {
	y2300 := time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC)
	y2030 := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		mode  SortMode
		tasks []models.Task
		want  []string
	}{
		{
			name: "deadline ascending past 2262",
			mode: SortDeadline,
			tasks: []models.Task{
				task(1, func(t *models.Task) { t.Deadline = y2300.Format(time.RFC3339) }),
				task(2, func(t *models.Task) { t.Deadline = y2030.Format(time.RFC3339) }),
			},
			want: []string{"task 2", "task 1"},
		},
		{
			name: "added newest first past 2262",
			mode: SortAdded,
			tasks: []models.Task{
				task(1, func(t *models.Task) { t.CreatedAt = y2030 }),
				task(2, func(t *models.Task) { t.CreatedAt = y2300 }),
			},
			want: []string{"task 2", "task 1"},
		},
		{
			name: "completed most recent first past 2262",
			mode: SortSmart,
			tasks: []models.Task{
				task(1, func(t *models.Task) { t.Status = models.TaskStatusCompleted; t.UpdatedAt = y2030 }),
				task(2, func(t *models.Task) { t.Status = models.TaskStatusCompleted; t.UpdatedAt = y2300 }),
			},
			want: []string{"task 2", "task 1"},
		},
		{
			name: "deadline before 1678",
			mode: SortDeadline,
			tasks: []models.Task{
				task(1, func(t *models.Task) { t.Deadline = "2026-01-01T00:00:00Z" }),
				task(2, func(t *models.Task) { t.Deadline = "1500-01-01T00:00:00Z" }),
			},
			want: []string{"task 2", "task 1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := titles(SortTasksAt(tt.tasks, tt.mode, refNow))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
