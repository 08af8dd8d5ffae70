package ranking

import (
	"time"

	"github.com/chepyr/go-task-planner/shared/models"
)

// Page is one slice of an ordered task list, shaped like the paginated
// GET /tasks response.
type Page struct {
	Tasks []models.Task `json:"tasks"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Pages int           `json:"pages"`
}

// Paginate cuts the 1-based page out of tasks. A limit below 1 puts every
// task on a single page.
func Paginate(tasks []models.Task, page, limit int) Page {
	total := len(tasks)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = total
	}

	p := Page{Tasks: []models.Task{}, Total: total, Page: page}
	if total == 0 {
		return p
	}
	p.Pages = total / limit
	if total%limit != 0 {
		p.Pages++
	}

	// checked before multiplying so huge page numbers cannot overflow
	if page > p.Pages {
		return p
	}
	start := (page - 1) * limit
	end := min(start+limit, total)
	p.Tasks = append(p.Tasks, tasks[start:end]...)
	return p
}

// Query is the full filter, sort and paging request for one listing.
type Query struct {
	Criteria Criteria
	Mode     SortMode
	Page     int
	Limit    int
}

// Apply runs filter, sort and paginate in that order against one reference time.
func Apply(tasks []models.Task, q Query, now time.Time) Page {
	filtered := FilterTasks(tasks, q.Criteria)
	sorted := SortTasksAt(filtered, q.Mode, now)
	return Paginate(sorted, q.Page, q.Limit)
}
