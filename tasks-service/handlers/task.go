package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/chepyr/go-task-planner/internal/db"
	"github.com/chepyr/go-task-planner/internal/ranking"
	"github.com/chepyr/go-task-planner/shared"
	"github.com/chepyr/go-task-planner/shared/models"
	"github.com/google/uuid"
)

const (
	maxBodyBytes = 1 << 20 // 1MB
	maxPageLimit = 100
)

// taskView is a task as returned by the API, with deadline flags for the client.
type taskView struct {
	models.Task
	Overdue bool `json:"overdue"`
	DueSoon bool `json:"due_soon"`
}

type pageView struct {
	Tasks []taskView `json:"tasks"`
	Total int        `json:"total"`
	Page  int        `json:"page"`
	Pages int        `json:"pages"`
}

/*
handles routes:
- GET /tasks?status=&priority=&category=&sort=&page=&limit= - ranked list of the caller's tasks
- POST /tasks - create a new task
*/
func (h *Handler) HandleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listTasks(w, r)
	case http.MethodPost:
		h.createTask(w, r)
	default:
		shared.SendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

/*
routes:
- GET /tasks/{id}
- PUT/PATCH /tasks/{id}
- DELETE /tasks/{id}
- PATCH /tasks/{id}/toggle
*/
func (h *Handler) HandleTaskByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/tasks/"), "/")
	idStr, action, _ := strings.Cut(rest, "/")
	if idStr == "" {
		shared.SendError(w, "task_id is required", http.StatusBadRequest)
		return
	}
	taskID, err := uuid.Parse(idStr)
	if err != nil {
		shared.SendError(w, "task_id must be a valid uuid", http.StatusBadRequest)
		return
	}

	switch {
	case action == "toggle" && r.Method == http.MethodPatch:
		h.toggleTask(w, r, taskID)
	case action != "":
		shared.SendError(w, "Not found", http.StatusNotFound)
	case r.Method == http.MethodGet:
		h.getTaskByID(w, r, taskID)
	case r.Method == http.MethodPut, r.Method == http.MethodPatch:
		h.updateTaskByID(w, r, taskID)
	case r.Method == http.MethodDelete:
		h.deleteTaskByID(w, r, taskID)
	default:
		shared.SendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		shared.SendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	q := r.URL.Query()
	query, paginated, err := parseListQuery(q)
	if err != nil {
		shared.SendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	tasks, err := h.snapshot(r.Context(), userID)
	if err != nil {
		log.Printf("Failed to list tasks for %s: %v", userID, err)
		shared.SendError(w, "Failed to list tasks", http.StatusInternalServerError)
		return
	}

	now := h.now()
	page := ranking.Apply(tasks, query, now)
	views := toViews(page.Tasks, now)
	if !paginated {
		shared.SendJSON(w, http.StatusOK, views)
		return
	}
	shared.SendJSON(w, http.StatusOK, pageView{
		Tasks: views,
		Total: page.Total,
		Page:  page.Page,
		Pages: page.Pages,
	})
}

// snapshot loads the user's tasks. Concurrent callers for the same user share
// one query; the result is read-only for all of them.
func (h *Handler) snapshot(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	v, err, _ := h.listGroup.Do(userID.String(), func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
		defer cancel()
		return h.TaskRepo.ListByUserID(fetchCtx, userID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Task), nil
}

func parseListQuery(q map[string][]string) (ranking.Query, bool, error) {
	get := func(k string) string {
		if v := q[k]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	criteria, err := ranking.ParseCriteria(get("status"), get("priority"), get("category"))
	if err != nil {
		return ranking.Query{}, false, err
	}
	mode, ok := ranking.ParseSortMode(get("sort"))
	if !ok {
		return ranking.Query{}, false, errors.New("sort must be one of smart, deadline, priority, added")
	}
	query := ranking.Query{Criteria: criteria, Mode: mode}

	pageStr, limitStr := get("page"), get("limit")
	if pageStr == "" && limitStr == "" {
		return query, false, nil
	}
	query.Page = 1
	query.Limit = maxPageLimit
	if pageStr != "" {
		if query.Page, err = strconv.Atoi(pageStr); err != nil || query.Page < 1 {
			return ranking.Query{}, false, errors.New("page must be a positive integer")
		}
	}
	if limitStr != "" {
		if query.Limit, err = strconv.Atoi(limitStr); err != nil || query.Limit < 1 || query.Limit > maxPageLimit {
			return ranking.Query{}, false, errors.New("limit must be between 1 and 100")
		}
	}
	return query, true, nil
}

func toViews(tasks []models.Task, now time.Time) []taskView {
	views := make([]taskView, len(tasks))
	for i, t := range tasks {
		views[i] = taskView{
			Task:    t,
			Overdue: ranking.IsOverdue(t, now),
			DueSoon: ranking.IsDueSoon(t, now),
		}
	}
	return views
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		shared.SendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	input, ok := decodeTaskInput(w, r)
	if !ok {
		return
	}
	if err := input.requireCreateFields(); err != nil {
		shared.SendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	now := h.now()
	task := &models.Task{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    models.TaskStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := input.apply(task); err != nil {
		shared.SendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := h.TaskRepo.Create(ctx, task); err != nil {
		log.Printf("Failed to create task: %v", err)
		shared.SendError(w, "Failed to create task", http.StatusInternalServerError)
		return
	}

	h.WSHub.Broadcast(userID, EventTaskCreated, task.ID, task)
	w.Header().Set("Location", "/tasks/"+task.ID.String())
	shared.SendJSON(w, http.StatusCreated, toViews([]models.Task{*task}, now)[0])
}

func (h *Handler) getTaskByID(w http.ResponseWriter, r *http.Request, taskID uuid.UUID) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		shared.SendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	task, err := h.TaskRepo.GetByID(ctx, userID, taskID)
	if err != nil {
		sendRepoError(w, "Failed to load task", err)
		return
	}
	shared.SendJSON(w, http.StatusOK, toViews([]models.Task{*task}, h.now())[0])
}

func (h *Handler) updateTaskByID(w http.ResponseWriter, r *http.Request, taskID uuid.UUID) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		shared.SendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	input, ok := decodeTaskInput(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	task, err := h.TaskRepo.GetByID(ctx, userID, taskID)
	if err != nil {
		sendRepoError(w, "Failed to load task", err)
		return
	}
	if err := input.apply(task); err != nil {
		shared.SendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	task.UpdatedAt = h.now()

	if err := h.TaskRepo.Update(ctx, task); err != nil {
		sendRepoError(w, "Failed to update task", err)
		return
	}
	h.WSHub.Broadcast(userID, EventTaskUpdated, task.ID, task)
	shared.SendJSON(w, http.StatusOK, toViews([]models.Task{*task}, task.UpdatedAt)[0])
}

func (h *Handler) toggleTask(w http.ResponseWriter, r *http.Request, taskID uuid.UUID) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		shared.SendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	now := h.now()
	task, err := h.TaskRepo.ToggleStatus(ctx, userID, taskID, now)
	if err != nil {
		sendRepoError(w, "Failed to toggle task", err)
		return
	}
	h.WSHub.Broadcast(userID, EventTaskUpdated, task.ID, task)
	shared.SendJSON(w, http.StatusOK, toViews([]models.Task{*task}, now)[0])
}

func (h *Handler) deleteTaskByID(w http.ResponseWriter, r *http.Request, taskID uuid.UUID) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		shared.SendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.TaskRepo.Delete(ctx, userID, taskID); err != nil {
		sendRepoError(w, "Failed to delete task", err)
		return
	}
	h.WSHub.Broadcast(userID, EventTaskDeleted, taskID, nil)
	w.WriteHeader(http.StatusNoContent)
}

func decodeTaskInput(w http.ResponseWriter, r *http.Request) (taskInput, bool) {
	if !isJSONContentType(r) {
		shared.SendError(w, "Content-Type must be application/json", http.StatusBadRequest)
		return taskInput{}, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var input taskInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		shared.SendError(w, "Invalid JSON body", http.StatusBadRequest)
		return taskInput{}, false
	}
	return input, true
}

func isJSONContentType(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// sendRepoError maps a repository error to 404 or 500.
func sendRepoError(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, db.ErrTaskNotFound) {
		shared.SendError(w, "Task not found", http.StatusNotFound)
		return
	}
	log.Printf("%s: %v", msg, err)
	shared.SendError(w, msg, http.StatusInternalServerError)
}
