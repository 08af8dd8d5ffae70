package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chepyr/go-task-planner/shared/models"
	"github.com/google/uuid"
)

var ErrTaskNotFound = errors.New("task not found")

// defines methods for task db operations; every call is scoped to the owner
type TaskRepositoryInterface interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Task, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	ToggleStatus(ctx context.Context, userID, id uuid.UUID, at time.Time) (*models.Task, error)
}

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, user_id, title, description, date_time, deadline,
 priority, category, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	task := &models.Task{}
	err := row.Scan(
		&task.ID, &task.UserID, &task.Title, &task.Description, &task.DateTime, &task.Deadline,
		&task.Priority, &task.Category, &task.Status, &task.CreatedAt, &task.UpdatedAt,
	)
	return task, err
}

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	query := `INSERT INTO tasks (` + taskColumns + `)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		task.ID, task.UserID, task.Title, task.Description, task.DateTime, task.Deadline,
		task.Priority, task.Category, task.Status, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`
	task, err := scanTask(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select task: %w", err)
	}
	return task, nil
}

// ListByUserID returns the owner's whole snapshot in insertion order.
// Ordering for display is left to the ranking package.
func (r *TaskRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1 ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `UPDATE tasks SET title = $1, description = $2, date_time = $3, deadline = $4,
	 priority = $5, category = $6, status = $7, updated_at = $8
	 WHERE id = $9 AND user_id = $10`
	res, err := r.db.ExecContext(ctx, query,
		task.Title, task.Description, task.DateTime, task.Deadline,
		task.Priority, task.Category, task.Status, task.UpdatedAt,
		task.ID, task.UserID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return expectAffected(res)
}

func (r *TaskRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return expectAffected(res)
}

// ToggleStatus flips pending and completed in one statement and returns the new row.
func (r *TaskRepository) ToggleStatus(ctx context.Context, userID, id uuid.UUID, at time.Time) (*models.Task, error) {
	query := `UPDATE tasks
	 SET status = CASE WHEN status = $1 THEN $2 ELSE $1 END, updated_at = $3
	 WHERE id = $4 AND user_id = $5`
	res, err := r.db.ExecContext(ctx, query,
		models.TaskStatusCompleted, models.TaskStatusPending, at, id, userID)
	if err != nil {
		return nil, fmt.Errorf("toggle task: %w", err)
	}
	if err := expectAffected(res); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, userID, id)
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrTaskNotFound
	}
	return nil
}
