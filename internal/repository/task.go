package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/installsync/portal-server-go/internal/model"
)

// TaskRepository handles task data operations
type TaskRepository interface {
	FindByID(ctx context.Context, id string) (*model.Task, error)
	FindByPhaseID(ctx context.Context, phaseID string) ([]model.Task, error)
	FindByProjectID(ctx context.Context, projectID string) ([]model.Task, error)
	FindAssignedToDriver(ctx context.Context, driverID string) ([]model.DriverTask, error)
	Create(ctx context.Context, params model.CreateTaskParams) (*model.Task, error)
	UpdateStatus(ctx context.Context, id string, status model.TaskStatus) (*model.Task, error)
	UpdateStatusForDriver(ctx context.Context, id, driverID string, status model.TaskStatus) (*model.Task, error)
	CountCompletedSince(ctx context.Context, since time.Time) (int, error)
	CountByStatus(ctx context.Context, status model.TaskStatus) (int, error)
}

type taskRepo struct {
	db *sqlx.DB
}

func NewTaskRepository(db *sqlx.DB) TaskRepository {
	return &taskRepo{db: db}
}

func (r *taskRepo) FindByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := r.db.GetContext(ctx, &task, `
		SELECT * FROM tasks WHERE id = $1
	`, id)
	return HandleNotFound(&task, err)
}

func (r *taskRepo) FindByPhaseID(ctx context.Context, phaseID string) ([]model.Task, error) {
	tasks := []model.Task{}
	err := r.db.SelectContext(ctx, &tasks, `
		SELECT * FROM tasks
		WHERE phase_id = $1
		ORDER BY created_at ASC
	`, phaseID)
	return tasks, err
}

func (r *taskRepo) FindByProjectID(ctx context.Context, projectID string) ([]model.Task, error) {
	tasks := []model.Task{}
	err := r.db.SelectContext(ctx, &tasks, `
		SELECT t.* FROM tasks t
		JOIN phases p ON p.id = t.phase_id
		WHERE p.project_id = $1
		ORDER BY p.sort_order ASC, t.created_at ASC
	`, projectID)
	return tasks, err
}

func (r *taskRepo) FindAssignedToDriver(ctx context.Context, driverID string) ([]model.DriverTask, error) {
	tasks := []model.DriverTask{}
	err := r.db.SelectContext(ctx, &tasks, `
		SELECT t.*, p.project_id, pr.property_name, pr.address, p.name AS phase_name
		FROM tasks t
		JOIN phases p ON p.id = t.phase_id
		JOIN projects pr ON pr.id = p.project_id
		WHERE t.assigned_driver_id = $1 AND t.status <> 'complete'
		ORDER BY pr.scheduled_date ASC NULLS LAST, t.created_at ASC
	`, driverID)
	return tasks, err
}

func (r *taskRepo) Create(ctx context.Context, params model.CreateTaskParams) (*model.Task, error) {
	var task model.Task
	err := r.db.GetContext(ctx, &task, `
		INSERT INTO tasks (phase_id, name, status, assigned_driver_id)
		VALUES ($1, $2, 'pending', $3)
		RETURNING *
	`, params.PhaseID, params.Name, params.AssignedDriverID)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateStatus stamps completed_at server-side when a task transitions to
// complete and clears it otherwise.
func (r *taskRepo) UpdateStatus(ctx context.Context, id string, status model.TaskStatus) (*model.Task, error) {
	var task model.Task
	err := r.db.GetContext(ctx, &task, `
		UPDATE tasks SET
			status = $2,
			completed_at = CASE WHEN $2 = 'complete' THEN NOW() ELSE NULL END
		WHERE id = $1
		RETURNING *
	`, id, status)
	return HandleNotFound(&task, err)
}

// UpdateStatusForDriver is UpdateStatus restricted to tasks assigned to the
// given driver. A task owned by someone else is indistinguishable from a
// missing one.
func (r *taskRepo) UpdateStatusForDriver(ctx context.Context, id, driverID string, status model.TaskStatus) (*model.Task, error) {
	var task model.Task
	err := r.db.GetContext(ctx, &task, `
		UPDATE tasks SET
			status = $3,
			completed_at = CASE WHEN $3 = 'complete' THEN NOW() ELSE NULL END
		WHERE id = $1 AND assigned_driver_id = $2
		RETURNING *
	`, id, driverID, status)
	return HandleNotFound(&task, err)
}

func (r *taskRepo) CountCompletedSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM tasks
		WHERE status = 'complete' AND completed_at >= $1
	`, since)
	return count, err
}

func (r *taskRepo) CountByStatus(ctx context.Context, status model.TaskStatus) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM tasks WHERE status = $1
	`, status)
	return count, err
}
