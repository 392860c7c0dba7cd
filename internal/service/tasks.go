package service

import (
	"context"

	"github.com/rs/zerolog/log"

	apperrors "github.com/installsync/portal-server-go/internal/errors"
	"github.com/installsync/portal-server-go/internal/model"
	"github.com/installsync/portal-server-go/internal/repository"
)

// TaskService serves both the admin task CRUD and the driver task surface.
type TaskService struct {
	taskRepo repository.TaskRepository
}

func NewTaskService(taskRepo repository.TaskRepository) *TaskService {
	return &TaskService{taskRepo: taskRepo}
}

func (s *TaskService) Create(ctx context.Context, params model.CreateTaskParams) (*model.Task, error) {
	task, err := s.taskRepo.Create(ctx, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return task, nil
}

// UpdateStatus is the admin-side status change: any task, completed_at
// stamped server-side by the repository.
func (s *TaskService) UpdateStatus(ctx context.Context, id string, status model.TaskStatus) (*model.Task, error) {
	task, err := s.taskRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if task == nil {
		return nil, apperrors.NotFound("Task")
	}
	return task, nil
}

// ListForDriver returns the open tasks assigned to a driver, joined to their
// project context.
func (s *TaskService) ListForDriver(ctx context.Context, driverID string) ([]model.DriverTask, error) {
	tasks, err := s.taskRepo.FindAssignedToDriver(ctx, driverID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return tasks, nil
}

// UpdateStatusForDriver restricts the change to tasks assigned to the
// authenticated driver. Someone else's task looks exactly like no task.
func (s *TaskService) UpdateStatusForDriver(ctx context.Context, id, driverID string, status model.TaskStatus) (*model.Task, error) {
	task, err := s.taskRepo.UpdateStatusForDriver(ctx, id, driverID, status)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if task == nil {
		return nil, apperrors.NotFound("Task")
	}

	log.Info().
		Str("taskId", id).
		Str("driverId", driverID).
		Str("status", string(status)).
		Msg("task status updated by driver")

	return task, nil
}
