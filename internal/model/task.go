package model

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusComplete   TaskStatus = "complete"
)

var ValidTaskStatuses = []string{
	string(TaskStatusPending),
	string(TaskStatusInProgress),
	string(TaskStatusComplete),
}

type Task struct {
	ID               string     `db:"id" json:"id"`
	PhaseID          string     `db:"phase_id" json:"phaseId"`
	Name             string     `db:"name" json:"name"`
	Status           TaskStatus `db:"status" json:"status"`
	AssignedDriverID *string    `db:"assigned_driver_id" json:"assignedDriverId,omitempty"`
	CompletedAt      *time.Time `db:"completed_at" json:"completedAt,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"createdAt"`
}

type CreateTaskParams struct {
	PhaseID          string
	Name             string
	AssignedDriverID *string
}

// DriverTask is a task joined to its project context for the driver surface.
type DriverTask struct {
	Task
	ProjectID    string `db:"project_id" json:"projectId"`
	PropertyName string `db:"property_name" json:"propertyName"`
	Address      string `db:"address" json:"address"`
	PhaseName    string `db:"phase_name" json:"phaseName"`
}
