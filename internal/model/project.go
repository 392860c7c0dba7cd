package model

import (
	"time"
)

type ProjectStatus string

const (
	ProjectStatusScheduled  ProjectStatus = "scheduled"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusComplete   ProjectStatus = "complete"
	ProjectStatusOnHold     ProjectStatus = "on_hold"
)

var ValidProjectStatuses = []string{
	string(ProjectStatusScheduled),
	string(ProjectStatusInProgress),
	string(ProjectStatusComplete),
	string(ProjectStatusOnHold),
}

type Project struct {
	ID            string        `db:"id" json:"id"`
	PMID          string        `db:"pm_id" json:"pmId"`
	PropertyName  string        `db:"property_name" json:"propertyName"`
	Address       string        `db:"address" json:"address"`
	Status        ProjectStatus `db:"status" json:"status"`
	ScheduledDate *time.Time    `db:"scheduled_date" json:"scheduledDate,omitempty"`
	TargetDate    *time.Time    `db:"target_date" json:"targetDate,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updatedAt"`
}

type CreateProjectParams struct {
	PMID          string
	PropertyName  string
	Address       string
	Status        ProjectStatus
	ScheduledDate *time.Time
	TargetDate    *time.Time
}

type UpdateProjectParams struct {
	PropertyName  *string
	Address       *string
	Status        *ProjectStatus
	ScheduledDate *time.Time
	TargetDate    *time.Time
}

type Phase struct {
	ID        string `db:"id" json:"id"`
	ProjectID string `db:"project_id" json:"projectId"`
	Name      string `db:"name" json:"name"`
	SortOrder int    `db:"sort_order" json:"sortOrder"`
	Status    string `db:"status" json:"status"`
}

type CreatePhaseParams struct {
	ProjectID string
	Name      string
	SortOrder int
}
