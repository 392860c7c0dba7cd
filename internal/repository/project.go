package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/installsync/portal-server-go/internal/model"
)

// ProjectRepository handles project, phase and aggregate data operations
type ProjectRepository interface {
	FindByID(ctx context.Context, id string) (*model.Project, error)
	FindByPMID(ctx context.Context, pmID string) ([]model.Project, error)
	FindAll(ctx context.Context, limit, offset int) ([]model.Project, error)
	Create(ctx context.Context, params model.CreateProjectParams) (*model.Project, error)
	Update(ctx context.Context, id string, params model.UpdateProjectParams) (*model.Project, error)
	CountByStatus(ctx context.Context, status model.ProjectStatus) (int, error)
	Count(ctx context.Context) (int, error)

	FindPhases(ctx context.Context, projectID string) ([]model.Phase, error)
	CreatePhase(ctx context.Context, params model.CreatePhaseParams) (*model.Phase, error)
}

type projectRepo struct {
	db *sqlx.DB
}

func NewProjectRepository(db *sqlx.DB) ProjectRepository {
	return &projectRepo{db: db}
}

func (r *projectRepo) FindByID(ctx context.Context, id string) (*model.Project, error) {
	var project model.Project
	err := r.db.GetContext(ctx, &project, `
		SELECT * FROM projects WHERE id = $1
	`, id)
	return HandleNotFound(&project, err)
}

// FindByPMID returns every project scoped to a property manager. This backs
// the portal aggregate; rows outside the PM's scope are unreachable here.
func (r *projectRepo) FindByPMID(ctx context.Context, pmID string) ([]model.Project, error) {
	projects := []model.Project{}
	err := r.db.SelectContext(ctx, &projects, `
		SELECT * FROM projects
		WHERE pm_id = $1
		ORDER BY created_at DESC
	`, pmID)
	return projects, err
}

func (r *projectRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Project, error) {
	projects := []model.Project{}
	err := r.db.SelectContext(ctx, &projects, `
		SELECT * FROM projects
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return projects, err
}

func (r *projectRepo) Create(ctx context.Context, params model.CreateProjectParams) (*model.Project, error) {
	var project model.Project
	err := r.db.GetContext(ctx, &project, `
		INSERT INTO projects (pm_id, property_name, address, status, scheduled_date, target_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *
	`, params.PMID, params.PropertyName, params.Address, params.Status, params.ScheduledDate, params.TargetDate)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepo) Update(ctx context.Context, id string, params model.UpdateProjectParams) (*model.Project, error) {
	var project model.Project
	err := r.db.GetContext(ctx, &project, `
		UPDATE projects SET
			property_name = COALESCE($2, property_name),
			address = COALESCE($3, address),
			status = COALESCE($4, status),
			scheduled_date = COALESCE($5, scheduled_date),
			target_date = COALESCE($6, target_date),
			updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, id, params.PropertyName, params.Address, params.Status, params.ScheduledDate, params.TargetDate)
	return HandleNotFound(&project, err)
}

func (r *projectRepo) CountByStatus(ctx context.Context, status model.ProjectStatus) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM projects WHERE status = $1
	`, status)
	return count, err
}

func (r *projectRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM projects`)
	return count, err
}

func (r *projectRepo) FindPhases(ctx context.Context, projectID string) ([]model.Phase, error) {
	phases := []model.Phase{}
	err := r.db.SelectContext(ctx, &phases, `
		SELECT * FROM phases
		WHERE project_id = $1
		ORDER BY sort_order ASC
	`, projectID)
	return phases, err
}

func (r *projectRepo) CreatePhase(ctx context.Context, params model.CreatePhaseParams) (*model.Phase, error) {
	var phase model.Phase
	err := r.db.GetContext(ctx, &phase, `
		INSERT INTO phases (project_id, name, sort_order, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING *
	`, params.ProjectID, params.Name, params.SortOrder)
	if err != nil {
		return nil, err
	}
	return &phase, nil
}
