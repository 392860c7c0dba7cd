package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/installsync/portal-server-go/internal/model"
)

// ActivityLogRepository handles activity log data operations
type ActivityLogRepository interface {
	Create(ctx context.Context, params model.CreateActivityLogParams) (*model.ActivityLog, error)
	FindByProjectID(ctx context.Context, projectID string, limit, offset int) ([]model.ActivityLog, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type activityLogRepo struct {
	db *sqlx.DB
}

func NewActivityLogRepository(db *sqlx.DB) ActivityLogRepository {
	return &activityLogRepo{db: db}
}

func (r *activityLogRepo) Create(ctx context.Context, params model.CreateActivityLogParams) (*model.ActivityLog, error) {
	var entry model.ActivityLog
	err := r.db.GetContext(ctx, &entry, `
		INSERT INTO activity_logs (project_id, kind, recipient, detail)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.ProjectID, params.Kind, params.Recipient, params.Detail)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *activityLogRepo) FindByProjectID(ctx context.Context, projectID string, limit, offset int) ([]model.ActivityLog, error) {
	entries := []model.ActivityLog{}
	err := r.db.SelectContext(ctx, &entries, `
		SELECT * FROM activity_logs
		WHERE project_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, projectID, limit, offset)
	return entries, err
}

func (r *activityLogRepo) CountSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM activity_logs WHERE created_at >= $1
	`, since)
	return count, err
}

func (r *activityLogRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM activity_logs WHERE created_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
