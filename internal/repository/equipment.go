package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/installsync/portal-server-go/internal/model"
)

// EquipmentRepository handles equipment data operations
type EquipmentRepository interface {
	FindByID(ctx context.Context, id string) (*model.Equipment, error)
	FindByProjectID(ctx context.Context, projectID string) ([]model.Equipment, error)
	Create(ctx context.Context, params model.CreateEquipmentParams) (*model.Equipment, error)
	UpdateStatus(ctx context.Context, id, status string) (*model.Equipment, error)
	UpdatePhotoURL(ctx context.Context, id, photoURL string) (*model.Equipment, error)
}

type equipmentRepo struct {
	db *sqlx.DB
}

func NewEquipmentRepository(db *sqlx.DB) EquipmentRepository {
	return &equipmentRepo{db: db}
}

func (r *equipmentRepo) FindByID(ctx context.Context, id string) (*model.Equipment, error) {
	var eq model.Equipment
	err := r.db.GetContext(ctx, &eq, `
		SELECT * FROM equipment WHERE id = $1
	`, id)
	return HandleNotFound(&eq, err)
}

func (r *equipmentRepo) FindByProjectID(ctx context.Context, projectID string) ([]model.Equipment, error) {
	items := []model.Equipment{}
	err := r.db.SelectContext(ctx, &items, `
		SELECT * FROM equipment
		WHERE project_id = $1
		ORDER BY created_at ASC
	`, projectID)
	return items, err
}

func (r *equipmentRepo) Create(ctx context.Context, params model.CreateEquipmentParams) (*model.Equipment, error) {
	var eq model.Equipment
	err := r.db.GetContext(ctx, &eq, `
		INSERT INTO equipment (project_id, name, model_number, serial_number, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, params.ProjectID, params.Name, params.ModelNumber, params.SerialNumber, params.Status)
	if err != nil {
		return nil, err
	}
	return &eq, nil
}

func (r *equipmentRepo) UpdateStatus(ctx context.Context, id, status string) (*model.Equipment, error) {
	var eq model.Equipment
	err := r.db.GetContext(ctx, &eq, `
		UPDATE equipment SET status = $2 WHERE id = $1
		RETURNING *
	`, id, status)
	return HandleNotFound(&eq, err)
}

func (r *equipmentRepo) UpdatePhotoURL(ctx context.Context, id, photoURL string) (*model.Equipment, error) {
	var eq model.Equipment
	err := r.db.GetContext(ctx, &eq, `
		UPDATE equipment SET photo_url = $2 WHERE id = $1
		RETURNING *
	`, id, photoURL)
	return HandleNotFound(&eq, err)
}
