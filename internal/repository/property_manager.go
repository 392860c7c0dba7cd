package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/installsync/portal-server-go/internal/model"
)

// PropertyManagerRepository handles property manager data operations
type PropertyManagerRepository interface {
	FindByPortalToken(ctx context.Context, token string) (*model.PropertyManager, error)
	FindByID(ctx context.Context, id string) (*model.PropertyManager, error)
	FindAll(ctx context.Context, limit, offset int) ([]model.PropertyManager, error)
	Create(ctx context.Context, params model.CreatePropertyManagerParams) (*model.PropertyManager, error)
	Count(ctx context.Context) (int, error)
}

type propertyManagerRepo struct {
	db *sqlx.DB
}

func NewPropertyManagerRepository(db *sqlx.DB) PropertyManagerRepository {
	return &propertyManagerRepo{db: db}
}

// FindByPortalToken is the single authoritative lookup for the PM surface.
// A nil result means the token resolves to nothing and maps to 404 upstream.
func (r *propertyManagerRepo) FindByPortalToken(ctx context.Context, token string) (*model.PropertyManager, error) {
	var pm model.PropertyManager
	err := r.db.GetContext(ctx, &pm, `
		SELECT * FROM property_managers
		WHERE portal_token = $1
	`, token)
	return HandleNotFound(&pm, err)
}

func (r *propertyManagerRepo) FindByID(ctx context.Context, id string) (*model.PropertyManager, error) {
	var pm model.PropertyManager
	err := r.db.GetContext(ctx, &pm, `
		SELECT * FROM property_managers WHERE id = $1
	`, id)
	return HandleNotFound(&pm, err)
}

func (r *propertyManagerRepo) FindAll(ctx context.Context, limit, offset int) ([]model.PropertyManager, error) {
	pms := []model.PropertyManager{}
	err := r.db.SelectContext(ctx, &pms, `
		SELECT * FROM property_managers
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return pms, err
}

func (r *propertyManagerRepo) Create(ctx context.Context, params model.CreatePropertyManagerParams) (*model.PropertyManager, error) {
	var pm model.PropertyManager
	err := r.db.GetContext(ctx, &pm, `
		INSERT INTO property_managers (name, email, phone, portal_token)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.Name, params.Email, params.Phone, params.PortalToken)
	if err != nil {
		return nil, err
	}
	return &pm, nil
}

func (r *propertyManagerRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM property_managers`)
	return count, err
}
