package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/installsync/portal-server-go/internal/model"
)

// DriverRepository handles driver data operations
type DriverRepository interface {
	FindByAccessToken(ctx context.Context, token string) (*model.Driver, error)
	FindByID(ctx context.Context, id string) (*model.Driver, error)
	FindAll(ctx context.Context, limit, offset int) ([]model.Driver, error)
	Create(ctx context.Context, params model.CreateDriverParams) (*model.Driver, error)
	Update(ctx context.Context, id string, params model.UpdateDriverParams) (*model.Driver, error)
	Count(ctx context.Context) (int, error)
}

type driverRepo struct {
	db *sqlx.DB
}

func NewDriverRepository(db *sqlx.DB) DriverRepository {
	return &driverRepo{db: db}
}

// FindByAccessToken looks up the single driver whose stored access token
// equals the normalized code. Comparison is case-insensitive to match how
// codes are provisioned.
func (r *driverRepo) FindByAccessToken(ctx context.Context, token string) (*model.Driver, error) {
	var driver model.Driver
	err := r.db.GetContext(ctx, &driver, `
		SELECT * FROM drivers
		WHERE LOWER(access_token) = $1
	`, token)
	return HandleNotFound(&driver, err)
}

func (r *driverRepo) FindByID(ctx context.Context, id string) (*model.Driver, error) {
	var driver model.Driver
	err := r.db.GetContext(ctx, &driver, `
		SELECT * FROM drivers WHERE id = $1
	`, id)
	return HandleNotFound(&driver, err)
}

func (r *driverRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Driver, error) {
	drivers := []model.Driver{}
	err := r.db.SelectContext(ctx, &drivers, `
		SELECT * FROM drivers
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return drivers, err
}

func (r *driverRepo) Create(ctx context.Context, params model.CreateDriverParams) (*model.Driver, error) {
	var driver model.Driver
	err := r.db.GetContext(ctx, &driver, `
		INSERT INTO drivers (name, email, phone, access_token, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING *
	`, params.Name, params.Email, params.Phone, params.AccessToken)
	if err != nil {
		return nil, err
	}
	return &driver, nil
}

func (r *driverRepo) Update(ctx context.Context, id string, params model.UpdateDriverParams) (*model.Driver, error) {
	var driver model.Driver
	err := r.db.GetContext(ctx, &driver, `
		UPDATE drivers SET
			name = COALESCE($2, name),
			email = COALESCE($3, email),
			phone = COALESCE($4, phone),
			is_active = COALESCE($5, is_active)
		WHERE id = $1
		RETURNING *
	`, id, params.Name, params.Email, params.Phone, params.IsActive)
	return HandleNotFound(&driver, err)
}

func (r *driverRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM drivers`)
	return count, err
}
