package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/installsync/portal-server-go/internal/model"
)

// TempLogRepository handles temperature-log sessions and readings. Every
// session lookup is filtered by the owning driver.
type TempLogRepository interface {
	CreateSession(ctx context.Context, params model.CreateTempLogSessionParams) (*model.TempLogSession, error)
	FindSessionForDriver(ctx context.Context, id, driverID string) (*model.TempLogSession, error)
	FindOpenSessionsForDriver(ctx context.Context, driverID string) ([]model.TempLogSession, error)
	CloseSession(ctx context.Context, id, driverID string) (*model.TempLogSession, error)
	AddReading(ctx context.Context, params model.CreateTempReadingParams) (*model.TempReading, error)
	FindReadings(ctx context.Context, sessionID string) ([]model.TempReading, error)
	CloseStaleSessions(ctx context.Context, olderThan time.Time) (int64, error)
}

type tempLogRepo struct {
	db *sqlx.DB
}

func NewTempLogRepository(db *sqlx.DB) TempLogRepository {
	return &tempLogRepo{db: db}
}

func (r *tempLogRepo) CreateSession(ctx context.Context, params model.CreateTempLogSessionParams) (*model.TempLogSession, error) {
	var session model.TempLogSession
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO temp_log_sessions (driver_id, equipment_id)
		VALUES ($1, $2)
		RETURNING *
	`, params.DriverID, params.EquipmentID)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *tempLogRepo) FindSessionForDriver(ctx context.Context, id, driverID string) (*model.TempLogSession, error) {
	var session model.TempLogSession
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM temp_log_sessions
		WHERE id = $1 AND driver_id = $2
	`, id, driverID)
	return HandleNotFound(&session, err)
}

func (r *tempLogRepo) FindOpenSessionsForDriver(ctx context.Context, driverID string) ([]model.TempLogSession, error) {
	sessions := []model.TempLogSession{}
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT * FROM temp_log_sessions
		WHERE driver_id = $1 AND closed_at IS NULL
		ORDER BY started_at DESC
	`, driverID)
	return sessions, err
}

func (r *tempLogRepo) CloseSession(ctx context.Context, id, driverID string) (*model.TempLogSession, error) {
	var session model.TempLogSession
	err := r.db.GetContext(ctx, &session, `
		UPDATE temp_log_sessions
		SET closed_at = NOW()
		WHERE id = $1 AND driver_id = $2 AND closed_at IS NULL
		RETURNING *
	`, id, driverID)
	return HandleNotFound(&session, err)
}

func (r *tempLogRepo) AddReading(ctx context.Context, params model.CreateTempReadingParams) (*model.TempReading, error) {
	var reading model.TempReading
	err := r.db.GetContext(ctx, &reading, `
		INSERT INTO temp_readings (session_id, reading_c)
		VALUES ($1, $2)
		RETURNING *
	`, params.SessionID, params.ReadingC)
	if err != nil {
		return nil, err
	}
	return &reading, nil
}

func (r *tempLogRepo) FindReadings(ctx context.Context, sessionID string) ([]model.TempReading, error) {
	readings := []model.TempReading{}
	err := r.db.SelectContext(ctx, &readings, `
		SELECT * FROM temp_readings
		WHERE session_id = $1
		ORDER BY recorded_at ASC
	`, sessionID)
	return readings, err
}

func (r *tempLogRepo) CloseStaleSessions(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE temp_log_sessions
		SET closed_at = NOW()
		WHERE closed_at IS NULL AND started_at < $1
	`, olderThan)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
