package service

import (
	"context"

	"github.com/rs/zerolog/log"

	apperrors "github.com/installsync/portal-server-go/internal/errors"
	"github.com/installsync/portal-server-go/internal/model"
	"github.com/installsync/portal-server-go/internal/repository"
)

// TempLogService manages driver temperature-log sessions. Ownership is
// enforced at the query level: a session belonging to another driver is
// indistinguishable from one that does not exist.
type TempLogService struct {
	tempRepo      repository.TempLogRepository
	equipmentRepo repository.EquipmentRepository
}

func NewTempLogService(tempRepo repository.TempLogRepository, equipmentRepo repository.EquipmentRepository) *TempLogService {
	return &TempLogService{tempRepo: tempRepo, equipmentRepo: equipmentRepo}
}

// StartSession opens a logging session against a piece of equipment.
func (s *TempLogService) StartSession(ctx context.Context, driverID, equipmentID string) (*model.TempLogSession, error) {
	equipment, err := s.equipmentRepo.FindByID(ctx, equipmentID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if equipment == nil {
		return nil, apperrors.NotFound("Equipment")
	}

	session, err := s.tempRepo.CreateSession(ctx, model.CreateTempLogSessionParams{
		DriverID:    driverID,
		EquipmentID: equipmentID,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().
		Str("sessionId", session.ID).
		Str("driverId", driverID).
		Str("equipmentId", equipmentID).
		Msg("temperature session started")

	return session, nil
}

// AddReading appends a reading to one of the driver's open sessions.
func (s *TempLogService) AddReading(ctx context.Context, driverID, sessionID string, readingC float64) (*model.TempReading, error) {
	session, err := s.tempRepo.FindSessionForDriver(ctx, sessionID, driverID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, apperrors.NotFound("Session")
	}
	if !session.IsOpen() {
		return nil, apperrors.New(apperrors.ErrCodeConflict, "Session is closed")
	}

	reading, err := s.tempRepo.AddReading(ctx, model.CreateTempReadingParams{
		SessionID: sessionID,
		ReadingC:  readingC,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return reading, nil
}

// CloseSession closes one of the driver's open sessions.
func (s *TempLogService) CloseSession(ctx context.Context, driverID, sessionID string) (*model.TempLogSession, error) {
	session, err := s.tempRepo.CloseSession(ctx, sessionID, driverID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, apperrors.NotFound("Session")
	}

	log.Info().Str("sessionId", sessionID).Str("driverId", driverID).Msg("temperature session closed")
	return session, nil
}

// SessionWithReadings returns a driver's session and its readings.
type SessionWithReadings struct {
	model.TempLogSession
	Readings []model.TempReading `json:"readings"`
}

func (s *TempLogService) GetSession(ctx context.Context, driverID, sessionID string) (*SessionWithReadings, error) {
	session, err := s.tempRepo.FindSessionForDriver(ctx, sessionID, driverID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, apperrors.NotFound("Session")
	}

	readings, err := s.tempRepo.FindReadings(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	return &SessionWithReadings{TempLogSession: *session, Readings: readings}, nil
}

func (s *TempLogService) ListOpenSessions(ctx context.Context, driverID string) ([]model.TempLogSession, error) {
	sessions, err := s.tempRepo.FindOpenSessionsForDriver(ctx, driverID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return sessions, nil
}
