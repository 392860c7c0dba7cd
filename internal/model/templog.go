package model

import (
	"time"
)

// TempLogSession is a driver-owned temperature logging session against one
// piece of equipment. All access is filtered by DriverID.
type TempLogSession struct {
	ID          string     `db:"id" json:"id"`
	DriverID    string     `db:"driver_id" json:"driverId"`
	EquipmentID string     `db:"equipment_id" json:"equipmentId"`
	StartedAt   time.Time  `db:"started_at" json:"startedAt"`
	ClosedAt    *time.Time `db:"closed_at" json:"closedAt,omitempty"`
}

func (s *TempLogSession) IsOpen() bool {
	return s.ClosedAt == nil
}

type CreateTempLogSessionParams struct {
	DriverID    string
	EquipmentID string
}

type TempReading struct {
	ID         string    `db:"id" json:"id"`
	SessionID  string    `db:"session_id" json:"sessionId"`
	ReadingC   float64   `db:"reading_c" json:"readingC"`
	RecordedAt time.Time `db:"recorded_at" json:"recordedAt"`
}

type CreateTempReadingParams struct {
	SessionID string
	ReadingC  float64
}
