package model

import (
	"time"
)

type Equipment struct {
	ID           string    `db:"id" json:"id"`
	ProjectID    string    `db:"project_id" json:"projectId"`
	Name         string    `db:"name" json:"name"`
	ModelNumber  *string   `db:"model_number" json:"modelNumber,omitempty"`
	SerialNumber *string   `db:"serial_number" json:"serialNumber,omitempty"`
	Status       string    `db:"status" json:"status"`
	PhotoURL     *string   `db:"photo_url" json:"photoUrl,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

type CreateEquipmentParams struct {
	ProjectID    string
	Name         string
	ModelNumber  *string
	SerialNumber *string
	Status       string
}
