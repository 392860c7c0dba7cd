package model

import (
	"time"
)

type Driver struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Email       string    `db:"email" json:"-"`
	Phone       *string   `db:"phone" json:"-"`
	AccessToken string    `db:"access_token" json:"-"`
	IsActive    bool      `db:"is_active" json:"isActive"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

type CreateDriverParams struct {
	Name        string
	Email       string
	Phone       *string
	AccessToken string
}

type UpdateDriverParams struct {
	Name     *string
	Email    *string
	Phone    *string
	IsActive *bool
}
