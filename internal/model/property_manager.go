package model

import (
	"time"
)

// PropertyManager is identified on the portal surface solely by its opaque
// portal token. Possession of the token is the authorization.
type PropertyManager struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Email       string    `db:"email" json:"email"`
	Phone       *string   `db:"phone" json:"phone,omitempty"`
	PortalToken string    `db:"portal_token" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

type CreatePropertyManagerParams struct {
	Name        string
	Email       string
	Phone       *string
	PortalToken string
}
