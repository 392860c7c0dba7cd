package model

import (
	"time"
)

type ActivityKind string

const (
	ActivityEmailOpened  ActivityKind = "email_opened"
	ActivityEmailClicked ActivityKind = "email_clicked"
	ActivitySMSSent      ActivityKind = "sms_sent"
)

type ActivityLog struct {
	ID        string       `db:"id" json:"id"`
	ProjectID *string      `db:"project_id" json:"projectId,omitempty"`
	Kind      ActivityKind `db:"kind" json:"kind"`
	Recipient string       `db:"recipient" json:"recipient"`
	Detail    *string      `db:"detail" json:"detail,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"createdAt"`
}

type CreateActivityLogParams struct {
	ProjectID *string
	Kind      ActivityKind
	Recipient string
	Detail    *string
}
