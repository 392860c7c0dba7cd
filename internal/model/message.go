package model

import (
	"time"
)

type MessageSender string

const (
	MessageSenderAdmin MessageSender = "admin"
	MessageSenderPM    MessageSender = "pm"
)

// Message is a row on the per-project message board. Clients poll; there is
// no push channel.
type Message struct {
	ID        string        `db:"id" json:"id"`
	ProjectID string        `db:"project_id" json:"projectId"`
	Sender    MessageSender `db:"sender" json:"sender"`
	Body      string        `db:"body" json:"body"`
	CreatedAt time.Time     `db:"created_at" json:"createdAt"`
}

type CreateMessageParams struct {
	ProjectID string
	Sender    MessageSender
	Body      string
}
