package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/installsync/portal-server-go/internal/model"
)

// MessageRepository handles project message board data operations
type MessageRepository interface {
	Create(ctx context.Context, params model.CreateMessageParams) (*model.Message, error)
	FindByProjectID(ctx context.Context, projectID string, limit, offset int) ([]model.Message, error)
}

type messageRepo struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepo{db: db}
}

func (r *messageRepo) Create(ctx context.Context, params model.CreateMessageParams) (*model.Message, error) {
	var msg model.Message
	err := r.db.GetContext(ctx, &msg, `
		INSERT INTO messages (project_id, sender, body)
		VALUES ($1, $2, $3)
		RETURNING *
	`, params.ProjectID, params.Sender, params.Body)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepo) FindByProjectID(ctx context.Context, projectID string, limit, offset int) ([]model.Message, error) {
	messages := []model.Message{}
	err := r.db.SelectContext(ctx, &messages, `
		SELECT * FROM messages
		WHERE project_id = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`, projectID, limit, offset)
	return messages, err
}
