package service

import (
	"context"

	"github.com/rs/zerolog/log"

	apperrors "github.com/installsync/portal-server-go/internal/errors"
	"github.com/installsync/portal-server-go/internal/model"
	"github.com/installsync/portal-server-go/internal/repository"
)

// ActivityService records engagement events against projects.
type ActivityService struct {
	activityRepo repository.ActivityLogRepository
}

func NewActivityService(activityRepo repository.ActivityLogRepository) *ActivityService {
	return &ActivityService{activityRepo: activityRepo}
}

// emailEventKinds maps the webhook's event names to activity kinds. Events
// outside this map are acknowledged but not persisted.
var emailEventKinds = map[string]model.ActivityKind{
	"opened":  model.ActivityEmailOpened,
	"clicked": model.ActivityEmailClicked,
}

// RecordEmailEvent persists an opened/clicked email event. Returns false
// without error for event types we deliberately ignore.
func (s *ActivityService) RecordEmailEvent(ctx context.Context, event, recipient string, projectID *string) (bool, error) {
	kind, ok := emailEventKinds[event]
	if !ok {
		log.Debug().Str("event", event).Msg("ignoring email event")
		return false, nil
	}

	_, err := s.activityRepo.Create(ctx, model.CreateActivityLogParams{
		ProjectID: projectID,
		Kind:      kind,
		Recipient: recipient,
	})
	if err != nil {
		return false, apperrors.Database(err)
	}

	log.Info().Str("event", event).Str("recipient", recipient).Msg("email event recorded")
	return true, nil
}

// RecordSMS logs an outbound SMS notification against a project.
func (s *ActivityService) RecordSMS(ctx context.Context, projectID, recipient, detail string) error {
	_, err := s.activityRepo.Create(ctx, model.CreateActivityLogParams{
		ProjectID: &projectID,
		Kind:      model.ActivitySMSSent,
		Recipient: recipient,
		Detail:    &detail,
	})
	if err != nil {
		return apperrors.Database(err)
	}
	return nil
}

func (s *ActivityService) ListForProject(ctx context.Context, projectID string, limit, offset int) ([]model.ActivityLog, error) {
	entries, err := s.activityRepo.FindByProjectID(ctx, projectID, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return entries, nil
}
