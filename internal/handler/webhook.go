package handler

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/installsync/portal-server-go/internal/middleware"
	"github.com/installsync/portal-server-go/internal/service"
)

// WebhookHandler persists engagement events from the inbound email webhook.
// Signature verification has already happened in middleware; by the time we
// run, the payload is authentic (or verification was deliberately bypassed).
type WebhookHandler struct {
	activity *service.ActivityService
}

func NewWebhookHandler(activity *service.ActivityService) *WebhookHandler {
	return &WebhookHandler{activity: activity}
}

func (h *WebhookHandler) EmailEvent(w http.ResponseWriter, r *http.Request) {
	event := middleware.GetWebhookEvent(r.Context())
	if event == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing event payload"})
		return
	}

	var projectID *string
	if id := event.EventData.UserVariables.ProjectID; id != "" {
		projectID = &id
	}

	recorded, err := h.activity.RecordEmailEvent(r.Context(), event.EventData.Event, event.EventData.Recipient, projectID)
	if err != nil {
		log.Error().Err(err).Str("event", event.EventData.Event).Msg("failed to record email event")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"recorded": recorded,
	})
}
