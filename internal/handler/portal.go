package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/installsync/portal-server-go/internal/errors"
	"github.com/installsync/portal-server-go/internal/service"
)

// PortalHandler serves the property-manager surface. The opaque path token
// is the whole credential; a token that resolves to nothing is a 404, not an
// auth failure.
type PortalHandler struct {
	portalService *service.PortalService
}

func NewPortalHandler(portalService *service.PortalService) *PortalHandler {
	return &PortalHandler{portalService: portalService}
}

func (h *PortalHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/api/{token}", h.GetPortal)
	r.Get("/api/{token}/projects/{projectID}/messages", h.GetMessages)
	r.Post("/api/{token}/projects/{projectID}/messages", h.PostMessage)

	return r
}

func (h *PortalHandler) GetPortal(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	view, err := h.portalService.GetPortalView(r.Context(), token)
	if err != nil {
		log.Error().Err(err).Msg("failed to build portal view")
		writeError(w, err)
		return
	}
	if view == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Portal not found"})
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (h *PortalHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	projectID := chi.URLParam(r, "projectID")
	page := ParsePagination(r)

	messages, err := h.portalService.GetMessages(r.Context(), token, projectID, page.Limit, page.Offset)
	if err != nil {
		log.Error().Err(err).Msg("failed to get portal messages")
		writeError(w, err)
		return
	}
	if messages == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Portal not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"messages": messages,
		"total":    len(messages),
	})
}

func (h *PortalHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	projectID := chi.URLParam(r, "projectID")

	var req struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid JSON body"))
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		writeError(w, apperrors.MissingRequired("body"))
		return
	}

	msg, err := h.portalService.PostMessage(r.Context(), token, projectID, req.Body)
	if err != nil {
		log.Error().Err(err).Msg("failed to post portal message")
		writeError(w, err)
		return
	}
	if msg == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Portal not found"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"message": msg})
}
