package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/installsync/portal-server-go/internal/audit"
	apperrors "github.com/installsync/portal-server-go/internal/errors"
	"github.com/installsync/portal-server-go/internal/middleware"
	"github.com/installsync/portal-server-go/internal/model"
	"github.com/installsync/portal-server-go/internal/service"
	"github.com/installsync/portal-server-go/internal/util"
)

type DriverHandler struct {
	driverAuth  *service.DriverAuthService
	taskService *service.TaskService
	tempLogs    *service.TempLogService
	sessionMW   func(http.Handler) http.Handler
	rateLimitMW func(http.Handler) http.Handler
}

func NewDriverHandler(
	driverAuth *service.DriverAuthService,
	taskService *service.TaskService,
	tempLogs *service.TempLogService,
	sessionMW func(http.Handler) http.Handler,
	rateLimitMW func(http.Handler) http.Handler,
) *DriverHandler {
	return &DriverHandler{
		driverAuth:  driverAuth,
		taskService: taskService,
		tempLogs:    tempLogs,
		sessionMW:   sessionMW,
		rateLimitMW: rateLimitMW,
	}
}

func (h *DriverHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(h.rateLimitMW)
		r.Post("/api/auth", h.Authenticate)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.sessionMW)
		r.Get("/api/me", h.Me)
		r.Get("/api/tasks", h.ListTasks)
		r.Patch("/api/tasks/{taskID}", h.UpdateTaskStatus)
		r.Post("/api/temp-sessions", h.StartTempSession)
		r.Get("/api/temp-sessions", h.ListTempSessions)
		r.Get("/api/temp-sessions/{sessionID}", h.GetTempSession)
		r.Post("/api/temp-sessions/{sessionID}/readings", h.AddTempReading)
		r.Post("/api/temp-sessions/{sessionID}/close", h.CloseTempSession)
	})

	return r
}

// Authenticate trades an access code for a driver session token. The
// response never includes the raw access token, email, or phone.
func (h *DriverHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid JSON body"))
		return
	}
	if req.AccessToken == "" {
		writeError(w, apperrors.MissingRequired("accessToken"))
		return
	}

	result, err := h.driverAuth.Authenticate(r.Context(), req.AccessToken)
	if err != nil {
		code := apperrors.GetCode(err)
		if code == apperrors.ErrCodeInvalidToken || code == apperrors.ErrCodeAccountInactive {
			audit.LogFromRequest(r, audit.Event{
				Type: audit.EventLoginFailure,
				Details: map[string]interface{}{
					"surface": "driver",
					"code":    util.MaskCode(req.AccessToken),
				},
			})
		}
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventLoginSuccess,
		DriverID: result.DriverID,
		Details:  map[string]interface{}{"surface": "driver"},
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"token":     result.Token,
		"expiresAt": result.ExpiresAt.Format(time.RFC3339),
		"driver": map[string]any{
			"id":   result.DriverID,
			"name": result.Name,
		},
	})
}

func (h *DriverHandler) Me(w http.ResponseWriter, r *http.Request) {
	driver := middleware.GetDriver(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"driver": map[string]any{
			"id":   driver.ID,
			"name": driver.Name,
		},
	})
}

func (h *DriverHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	driver := middleware.GetDriver(r.Context())

	tasks, err := h.taskService.ListForDriver(r.Context(), driver.ID)
	if err != nil {
		log.Error().Err(err).Str("driverId", driver.ID).Msg("failed to list driver tasks")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tasks": tasks,
		"total": len(tasks),
	})
}

func (h *DriverHandler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	driver := middleware.GetDriver(r.Context())
	taskID := chi.URLParam(r, "taskID")

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid JSON body"))
		return
	}
	if !util.IsValidEnum(req.Status, model.ValidTaskStatuses) || req.Status == "" {
		writeError(w, apperrors.InvalidInput("status", "must be one of pending, in_progress, complete"))
		return
	}

	task, err := h.taskService.UpdateStatusForDriver(r.Context(), taskID, driver.ID, model.TaskStatus(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"task": task})
}

func (h *DriverHandler) StartTempSession(w http.ResponseWriter, r *http.Request) {
	driver := middleware.GetDriver(r.Context())

	var req struct {
		EquipmentID string `json:"equipmentId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid JSON body"))
		return
	}
	if req.EquipmentID == "" {
		writeError(w, apperrors.MissingRequired("equipmentId"))
		return
	}

	session, err := h.tempLogs.StartSession(r.Context(), driver.ID, req.EquipmentID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"session": session})
}

func (h *DriverHandler) ListTempSessions(w http.ResponseWriter, r *http.Request) {
	driver := middleware.GetDriver(r.Context())

	sessions, err := h.tempLogs.ListOpenSessions(r.Context(), driver.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"total":    len(sessions),
	})
}

func (h *DriverHandler) GetTempSession(w http.ResponseWriter, r *http.Request) {
	driver := middleware.GetDriver(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.tempLogs.GetSession(r.Context(), driver.ID, sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"session": session})
}

func (h *DriverHandler) AddTempReading(w http.ResponseWriter, r *http.Request) {
	driver := middleware.GetDriver(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	var req struct {
		ReadingC *float64 `json:"readingC"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid JSON body"))
		return
	}
	if req.ReadingC == nil {
		writeError(w, apperrors.MissingRequired("readingC"))
		return
	}

	reading, err := h.tempLogs.AddReading(r.Context(), driver.ID, sessionID, *req.ReadingC)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"reading": reading})
}

func (h *DriverHandler) CloseTempSession(w http.ResponseWriter, r *http.Request) {
	driver := middleware.GetDriver(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.tempLogs.CloseSession(r.Context(), driver.ID, sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session":  session,
		"closedAt": formatTime(session.ClosedAt),
	})
}
