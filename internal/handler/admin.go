package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/installsync/portal-server-go/internal/audit"
	apperrors "github.com/installsync/portal-server-go/internal/errors"
	"github.com/installsync/portal-server-go/internal/model"
	"github.com/installsync/portal-server-go/internal/service"
	"github.com/installsync/portal-server-go/internal/util"
)

type AdminHandler struct {
	adminService  *service.AdminService
	taskService   *service.TaskService
	authMW        func(http.Handler) http.Handler
	rateLimitMW   func(http.Handler) http.Handler
	uploadHandler *UploadHandler
	portalBaseURL string
}

func NewAdminHandler(
	adminService *service.AdminService,
	taskService *service.TaskService,
	authMW func(http.Handler) http.Handler,
	rateLimitMW func(http.Handler) http.Handler,
	uploadHandler *UploadHandler,
	portalBaseURL string,
) *AdminHandler {
	return &AdminHandler{
		adminService:  adminService,
		taskService:   taskService,
		authMW:        authMW,
		rateLimitMW:   rateLimitMW,
		uploadHandler: uploadHandler,
		portalBaseURL: strings.TrimRight(portalBaseURL, "/"),
	}
}

func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(h.rateLimitMW)
		r.Post("/api/login", h.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.authMW)
		r.Get("/api/stats", h.Stats)

		r.Get("/api/projects", h.ListProjects)
		r.Post("/api/projects", h.CreateProject)
		r.Get("/api/projects/{projectID}", h.GetProject)
		r.Patch("/api/projects/{projectID}", h.UpdateProject)
		r.Post("/api/projects/{projectID}/phases", h.CreatePhase)
		r.Post("/api/projects/{projectID}/equipment", h.AddEquipment)
		r.Get("/api/projects/{projectID}/activity", h.ListProjectActivity)
		r.Post("/api/projects/{projectID}/notify", h.NotifyPM)
		r.Get("/api/projects/{projectID}/messages", h.ListMessages)
		r.Post("/api/projects/{projectID}/messages", h.PostMessage)

		r.Post("/api/phases/{phaseID}/tasks", h.CreateTask)
		r.Patch("/api/tasks/{taskID}", h.UpdateTaskStatus)
		r.Patch("/api/equipment/{equipmentID}", h.UpdateEquipmentStatus)
		r.Patch("/api/equipment/{equipmentID}/photo", h.SetEquipmentPhoto)

		r.Get("/api/drivers", h.ListDrivers)
		r.Post("/api/drivers", h.CreateDriver)
		r.Patch("/api/drivers/{driverID}", h.UpdateDriver)

		r.Get("/api/property-managers", h.ListPropertyManagers)
		r.Post("/api/property-managers", h.CreatePropertyManager)

		r.Post("/api/uploads", h.uploadHandler.Upload)
	})

	return r
}

// uuidParam extracts a path id, rejecting malformed values before any lookup.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := chi.URLParam(r, name)
	if !util.IsValidUUID(id) {
		writeError(w, apperrors.ValidationError("Invalid "+name+" format"))
		return "", false
	}
	return id, true
}

// Login exchanges the admin password for a signed admin token. A wrong
// password and an unknown one are the same generic 401.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.adminService.Configured() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "Admin not configured",
		})
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid JSON body"))
		return
	}
	if req.Password == "" {
		writeError(w, apperrors.MissingRequired("password"))
		return
	}

	token, expiresAt, err := h.adminService.Login(req.Password)
	if err != nil {
		log.Error().Err(err).Msg("admin login failed")
		writeError(w, apperrors.Internal("Login failed"))
		return
	}
	if token == "" {
		audit.LogFromRequest(r, audit.Event{
			Type:    audit.EventLoginFailure,
			Details: map[string]interface{}{"surface": "admin"},
		})
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error": "Invalid credentials",
		})
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventLoginSuccess,
		Details: map[string]interface{}{"surface": "admin"},
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"token":     token,
		"expiresAt": expiresAt.Format(time.RFC3339),
	})
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.GetStats(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to get stats")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	page := ParsePagination(r)

	projects, err := h.adminService.ListProjects(r.Context(), page.Limit, page.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"projects": projects,
		"total":    len(projects),
	})
}

func (h *AdminHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PMID          string     `json:"pmId"`
		PropertyName  string     `json:"propertyName"`
		Address       string     `json:"address"`
		ScheduledDate *time.Time `json:"scheduledDate"`
		TargetDate    *time.Time `json:"targetDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid JSON body"))
		return
	}
	if req.PMID == "" || req.PropertyName == "" {
		writeError(w, apperrors.MissingRequired("pmId and propertyName"))
		return
	}

	project, err := h.adminService.CreateProject(r.Context(), model.CreateProjectParams{
		PMID:          req.PMID,
		PropertyName:  req.PropertyName,
		Address:       req.Address,
		Status:        model.ProjectStatusScheduled,
		ScheduledDate: req.ScheduledDate,
		TargetDate:    req.TargetDate,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"project": project})
}

func (h *AdminHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := uuidParam(w, r, "projectID")
	if !ok {
		return
	}

	detail, err := h.adminService.GetProjectDetail(r.Context(), projectID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"project": detail})
}

func (h *AdminHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := uuidParam(w, r, "projectID")
	if !ok {
		return
	}

	var req struct {
		PropertyName  *string    `json:"propertyName"`
		Address       *string    `json:"address"`
		Status        *string    `json:"status"`
		ScheduledDate *time.Time `json:"scheduledDate"`
		TargetDate    *time.Time `json:"targetDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid JSON body"))
		return
	}

	params := model.UpdateProjectParams{
		PropertyName:  req.PropertyName,
		Address:       req.Address,
		ScheduledDate: req.ScheduledDate,
		TargetDate:    req.TargetDate,
	}
	if req.Status != nil {
		if !util.IsValidEnum(*req.Status, model.ValidProjectStatuses) {
			writeError(w, apperrors.InvalidInput("status", "unknown project status"))
			return
		}
		status := model.ProjectStatus(*req.Status)
		params.Status = &status
	}

	project, err := h.adminService.UpdateProject(r.Context(), projectID, params)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"project": project})
}

func (h *AdminHandler) CreatePhase(w http.ResponseWriter, r *http.Request) {
	projectID, ok := uuidParam(w, r, "projectID")
	if !ok {
		return
	}

	var req struct {
		Name      string `json:"name"`
		SortOrder int    `json:"sortOrder"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid JSON body"))
		return
	}
	if req.Name == "" {
		writeError(w, apperrors.MissingRequired("name"))
		return
	}

	phase, err := h.adminService.CreatePhase(r.Context(), model.CreatePhaseParams{
		ProjectID: projectID,
		Name:      req.Name,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"phase": phase})
}

func (h *AdminHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	phaseID, ok := uuidParam(w, r, "phaseID")
	if !ok {
		return
	}

	var req struct {
		Name             string  `json:"name"`
		AssignedDriverID *string `json:"assignedDriverId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid JSON body"))
		return
	}
	if req.Name == "" {
		writeError(w, apperrors.MissingRequired("name"))
		return
	}

	task, err := h.taskService.Create(r.Context(), model.CreateTaskParams{
		PhaseID:          phaseID,
		Name:             req.Name,
		AssignedDriverID: req.AssignedDriverID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"task": task})
}

func (h *AdminHandler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID, ok := uuidParam(w, r, "taskID")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid JSON body"))
		return
	}
	if req.Status == "" || !util.IsValidEnum(req.Status, model.ValidTaskStatuses) {
		writeError(w, apperrors.InvalidInput("status", "must be one of pending, in_progress, complete"))
		return
	}

	task, err := h.taskService.UpdateStatus(r.Context(), taskID, model.TaskStatus(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"task": task})
}

func (h *AdminHandler) AddEquipment(w http.ResponseWriter, r *http.Request) {
	projectID, ok := uuidParam(w, r, "projectID")
	if !ok {
		return
	}

	var req struct {
		Name         string  `json:"name"`
		ModelNumber  *string `json:"modelNumber"`
		SerialNumber *string `json:"serialNumber"`
		Status       string  `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid JSON body"))
		return
	}
	if req.Name == "" {
		writeError(w, apperrors.MissingRequired("name"))
		return
	}
	if req.Status == "" {
		req.Status = "pending"
	}

	eq, err := h.adminService.AddEquipment(r.Context(), model.CreateEquipmentParams{
		ProjectID:    projectID,
		Name:         req.Name,
		ModelNumber:  req.ModelNumber,
		SerialNumber: req.SerialNumber,
		Status:       req.Status,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"equipment": eq})
}

func (h *AdminHandler) UpdateEquipmentStatus(w http.ResponseWriter, r *http.Request) {
	equipmentID, ok := uuidParam(w, r, "equipmentID")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid JSON body"))
		return
	}
	if req.Status == "" {
		writeError(w, apperrors.MissingRequired("status"))
		return
	}

	eq, err := h.adminService.UpdateEquipmentStatus(r.Context(), equipmentID, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"equipment": eq})
}

func (h *AdminHandler) SetEquipmentPhoto(w http.ResponseWriter, r *http.Request) {
	equipmentID, ok := uuidParam(w, r, "equipmentID")
	if !ok {
		return
	}

	var req struct {
		PhotoURL string `json:"photoUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid JSON body"))
		return
	}
	if req.PhotoURL == "" {
		writeError(w, apperrors.MissingRequired("photoUrl"))
		return
	}

	eq, err := h.adminService.SetEquipmentPhoto(r.Context(), equipmentID, req.PhotoURL)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"equipment": eq})
}

func (h *AdminHandler) ListProjectActivity(w http.ResponseWriter, r *http.Request) {
	projectID, ok := uuidParam(w, r, "projectID")
	if !ok {
		return
	}
	page := ParsePagination(r)

	entries, err := h.adminService.ListProjectActivity(r.Context(), projectID, page.Limit, page.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"activity": entries,
		"total":    len(entries),
	})
}

func (h *AdminHandler) NotifyPM(w http.ResponseWriter, r *http.Request) {
	projectID, ok := uuidParam(w, r, "projectID")
	if !ok {
		return
	}

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

	if err := h.adminService.NotifyPM(r.Context(), projectID, req.Body); err != nil {
		log.Error().Err(err).Str("projectId", projectID).Msg("failed to notify property manager")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AdminHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	projectID, ok := uuidParam(w, r, "projectID")
	if !ok {
		return
	}
	page := ParsePagination(r)

	messages, err := h.adminService.ListProjectMessages(r.Context(), projectID, page.Limit, page.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"messages": messages,
		"total":    len(messages),
	})
}

func (h *AdminHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	projectID, ok := uuidParam(w, r, "projectID")
	if !ok {
		return
	}

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

	msg, err := h.adminService.PostAdminMessage(r.Context(), projectID, req.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"message": msg})
}

func (h *AdminHandler) ListDrivers(w http.ResponseWriter, r *http.Request) {
	page := ParsePagination(r)

	drivers, err := h.adminService.ListDrivers(r.Context(), page.Limit, page.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"drivers": drivers,
		"total":   len(drivers),
	})
}

func (h *AdminHandler) CreateDriver(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string  `json:"name"`
		Email string  `json:"email"`
		Phone *string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid JSON body"))
		return
	}
	if req.Name == "" || req.Email == "" {
		writeError(w, apperrors.MissingRequired("name and email"))
		return
	}

	driver, accessCode, err := h.adminService.CreateDriver(r.Context(), req.Name, req.Email, req.Phone)
	if err != nil {
		writeError(w, err)
		return
	}

	// The access code is shown once at creation and never again.
	writeJSON(w, http.StatusCreated, map[string]any{
		"driver":     driver,
		"accessCode": accessCode,
	})
}

func (h *AdminHandler) UpdateDriver(w http.ResponseWriter, r *http.Request) {
	driverID, ok := uuidParam(w, r, "driverID")
	if !ok {
		return
	}

	var req struct {
		Name     *string `json:"name"`
		Email    *string `json:"email"`
		Phone    *string `json:"phone"`
		IsActive *bool   `json:"isActive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid JSON body"))
		return
	}

	driver, err := h.adminService.UpdateDriver(r.Context(), driverID, model.UpdateDriverParams{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		IsActive: req.IsActive,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"driver": driver})
}

func (h *AdminHandler) ListPropertyManagers(w http.ResponseWriter, r *http.Request) {
	page := ParsePagination(r)

	pms, err := h.adminService.ListPropertyManagers(r.Context(), page.Limit, page.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"propertyManagers": pms,
		"total":            len(pms),
	})
}

func (h *AdminHandler) CreatePropertyManager(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string  `json:"name"`
		Email string  `json:"email"`
		Phone *string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid JSON body"))
		return
	}
	if req.Name == "" || req.Email == "" {
		writeError(w, apperrors.MissingRequired("name and email"))
		return
	}

	pm, portalToken, err := h.adminService.CreatePropertyManager(r.Context(), req.Name, req.Email, req.Phone)
	if err != nil {
		writeError(w, err)
		return
	}

	// The portal token is shown once at creation and never again.
	resp := map[string]any{
		"propertyManager": pm,
		"portalToken":     portalToken,
	}
	if h.portalBaseURL != "" {
		resp["portalUrl"] = h.portalBaseURL + "/portal/" + portalToken
	}
	writeJSON(w, http.StatusCreated, resp)
}
