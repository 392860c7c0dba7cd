package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/installsync/portal-server-go/internal/auth"
	apperrors "github.com/installsync/portal-server-go/internal/errors"
	"github.com/installsync/portal-server-go/internal/model"
	"github.com/installsync/portal-server-go/internal/repository"
	"github.com/installsync/portal-server-go/internal/util"
)

// AdminService backs the internal admin surface: login, dashboard stats,
// project/driver administration and PM notification.
type AdminService struct {
	tokens            *auth.TokenManager
	driverRepo        repository.DriverRepository
	pmRepo            repository.PropertyManagerRepository
	projectRepo       repository.ProjectRepository
	taskRepo          repository.TaskRepository
	equipmentRepo     repository.EquipmentRepository
	messageRepo       repository.MessageRepository
	activityRepo      repository.ActivityLogRepository
	crm               *CRMService
	activity          *ActivityService
	adminPasswordHash string
}

func NewAdminService(
	tokens *auth.TokenManager,
	driverRepo repository.DriverRepository,
	pmRepo repository.PropertyManagerRepository,
	projectRepo repository.ProjectRepository,
	taskRepo repository.TaskRepository,
	equipmentRepo repository.EquipmentRepository,
	messageRepo repository.MessageRepository,
	activityRepo repository.ActivityLogRepository,
	crm *CRMService,
	activity *ActivityService,
	adminPasswordHash string,
) *AdminService {
	return &AdminService{
		tokens:            tokens,
		driverRepo:        driverRepo,
		pmRepo:            pmRepo,
		projectRepo:       projectRepo,
		taskRepo:          taskRepo,
		equipmentRepo:     equipmentRepo,
		messageRepo:       messageRepo,
		activityRepo:      activityRepo,
		crm:               crm,
		activity:          activity,
		adminPasswordHash: adminPasswordHash,
	}
}

// Configured reports whether an admin password hash is provisioned.
func (s *AdminService) Configured() bool {
	return s.adminPasswordHash != ""
}

// Login exchanges the admin password for a signed admin token. Returns an
// empty token on a wrong password; the handler folds that into a generic 401.
func (s *AdminService) Login(password string) (string, time.Time, error) {
	if !util.CheckPasswordHash(password, s.adminPasswordHash) {
		return "", time.Time{}, nil
	}
	return s.tokens.MintAdminToken()
}

// Stats is the admin dashboard summary.
type Stats struct {
	Projects struct {
		Total      int `json:"total"`
		Scheduled  int `json:"scheduled"`
		InProgress int `json:"inProgress"`
		Complete   int `json:"complete"`
	} `json:"projects"`
	Tasks struct {
		Pending           int `json:"pending"`
		CompletedThisWeek int `json:"completedThisWeek"`
	} `json:"tasks"`
	Drivers          int `json:"drivers"`
	PropertyManagers int `json:"propertyManagers"`
	ActivityLastWeek int `json:"activityLastWeek"`
}

func (s *AdminService) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	weekAgo := time.Now().AddDate(0, 0, -7)

	var err error
	if stats.Projects.Total, err = s.projectRepo.Count(ctx); err != nil {
		return nil, apperrors.Database(err)
	}
	stats.Projects.Scheduled, _ = s.projectRepo.CountByStatus(ctx, model.ProjectStatusScheduled)
	stats.Projects.InProgress, _ = s.projectRepo.CountByStatus(ctx, model.ProjectStatusInProgress)
	stats.Projects.Complete, _ = s.projectRepo.CountByStatus(ctx, model.ProjectStatusComplete)
	stats.Tasks.Pending, _ = s.taskRepo.CountByStatus(ctx, model.TaskStatusPending)
	stats.Tasks.CompletedThisWeek, _ = s.taskRepo.CountCompletedSince(ctx, weekAgo)
	stats.Drivers, _ = s.driverRepo.Count(ctx)
	stats.PropertyManagers, _ = s.pmRepo.Count(ctx)
	stats.ActivityLastWeek, _ = s.activityRepo.CountSince(ctx, weekAgo)

	return stats, nil
}

// CreatePropertyManager provisions a PM with a fresh portal token. The token
// is returned once here; it is never readable again through the API.
func (s *AdminService) CreatePropertyManager(ctx context.Context, name, email string, phone *string) (*model.PropertyManager, string, error) {
	token, err := util.GenerateToken()
	if err != nil {
		return nil, "", apperrors.Internal("Failed to generate portal token").WithCause(err)
	}

	pm, err := s.pmRepo.Create(ctx, model.CreatePropertyManagerParams{
		Name:        name,
		Email:       email,
		Phone:       phone,
		PortalToken: token,
	})
	if err != nil {
		return nil, "", apperrors.Database(err)
	}

	log.Info().Str("pmId", pm.ID).Msg("property manager created")
	return pm, token, nil
}

// CreateDriver provisions a driver with a fresh access code.
func (s *AdminService) CreateDriver(ctx context.Context, name, email string, phone *string) (*model.Driver, string, error) {
	code, err := util.GenerateToken()
	if err != nil {
		return nil, "", apperrors.Internal("Failed to generate access code").WithCause(err)
	}

	driver, err := s.driverRepo.Create(ctx, model.CreateDriverParams{
		Name:        name,
		Email:       email,
		Phone:       phone,
		AccessToken: code,
	})
	if err != nil {
		return nil, "", apperrors.Database(err)
	}

	log.Info().Str("driverId", driver.ID).Msg("driver created")
	return driver, code, nil
}

// NotifyPM upserts the project's PM as a CRM contact and sends an SMS, then
// records the send in the activity log.
func (s *AdminService) NotifyPM(ctx context.Context, projectID, body string) error {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return apperrors.Database(err)
	}
	if project == nil {
		return apperrors.NotFound("Project")
	}

	pm, err := s.pmRepo.FindByID(ctx, project.PMID)
	if err != nil {
		return apperrors.Database(err)
	}
	if pm == nil {
		return apperrors.NotFound("Property manager")
	}

	phone := ""
	if pm.Phone != nil {
		phone = *pm.Phone
	}

	contact, err := s.crm.UpsertContact(ctx, pm.Name, pm.Email, phone)
	if err != nil {
		return err
	}

	if err := s.crm.SendSMS(ctx, contact.ID, body); err != nil {
		return err
	}

	if err := s.activity.RecordSMS(ctx, projectID, pm.Email, body); err != nil {
		// The SMS went out; a failed activity row should not fail the request.
		log.Error().Err(err).Str("projectId", projectID).Msg("failed to record sms activity")
	}

	return nil
}

// ListProjects returns a page of projects for the admin dashboard.
func (s *AdminService) ListProjects(ctx context.Context, limit, offset int) ([]model.Project, error) {
	projects, err := s.projectRepo.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return projects, nil
}

func (s *AdminService) CreateProject(ctx context.Context, params model.CreateProjectParams) (*model.Project, error) {
	pm, err := s.pmRepo.FindByID(ctx, params.PMID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if pm == nil {
		return nil, apperrors.NotFound("Property manager")
	}

	project, err := s.projectRepo.Create(ctx, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return project, nil
}

// ProjectDetail is the admin view of a single project: phases with their
// tasks, plus the project's equipment.
type ProjectDetail struct {
	model.Project
	Phases    []ProjectDetailPhase `json:"phases"`
	Equipment []model.Equipment    `json:"equipment"`
}

type ProjectDetailPhase struct {
	model.Phase
	Tasks []model.Task `json:"tasks"`
}

func (s *AdminService) GetProjectDetail(ctx context.Context, id string) (*ProjectDetail, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if project == nil {
		return nil, apperrors.NotFound("Project")
	}

	phases, err := s.projectRepo.FindPhases(ctx, id)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	tasks, err := s.taskRepo.FindByProjectID(ctx, id)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	equipment, err := s.equipmentRepo.FindByProjectID(ctx, id)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	tasksByPhase := make(map[string][]model.Task)
	for _, task := range tasks {
		tasksByPhase[task.PhaseID] = append(tasksByPhase[task.PhaseID], task)
	}

	detail := &ProjectDetail{
		Project:   *project,
		Phases:    make([]ProjectDetailPhase, 0, len(phases)),
		Equipment: equipment,
	}
	for _, phase := range phases {
		detail.Phases = append(detail.Phases, ProjectDetailPhase{
			Phase: phase,
			Tasks: tasksByPhase[phase.ID],
		})
	}

	return detail, nil
}

func (s *AdminService) UpdateProject(ctx context.Context, id string, params model.UpdateProjectParams) (*model.Project, error) {
	project, err := s.projectRepo.Update(ctx, id, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if project == nil {
		return nil, apperrors.NotFound("Project")
	}
	return project, nil
}

func (s *AdminService) CreatePhase(ctx context.Context, params model.CreatePhaseParams) (*model.Phase, error) {
	project, err := s.projectRepo.FindByID(ctx, params.ProjectID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if project == nil {
		return nil, apperrors.NotFound("Project")
	}

	phase, err := s.projectRepo.CreatePhase(ctx, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return phase, nil
}

func (s *AdminService) AddEquipment(ctx context.Context, params model.CreateEquipmentParams) (*model.Equipment, error) {
	project, err := s.projectRepo.FindByID(ctx, params.ProjectID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if project == nil {
		return nil, apperrors.NotFound("Project")
	}

	eq, err := s.equipmentRepo.Create(ctx, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return eq, nil
}

func (s *AdminService) UpdateEquipmentStatus(ctx context.Context, id, status string) (*model.Equipment, error) {
	eq, err := s.equipmentRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if eq == nil {
		return nil, apperrors.NotFound("Equipment")
	}
	return eq, nil
}

func (s *AdminService) SetEquipmentPhoto(ctx context.Context, id, photoURL string) (*model.Equipment, error) {
	eq, err := s.equipmentRepo.UpdatePhotoURL(ctx, id, photoURL)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if eq == nil {
		return nil, apperrors.NotFound("Equipment")
	}
	return eq, nil
}

func (s *AdminService) ListDrivers(ctx context.Context, limit, offset int) ([]model.Driver, error) {
	drivers, err := s.driverRepo.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return drivers, nil
}

func (s *AdminService) UpdateDriver(ctx context.Context, id string, params model.UpdateDriverParams) (*model.Driver, error) {
	driver, err := s.driverRepo.Update(ctx, id, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if driver == nil {
		return nil, apperrors.NotFound("Driver")
	}
	return driver, nil
}

func (s *AdminService) ListPropertyManagers(ctx context.Context, limit, offset int) ([]model.PropertyManager, error) {
	pms, err := s.pmRepo.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return pms, nil
}

// ListProjectActivity returns a page of the project's engagement log.
func (s *AdminService) ListProjectActivity(ctx context.Context, projectID string, limit, offset int) ([]model.ActivityLog, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if project == nil {
		return nil, apperrors.NotFound("Project")
	}
	return s.activity.ListForProject(ctx, projectID, limit, offset)
}

// ListProjectMessages returns a page of a project's message board.
func (s *AdminService) ListProjectMessages(ctx context.Context, projectID string, limit, offset int) ([]model.Message, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if project == nil {
		return nil, apperrors.NotFound("Project")
	}

	messages, err := s.messageRepo.FindByProjectID(ctx, projectID, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return messages, nil
}

// PostAdminMessage appends an admin message to a project's board.
func (s *AdminService) PostAdminMessage(ctx context.Context, projectID, body string) (*model.Message, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if project == nil {
		return nil, apperrors.NotFound("Project")
	}

	msg, err := s.messageRepo.Create(ctx, model.CreateMessageParams{
		ProjectID: projectID,
		Sender:    model.MessageSenderAdmin,
		Body:      body,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return msg, nil
}
