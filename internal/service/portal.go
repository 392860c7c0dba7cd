package service

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/installsync/portal-server-go/internal/errors"
	"github.com/installsync/portal-server-go/internal/model"
	"github.com/installsync/portal-server-go/internal/repository"
)

// PortalService backs the property-manager surface. Every PM route funnels
// through ResolveToken: the opaque path token is the whole credential, and
// the rows reachable from it are the whole authorization scope.
type PortalService struct {
	pmRepo        repository.PropertyManagerRepository
	projectRepo   repository.ProjectRepository
	taskRepo      repository.TaskRepository
	equipmentRepo repository.EquipmentRepository
	messageRepo   repository.MessageRepository
}

func NewPortalService(
	pmRepo repository.PropertyManagerRepository,
	projectRepo repository.ProjectRepository,
	taskRepo repository.TaskRepository,
	equipmentRepo repository.EquipmentRepository,
	messageRepo repository.MessageRepository,
) *PortalService {
	return &PortalService{
		pmRepo:        pmRepo,
		projectRepo:   projectRepo,
		taskRepo:      taskRepo,
		equipmentRepo: equipmentRepo,
		messageRepo:   messageRepo,
	}
}

// PhaseView is a phase with its tasks and derived progress.
type PhaseView struct {
	model.Phase
	Tasks    []model.Task `json:"tasks"`
	Progress int          `json:"progress"`
}

// ProjectView is a project aggregate with derived fields. Progress and task
// counts are computed on read and never persisted.
type ProjectView struct {
	model.Project
	Phases         []PhaseView       `json:"phases"`
	Equipment      []model.Equipment `json:"equipment"`
	Progress       int               `json:"progress"`
	RemainingTasks int               `json:"remainingTasks"`
	DaysToTarget   *int              `json:"daysToTarget,omitempty"`
}

// PortalView is the full aggregate the PM portal page renders.
type PortalView struct {
	Manager  PortalManager `json:"manager"`
	Projects []ProjectView `json:"projects"`
}

// PortalManager is the minimal PM display shape. The portal token itself is
// never echoed back.
type PortalManager struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ResolveToken maps an opaque portal token to its property manager. A nil
// result is not an error: the handler maps it to 404, since a wrong token is
// indistinguishable from a portal that does not exist.
func (s *PortalService) ResolveToken(ctx context.Context, token string) (*model.PropertyManager, error) {
	if token == "" {
		return nil, nil
	}
	pm, err := s.pmRepo.FindByPortalToken(ctx, token)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return pm, nil
}

// GetPortalView resolves the token and builds the project aggregate.
func (s *PortalService) GetPortalView(ctx context.Context, token string) (*PortalView, error) {
	pm, err := s.ResolveToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if pm == nil {
		return nil, nil
	}

	projects, err := s.projectRepo.FindByPMID(ctx, pm.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	// A token reaching zero projects is indistinguishable from an unknown one.
	if len(projects) == 0 {
		return nil, nil
	}

	views := make([]ProjectView, 0, len(projects))
	for _, project := range projects {
		view, err := s.buildProjectView(ctx, project)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}

	log.Debug().Str("pmId", pm.ID).Int("projects", len(views)).Msg("portal view assembled")

	return &PortalView{
		Manager:  PortalManager{Name: pm.Name, Email: pm.Email},
		Projects: views,
	}, nil
}

func (s *PortalService) buildProjectView(ctx context.Context, project model.Project) (*ProjectView, error) {
	phases, err := s.projectRepo.FindPhases(ctx, project.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	phaseViews := make([]PhaseView, 0, len(phases))
	total := 0
	completed := 0
	for _, phase := range phases {
		tasks, err := s.taskRepo.FindByPhaseID(ctx, phase.ID)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		phaseViews = append(phaseViews, PhaseView{
			Phase:    phase,
			Tasks:    tasks,
			Progress: progressPercent(tasks),
		})
		for _, task := range tasks {
			total++
			if task.Status == model.TaskStatusComplete {
				completed++
			}
		}
	}

	equipment, err := s.equipmentRepo.FindByProjectID(ctx, project.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	view := &ProjectView{
		Project:        project,
		Phases:         phaseViews,
		Equipment:      equipment,
		Progress:       percent(completed, total),
		RemainingTasks: total - completed,
		DaysToTarget:   daysUntil(project.TargetDate),
	}
	return view, nil
}

// GetMessages returns the polled message board for a project owned by the
// token's PM. The project id from the URL is re-checked against the PM scope.
func (s *PortalService) GetMessages(ctx context.Context, token, projectID string, limit, offset int) ([]model.Message, error) {
	project, err := s.projectForToken(ctx, token, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, nil
	}

	messages, err := s.messageRepo.FindByProjectID(ctx, projectID, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return messages, nil
}

// PostMessage appends a PM message to a project's board. The sender is
// always derived from the token, never from the request body.
func (s *PortalService) PostMessage(ctx context.Context, token, projectID, body string) (*model.Message, error) {
	project, err := s.projectForToken(ctx, token, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, nil
	}

	msg, err := s.messageRepo.Create(ctx, model.CreateMessageParams{
		ProjectID: projectID,
		Sender:    model.MessageSenderPM,
		Body:      body,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return msg, nil
}

// projectForToken re-derives ownership from the portal token for any
// project-scoped operation. Returns nil when the token or the project is
// outside scope.
func (s *PortalService) projectForToken(ctx context.Context, token, projectID string) (*model.Project, error) {
	pm, err := s.ResolveToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if pm == nil {
		return nil, nil
	}

	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if project == nil || project.PMID != pm.ID {
		return nil, nil
	}
	return project, nil
}

func progressPercent(tasks []model.Task) int {
	completed := 0
	for _, task := range tasks {
		if task.Status == model.TaskStatusComplete {
			completed++
		}
	}
	return percent(completed, len(tasks))
}

func percent(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

func daysUntil(target *time.Time) *int {
	if target == nil {
		return nil
	}
	days := int(math.Ceil(time.Until(*target).Hours() / 24))
	return &days
}
