package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/installsync/portal-server-go/internal/model"
)

type mockPMRepo struct {
	pmsByToken map[string]*model.PropertyManager
	pmsByID    map[string]*model.PropertyManager
}

func (m *mockPMRepo) FindByPortalToken(ctx context.Context, token string) (*model.PropertyManager, error) {
	return m.pmsByToken[token], nil
}

func (m *mockPMRepo) FindByID(ctx context.Context, id string) (*model.PropertyManager, error) {
	return m.pmsByID[id], nil
}

func (m *mockPMRepo) FindAll(ctx context.Context, limit, offset int) ([]model.PropertyManager, error) {
	return nil, nil
}

func (m *mockPMRepo) Create(ctx context.Context, params model.CreatePropertyManagerParams) (*model.PropertyManager, error) {
	return nil, nil
}

func (m *mockPMRepo) Count(ctx context.Context) (int, error) {
	return 0, nil
}

type mockProjectRepo struct {
	projectsByID   map[string]*model.Project
	projectsByPMID map[string][]model.Project
	phases         map[string][]model.Phase
}

func (m *mockProjectRepo) FindByID(ctx context.Context, id string) (*model.Project, error) {
	return m.projectsByID[id], nil
}

func (m *mockProjectRepo) FindByPMID(ctx context.Context, pmID string) ([]model.Project, error) {
	return m.projectsByPMID[pmID], nil
}

func (m *mockProjectRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Project, error) {
	return nil, nil
}

func (m *mockProjectRepo) Create(ctx context.Context, params model.CreateProjectParams) (*model.Project, error) {
	return nil, nil
}

func (m *mockProjectRepo) Update(ctx context.Context, id string, params model.UpdateProjectParams) (*model.Project, error) {
	return nil, nil
}

func (m *mockProjectRepo) CountByStatus(ctx context.Context, status model.ProjectStatus) (int, error) {
	return 0, nil
}

func (m *mockProjectRepo) Count(ctx context.Context) (int, error) {
	return 0, nil
}

func (m *mockProjectRepo) FindPhases(ctx context.Context, projectID string) ([]model.Phase, error) {
	return m.phases[projectID], nil
}

func (m *mockProjectRepo) CreatePhase(ctx context.Context, params model.CreatePhaseParams) (*model.Phase, error) {
	return nil, nil
}

type mockTaskRepo struct {
	tasksByPhase map[string][]model.Task
}

func (m *mockTaskRepo) FindByID(ctx context.Context, id string) (*model.Task, error) {
	return nil, nil
}

func (m *mockTaskRepo) FindByPhaseID(ctx context.Context, phaseID string) ([]model.Task, error) {
	return m.tasksByPhase[phaseID], nil
}

func (m *mockTaskRepo) FindByProjectID(ctx context.Context, projectID string) ([]model.Task, error) {
	return nil, nil
}

func (m *mockTaskRepo) FindAssignedToDriver(ctx context.Context, driverID string) ([]model.DriverTask, error) {
	return nil, nil
}

func (m *mockTaskRepo) Create(ctx context.Context, params model.CreateTaskParams) (*model.Task, error) {
	return nil, nil
}

func (m *mockTaskRepo) UpdateStatus(ctx context.Context, id string, status model.TaskStatus) (*model.Task, error) {
	return nil, nil
}

func (m *mockTaskRepo) UpdateStatusForDriver(ctx context.Context, id, driverID string, status model.TaskStatus) (*model.Task, error) {
	return nil, nil
}

func (m *mockTaskRepo) CountCompletedSince(ctx context.Context, since time.Time) (int, error) {
	return 0, nil
}

func (m *mockTaskRepo) CountByStatus(ctx context.Context, status model.TaskStatus) (int, error) {
	return 0, nil
}

type mockEquipmentRepo struct {
	byProject map[string][]model.Equipment
}

func (m *mockEquipmentRepo) FindByID(ctx context.Context, id string) (*model.Equipment, error) {
	return nil, nil
}

func (m *mockEquipmentRepo) FindByProjectID(ctx context.Context, projectID string) ([]model.Equipment, error) {
	return m.byProject[projectID], nil
}

func (m *mockEquipmentRepo) Create(ctx context.Context, params model.CreateEquipmentParams) (*model.Equipment, error) {
	return nil, nil
}

func (m *mockEquipmentRepo) UpdateStatus(ctx context.Context, id, status string) (*model.Equipment, error) {
	return nil, nil
}

func (m *mockEquipmentRepo) UpdatePhotoURL(ctx context.Context, id, photoURL string) (*model.Equipment, error) {
	return nil, nil
}

type mockMessageRepo struct {
	byProject map[string][]model.Message
	created   []model.CreateMessageParams
}

func (m *mockMessageRepo) Create(ctx context.Context, params model.CreateMessageParams) (*model.Message, error) {
	m.created = append(m.created, params)
	return &model.Message{
		ID:        "msg-1",
		ProjectID: params.ProjectID,
		Sender:    params.Sender,
		Body:      params.Body,
	}, nil
}

func (m *mockMessageRepo) FindByProjectID(ctx context.Context, projectID string, limit, offset int) ([]model.Message, error) {
	return m.byProject[projectID], nil
}

func newPortalFixture() (*PortalService, *mockMessageRepo) {
	pm := &model.PropertyManager{ID: "pm-1", Name: "Morgan PM", Email: "morgan@example.com"}
	project := &model.Project{ID: "proj-1", PMID: "pm-1", PropertyName: "Northside Plaza"}

	idlePM := &model.PropertyManager{ID: "pm-2", Name: "Casey PM", Email: "casey@example.com"}

	pmRepo := &mockPMRepo{
		pmsByToken: map[string]*model.PropertyManager{
			"valid-token": pm,
			"idle-token":  idlePM,
		},
		pmsByID: map[string]*model.PropertyManager{"pm-1": pm, "pm-2": idlePM},
	}
	projectRepo := &mockProjectRepo{
		projectsByID:   map[string]*model.Project{"proj-1": project},
		projectsByPMID: map[string][]model.Project{"pm-1": {*project}},
		phases: map[string][]model.Phase{
			"proj-1": {
				{ID: "phase-1", ProjectID: "proj-1", Name: "Delivery"},
				{ID: "phase-2", ProjectID: "proj-1", Name: "Install"},
			},
		},
	}
	taskRepo := &mockTaskRepo{
		tasksByPhase: map[string][]model.Task{
			"phase-1": {
				{ID: "t1", Status: model.TaskStatusComplete},
				{ID: "t2", Status: model.TaskStatusComplete},
			},
			"phase-2": {
				{ID: "t3", Status: model.TaskStatusPending},
			},
		},
	}
	equipmentRepo := &mockEquipmentRepo{}
	messageRepo := &mockMessageRepo{
		byProject: map[string][]model.Message{
			"proj-1": {{ID: "m1", ProjectID: "proj-1", Sender: model.MessageSenderAdmin, Body: "hello"}},
		},
	}

	return NewPortalService(pmRepo, projectRepo, taskRepo, equipmentRepo, messageRepo), messageRepo
}

func TestResolveToken(t *testing.T) {
	svc, _ := newPortalFixture()

	t.Run("empty token resolves to nothing", func(t *testing.T) {
		pm, err := svc.ResolveToken(context.Background(), "")
		assert.NoError(t, err)
		assert.Nil(t, pm)
	})

	t.Run("unknown token resolves to nothing", func(t *testing.T) {
		pm, err := svc.ResolveToken(context.Background(), "wrong-token")
		assert.NoError(t, err)
		assert.Nil(t, pm)
	})

	t.Run("valid token resolves to its manager", func(t *testing.T) {
		pm, err := svc.ResolveToken(context.Background(), "valid-token")
		require.NoError(t, err)
		assert.Equal(t, "pm-1", pm.ID)
	})
}

func TestGetPortalView(t *testing.T) {
	svc, _ := newPortalFixture()

	t.Run("unknown token yields nil view", func(t *testing.T) {
		view, err := svc.GetPortalView(context.Background(), "wrong-token")
		assert.NoError(t, err)
		assert.Nil(t, view)
	})

	t.Run("token reaching zero projects yields nil view", func(t *testing.T) {
		view, err := svc.GetPortalView(context.Background(), "idle-token")
		assert.NoError(t, err)
		assert.Nil(t, view)
	})

	t.Run("aggregates phases with derived progress", func(t *testing.T) {
		view, err := svc.GetPortalView(context.Background(), "valid-token")
		require.NoError(t, err)
		require.NotNil(t, view)

		assert.Equal(t, "Morgan PM", view.Manager.Name)
		require.Len(t, view.Projects, 1)

		project := view.Projects[0]
		require.Len(t, project.Phases, 2)
		assert.Equal(t, 100, project.Phases[0].Progress)
		assert.Equal(t, 0, project.Phases[1].Progress)
		assert.Equal(t, 67, project.Progress)
		assert.Equal(t, 1, project.RemainingTasks)
	})
}

func TestPortalMessages(t *testing.T) {
	t.Run("scoped project returns messages", func(t *testing.T) {
		svc, _ := newPortalFixture()
		messages, err := svc.GetMessages(context.Background(), "valid-token", "proj-1", 50, 0)
		require.NoError(t, err)
		require.Len(t, messages, 1)
		assert.Equal(t, "hello", messages[0].Body)
	})

	t.Run("project outside the token scope yields nil", func(t *testing.T) {
		svc, _ := newPortalFixture()
		messages, err := svc.GetMessages(context.Background(), "valid-token", "proj-other", 50, 0)
		assert.NoError(t, err)
		assert.Nil(t, messages)
	})

	t.Run("post derives sender from the token", func(t *testing.T) {
		svc, messageRepo := newPortalFixture()
		msg, err := svc.PostMessage(context.Background(), "valid-token", "proj-1", "on our way")
		require.NoError(t, err)
		require.NotNil(t, msg)

		require.Len(t, messageRepo.created, 1)
		assert.Equal(t, model.MessageSenderPM, messageRepo.created[0].Sender)
	})

	t.Run("post with unknown token yields nil", func(t *testing.T) {
		svc, messageRepo := newPortalFixture()
		msg, err := svc.PostMessage(context.Background(), "wrong-token", "proj-1", "hi")
		assert.NoError(t, err)
		assert.Nil(t, msg)
		assert.Empty(t, messageRepo.created)
	})
}

func TestDerivedFields(t *testing.T) {
	t.Run("percent rounds half up", func(t *testing.T) {
		assert.Equal(t, 0, percent(0, 0))
		assert.Equal(t, 0, percent(0, 3))
		assert.Equal(t, 33, percent(1, 3))
		assert.Equal(t, 67, percent(2, 3))
		assert.Equal(t, 50, percent(1, 2))
		assert.Equal(t, 100, percent(3, 3))
	})

	t.Run("daysUntil is nil without a target", func(t *testing.T) {
		assert.Nil(t, daysUntil(nil))
	})

	t.Run("daysUntil counts forward", func(t *testing.T) {
		target := time.Now().Add(71 * time.Hour)
		days := daysUntil(&target)
		require.NotNil(t, days)
		assert.Equal(t, 3, *days)
	})

	t.Run("daysUntil goes negative past the target", func(t *testing.T) {
		target := time.Now().Add(-49 * time.Hour)
		days := daysUntil(&target)
		require.NotNil(t, days)
		assert.Equal(t, -2, *days)
	})
}
