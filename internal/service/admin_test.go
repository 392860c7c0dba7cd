package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/installsync/portal-server-go/internal/auth"
	apperrors "github.com/installsync/portal-server-go/internal/errors"
	"github.com/installsync/portal-server-go/internal/model"
)

type adminTaskRepo struct {
	mockTaskRepo
	tasksByProject map[string][]model.Task
}

func (m *adminTaskRepo) FindByProjectID(ctx context.Context, projectID string) ([]model.Task, error) {
	return m.tasksByProject[projectID], nil
}

type adminEquipmentRepo struct {
	mockEquipmentRepo
	byID          map[string]*model.Equipment
	statusUpdates map[string]string
}

func (m *adminEquipmentRepo) UpdateStatus(ctx context.Context, id, status string) (*model.Equipment, error) {
	eq, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	if m.statusUpdates == nil {
		m.statusUpdates = make(map[string]string)
	}
	m.statusUpdates[id] = status
	updated := *eq
	updated.Status = status
	return &updated, nil
}

type adminPMRepo struct {
	mockPMRepo
	created []model.CreatePropertyManagerParams
}

func (m *adminPMRepo) Create(ctx context.Context, params model.CreatePropertyManagerParams) (*model.PropertyManager, error) {
	m.created = append(m.created, params)
	return &model.PropertyManager{
		ID:    "pm-new",
		Name:  params.Name,
		Email: params.Email,
		Phone: params.Phone,
	}, nil
}

func newAdminFixture(t *testing.T, passwordHash string) (*AdminService, *adminPMRepo, *adminTaskRepo, *adminEquipmentRepo, *mockActivityRepo) {
	t.Helper()

	phone := "+15551234567"
	pmRepo := &adminPMRepo{
		mockPMRepo: mockPMRepo{
			pmsByID: map[string]*model.PropertyManager{
				"pm-1": {ID: "pm-1", Name: "Morgan PM", Email: "pm@example.com", Phone: &phone},
			},
		},
	}
	projectRepo := &mockProjectRepo{
		projectsByID: map[string]*model.Project{
			"proj-1": {ID: "proj-1", PMID: "pm-1", PropertyName: "Northside Plaza"},
		},
		phases: map[string][]model.Phase{
			"proj-1": {
				{ID: "phase-1", ProjectID: "proj-1", Name: "Demolition", SortOrder: 1},
				{ID: "phase-2", ProjectID: "proj-1", Name: "Install", SortOrder: 2},
			},
		},
	}
	taskRepo := &adminTaskRepo{
		tasksByProject: map[string][]model.Task{
			"proj-1": {
				{ID: "task-1", PhaseID: "phase-1", Name: "Remove old units"},
				{ID: "task-2", PhaseID: "phase-1", Name: "Haul away"},
				{ID: "task-3", PhaseID: "phase-2", Name: "Set new units"},
			},
		},
	}
	equipmentRepo := &adminEquipmentRepo{
		mockEquipmentRepo: mockEquipmentRepo{
			byProject: map[string][]model.Equipment{
				"proj-1": {{ID: "eq-1", ProjectID: "proj-1", Name: "RTU-1", Status: "pending"}},
			},
		},
		byID: map[string]*model.Equipment{
			"eq-1": {ID: "eq-1", ProjectID: "proj-1", Name: "RTU-1", Status: "pending"},
		},
	}
	activityRepo := &mockActivityRepo{}

	tokens := auth.NewTokenManager("test-secret-for-admin-service-tests", time.Hour, time.Hour)
	svc := NewAdminService(
		tokens,
		&mockDriverRepo{},
		pmRepo,
		projectRepo,
		taskRepo,
		equipmentRepo,
		&mockMessageRepo{},
		activityRepo,
		NewCRMService("http://localhost:1", "", ""),
		NewActivityService(activityRepo),
		passwordHash,
	)
	return svc, pmRepo, taskRepo, equipmentRepo, activityRepo
}

func TestAdminLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)

	svc, _, _, _, _ := newAdminFixture(t, string(hash))

	t.Run("unconfigured service reports not configured", func(t *testing.T) {
		unconfigured, _, _, _, _ := newAdminFixture(t, "")
		assert.False(t, unconfigured.Configured())
	})

	t.Run("wrong password yields empty token without error", func(t *testing.T) {
		token, _, err := svc.Login("wrong-password")
		require.NoError(t, err)
		assert.Empty(t, token)
	})

	t.Run("correct password mints an admin token", func(t *testing.T) {
		token, expiresAt, err := svc.Login("correct-horse")
		require.NoError(t, err)
		require.NotEmpty(t, token)
		assert.True(t, expiresAt.After(time.Now()))

		tokens := auth.NewTokenManager("test-secret-for-admin-service-tests", time.Hour, time.Hour)
		claims, err := tokens.ParseTokenWithRole(token, auth.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, auth.RoleAdmin, claims.Role)
	})
}

func TestGetProjectDetail(t *testing.T) {
	svc, _, _, _, _ := newAdminFixture(t, "")

	t.Run("groups tasks under their phases", func(t *testing.T) {
		detail, err := svc.GetProjectDetail(context.Background(), "proj-1")
		require.NoError(t, err)
		require.NotNil(t, detail)

		assert.Equal(t, "Northside Plaza", detail.PropertyName)
		require.Len(t, detail.Phases, 2)
		assert.Equal(t, "phase-1", detail.Phases[0].ID)
		assert.Len(t, detail.Phases[0].Tasks, 2)
		assert.Len(t, detail.Phases[1].Tasks, 1)
		assert.Equal(t, "task-3", detail.Phases[1].Tasks[0].ID)
		require.Len(t, detail.Equipment, 1)
		assert.Equal(t, "RTU-1", detail.Equipment[0].Name)
	})

	t.Run("unknown project is not found", func(t *testing.T) {
		_, err := svc.GetProjectDetail(context.Background(), "proj-missing")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
	})
}

func TestUpdateEquipmentStatus(t *testing.T) {
	svc, _, _, equipmentRepo, _ := newAdminFixture(t, "")

	t.Run("updates a known unit", func(t *testing.T) {
		eq, err := svc.UpdateEquipmentStatus(context.Background(), "eq-1", "installed")
		require.NoError(t, err)
		assert.Equal(t, "installed", eq.Status)
		assert.Equal(t, "installed", equipmentRepo.statusUpdates["eq-1"])
	})

	t.Run("unknown unit is not found", func(t *testing.T) {
		_, err := svc.UpdateEquipmentStatus(context.Background(), "eq-missing", "installed")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
	})
}

func TestCreatePropertyManager(t *testing.T) {
	svc, pmRepo, _, _, _ := newAdminFixture(t, "")

	pm, token, err := svc.CreatePropertyManager(context.Background(), "New PM", "new@example.com", nil)
	require.NoError(t, err)
	require.NotNil(t, pm)

	assert.Len(t, token, 64)
	require.Len(t, pmRepo.created, 1)
	assert.Equal(t, token, pmRepo.created[0].PortalToken)
	assert.Equal(t, "New PM", pm.Name)
}

func TestNotifyPM(t *testing.T) {
	t.Run("upserts contact, sends sms and records activity", func(t *testing.T) {
		var paths []string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			paths = append(paths, r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"contact": map[string]any{"id": "contact-9"},
			})
		}))
		defer server.Close()

		svc, _, _, _, activityRepo := newAdminFixture(t, "")
		svc.crm = NewCRMService(server.URL, "test-key", "loc-1")

		err := svc.NotifyPM(context.Background(), "proj-1", "Crew arrives at 8am")
		require.NoError(t, err)

		require.Equal(t, []string{"/contacts/upsert", "/conversations/messages"}, paths)
		require.Len(t, activityRepo.created, 1)
		assert.Equal(t, model.ActivitySMSSent, activityRepo.created[0].Kind)
		assert.Equal(t, "pm@example.com", activityRepo.created[0].Recipient)
	})

	t.Run("unknown project is not found", func(t *testing.T) {
		svc, _, _, _, _ := newAdminFixture(t, "")
		err := svc.NotifyPM(context.Background(), "proj-missing", "hello")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
	})
}
