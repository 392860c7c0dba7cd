package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/installsync/portal-server-go/internal/auth"
	"github.com/installsync/portal-server-go/internal/service"
)

func newAdminTestRouter(t *testing.T) http.Handler {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2-admin"), bcrypt.MinCost)
	require.NoError(t, err)

	tokens := auth.NewTokenManager("admin-handler-test-secret", time.Hour, time.Hour)
	activityRepo := &stubActivityRepo{}
	svc := service.NewAdminService(
		tokens,
		&stubDriverRepo{},
		&stubPMRepo{},
		&stubProjectRepo{},
		&stubTaskRepo{},
		&stubEquipmentRepo{},
		&stubMessageRepo{},
		activityRepo,
		service.NewCRMService("http://localhost:1", "", ""),
		service.NewActivityService(activityRepo),
		string(hash),
	)
	taskService := service.NewTaskService(&stubTaskRepo{})
	uploadHandler := NewUploadHandler(service.NewStorageService("http://localhost:1", "key"), "project-files")

	h := NewAdminHandler(svc, taskService, noopMiddleware, noopMiddleware, uploadHandler, "")
	return h.Routes()
}

func TestAdminLoginValidation(t *testing.T) {
	router := newAdminTestRouter(t)

	t.Run("broken JSON is a 400", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/login", bytes.NewBufferString("{not json"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid JSON body")
	})

	t.Run("empty password is a missing-field 400", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/login", bytes.NewBufferString(`{"password":""}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "password is required", body["error"])
	})

	t.Run("wrong password is a generic 401", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/login", bytes.NewBufferString(`{"password":"wrong"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid credentials")
	})

	t.Run("correct password returns a token", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/login", bytes.NewBufferString(`{"password":"hunter2-admin"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "token")
	})
}

func TestAdminPathIDValidation(t *testing.T) {
	router := newAdminTestRouter(t)

	t.Run("malformed project id is rejected before lookup", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/projects/not-a-uuid", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid projectID format")
	})

	t.Run("malformed task id is rejected", func(t *testing.T) {
		req := httptest.NewRequest("PATCH", "/api/tasks/123", bytes.NewBufferString(`{"status":"complete"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid taskID format")
	})

	t.Run("malformed equipment id is rejected", func(t *testing.T) {
		req := httptest.NewRequest("PATCH", "/api/equipment/xyz", bytes.NewBufferString(`{"status":"installed"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid equipmentID format")
	})

	t.Run("well-formed unknown project id is a 404", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/projects/4f9c8e9a-1b2c-4d5e-8f6a-0123456789ab", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
