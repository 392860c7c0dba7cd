package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/installsync/portal-server-go/internal/auth"
	"github.com/installsync/portal-server-go/internal/model"
	"github.com/installsync/portal-server-go/internal/service"
)

type stubDriverRepo struct {
	byToken map[string]*model.Driver
	byID    map[string]*model.Driver
}

func (s *stubDriverRepo) FindByAccessToken(ctx context.Context, token string) (*model.Driver, error) {
	return s.byToken[token], nil
}

func (s *stubDriverRepo) FindByID(ctx context.Context, id string) (*model.Driver, error) {
	return s.byID[id], nil
}

func (s *stubDriverRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Driver, error) {
	return nil, nil
}

func (s *stubDriverRepo) Create(ctx context.Context, params model.CreateDriverParams) (*model.Driver, error) {
	return nil, nil
}

func (s *stubDriverRepo) Update(ctx context.Context, id string, params model.UpdateDriverParams) (*model.Driver, error) {
	return nil, nil
}

func (s *stubDriverRepo) Count(ctx context.Context) (int, error) { return 0, nil }

func noopMiddleware(next http.Handler) http.Handler { return next }

func newDriverAuthRouter() http.Handler {
	driver := &model.Driver{
		ID:       "driver-1",
		Name:     "Pat Driver",
		Email:    "pat@example.com",
		IsActive: true,
	}
	repo := &stubDriverRepo{
		byToken: map[string]*model.Driver{
			"valid-code-1": driver,
			"stale-code-1": {ID: "driver-2", Name: "Gone", IsActive: false},
		},
		byID: map[string]*model.Driver{"driver-1": driver},
	}
	tokens := auth.NewTokenManager("test-secret", time.Hour, time.Hour)
	driverAuth := service.NewDriverAuthService(repo, tokens)
	return NewDriverHandler(driverAuth, nil, nil, noopMiddleware, noopMiddleware).Routes()
}

func TestDriverAuthenticate(t *testing.T) {
	router := newDriverAuthRouter()

	postAuth := func(t *testing.T, body string) *httptest.ResponseRecorder {
		t.Helper()
		req := httptest.NewRequest("POST", "/api/auth", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("rejects invalid JSON", func(t *testing.T) {
		rec := postAuth(t, `{broken`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects missing accessToken field", func(t *testing.T) {
		rec := postAuth(t, `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "accessToken is required")
	})

	t.Run("rejects out-of-band code length as 400", func(t *testing.T) {
		rec := postAuth(t, `{"accessToken":"short"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown code is a 401 with the generic message", func(t *testing.T) {
		rec := postAuth(t, `{"accessToken":"nosuchcode99"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid access token")
	})

	t.Run("inactive account is a 401 with its own message", func(t *testing.T) {
		rec := postAuth(t, `{"accessToken":"stale-code-1"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Account is inactive")
	})

	t.Run("success exposes only id and name", func(t *testing.T) {
		rec := postAuth(t, `{"accessToken":"valid-code-1"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Token     string `json:"token"`
			ExpiresAt string `json:"expiresAt"`
			Driver    map[string]any `json:"driver"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

		assert.NotEmpty(t, resp.Token)
		_, err := time.Parse(time.RFC3339, resp.ExpiresAt)
		assert.NoError(t, err)

		assert.Equal(t, "driver-1", resp.Driver["id"])
		assert.Equal(t, "Pat Driver", resp.Driver["name"])
		assert.NotContains(t, resp.Driver, "email")
		assert.NotContains(t, resp.Driver, "phone")
		assert.NotContains(t, rec.Body.String(), "valid-code-1")
	})
}
