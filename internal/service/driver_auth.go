package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/installsync/portal-server-go/internal/auth"
	"github.com/installsync/portal-server-go/internal/config"
	apperrors "github.com/installsync/portal-server-go/internal/errors"
	"github.com/installsync/portal-server-go/internal/model"
	"github.com/installsync/portal-server-go/internal/repository"
	"github.com/installsync/portal-server-go/internal/util"
)

// DriverAuthService trades a long-lived access code for a short-lived signed
// session token. This exchange is the only place the raw access code is ever
// presented; every subsequent driver request carries the session token.
type DriverAuthService struct {
	driverRepo repository.DriverRepository
	tokens     *auth.TokenManager
}

func NewDriverAuthService(driverRepo repository.DriverRepository, tokens *auth.TokenManager) *DriverAuthService {
	return &DriverAuthService{driverRepo: driverRepo, tokens: tokens}
}

// AuthResult is what a successful exchange returns. Only id and name are
// ever exposed to the client.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	DriverID  string
	Name      string
}

// Authenticate normalizes and validates an access code, then mints a driver
// session token. Codes outside the length band fail before any database
// query; a missing row and a wrong code are deliberately the same error.
func (s *DriverAuthService) Authenticate(ctx context.Context, accessCode string) (*AuthResult, error) {
	normalized := strings.ToLower(strings.TrimSpace(accessCode))

	if len(normalized) < config.AccessCodeMinLen || len(normalized) > config.AccessCodeMaxLen {
		return nil, apperrors.InvalidInput("accessToken", "must be between 8 and 32 characters")
	}

	driver, err := s.driverRepo.FindByAccessToken(ctx, normalized)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if driver == nil {
		log.Warn().Str("code", util.MaskCode(normalized)).Msg("driver auth: invalid access token")
		return nil, apperrors.InvalidToken("Invalid access token")
	}

	if !driver.IsActive {
		log.Warn().Str("driverId", driver.ID).Msg("driver auth: inactive account")
		return nil, apperrors.AccountInactive()
	}

	token, expiresAt, err := s.tokens.MintDriverToken(driver.ID, driver.Email)
	if err != nil {
		return nil, apperrors.Internal("Failed to issue session token").WithCause(err)
	}

	log.Info().Str("driverId", driver.ID).Time("expiresAt", expiresAt).Msg("driver authenticated")

	return &AuthResult{
		Token:     token,
		ExpiresAt: expiresAt,
		DriverID:  driver.ID,
		Name:      driver.Name,
	}, nil
}

// LoadSessionDriver resolves a driver session token back to its driver row,
// rejecting tokens whose driver has since been deactivated.
func (s *DriverAuthService) LoadSessionDriver(ctx context.Context, tokenStr string) (*model.Driver, error) {
	claims, err := s.tokens.ParseTokenWithRole(tokenStr, auth.RoleDriver)
	if err != nil {
		return nil, apperrors.InvalidToken("Invalid or expired session")
	}

	driver, err := s.driverRepo.FindByID(ctx, claims.DriverID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if driver == nil || !driver.IsActive {
		return nil, apperrors.InvalidToken("Invalid or expired session")
	}
	return driver, nil
}
