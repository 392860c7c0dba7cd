package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/installsync/portal-server-go/internal/config"
	apperrors "github.com/installsync/portal-server-go/internal/errors"
)

// CRMService wraps the hosted CRM/SMS provider. Calls are sequential and
// unretried; a transient failure surfaces directly to the caller.
type CRMService struct {
	baseURL    string
	apiKey     string
	locationID string
	client     *http.Client
}

func NewCRMService(baseURL, apiKey, locationID string) *CRMService {
	return &CRMService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		locationID: locationID,
		client: &http.Client{
			Timeout: config.OutboundTimeout,
		},
	}
}

// Contact is the CRM-side contact record shape we care about.
type Contact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// UpsertContact creates or updates a CRM contact by email.
func (s *CRMService) UpsertContact(ctx context.Context, name, email, phone string) (*Contact, error) {
	payload := map[string]any{
		"locationId": s.locationID,
		"name":       name,
		"email":      email,
		"phone":      phone,
	}

	var result struct {
		Contact Contact `json:"contact"`
	}
	if err := s.post(ctx, "/contacts/upsert", payload, &result); err != nil {
		return nil, err
	}
	return &result.Contact, nil
}

// SendSMS sends an SMS to a CRM contact.
func (s *CRMService) SendSMS(ctx context.Context, contactID, body string) error {
	payload := map[string]any{
		"type":      "SMS",
		"contactId": contactID,
		"message":   body,
	}
	return s.post(ctx, "/conversations/messages", payload, nil)
}

func (s *CRMService) post(ctx context.Context, endpoint string, payload any, out any) error {
	if s.apiKey == "" {
		return apperrors.New(apperrors.ErrCodeExternal, "CRM is not configured").
			WithDetails("set CRM_API_KEY and CRM_LOCATION_ID")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Internal("Failed to encode CRM payload").WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return apperrors.External("crm", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Version", "2021-07-28")

	start := time.Now()
	resp, err := s.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		log.Error().Err(err).Str("endpoint", endpoint).Dur("elapsed", elapsed).Msg("crm request failed")
		return apperrors.External("crm", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Error().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Dur("elapsed", elapsed).
			Msg("crm request rejected")
		return apperrors.New(apperrors.ErrCodeExternal, "CRM request failed").
			WithDetails(fmt.Sprintf("upstream status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	log.Info().Str("endpoint", endpoint).Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("crm request ok")

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return apperrors.External("crm", err)
		}
	}
	return nil
}
