package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/installsync/portal-server-go/internal/config"
	apperrors "github.com/installsync/portal-server-go/internal/errors"
)

// StorageService relays file uploads to the hosted object store. Paths are
// always server-generated so two uploads can never collide, and writes use
// upsert semantics.
type StorageService struct {
	baseURL    string
	serviceKey string
	client     *http.Client
}

func NewStorageService(baseURL, serviceKey string) *StorageService {
	return &StorageService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		client: &http.Client{
			Timeout: config.OutboundTimeout,
		},
	}
}

// ResolveObjectPath builds a collision-free object path from a folder and the
// original file name: <folder>/<unix-ms>-<random><ext>. An empty folder
// defaults to uploads/.
func ResolveObjectPath(folder, originalName string) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		folder = "uploads"
	}
	ext := strings.ToLower(path.Ext(originalName))
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("%s/%d-%s%s", folder, time.Now().UnixMilli(), suffix, ext)
}

// Upload writes the payload to the bucket at objectPath with
// overwrite-if-exists semantics and returns the object's public URL.
func (s *StorageService) Upload(ctx context.Context, bucket, objectPath string, data []byte, contentType string) (string, error) {
	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, bucket, objectPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(data))
	if err != nil {
		return "", apperrors.External("storage", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	start := time.Now()
	resp, err := s.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		log.Error().Err(err).Str("bucket", bucket).Dur("elapsed", elapsed).Msg("storage upload failed")
		return "", apperrors.External("storage", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Error().
			Str("bucket", bucket).
			Str("path", objectPath).
			Int("status", resp.StatusCode).
			Dur("elapsed", elapsed).
			Msg("storage upload rejected")
		return "", classifyStorageError(bucket, resp.StatusCode, string(body))
	}

	log.Info().
		Str("bucket", bucket).
		Str("path", objectPath).
		Int("bytes", len(data)).
		Dur("elapsed", elapsed).
		Msg("storage upload complete")

	return s.PublicURL(bucket, objectPath), nil
}

// PublicURL returns the public-read URL for an uploaded object.
func (s *StorageService) PublicURL(bucket, objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, bucket, objectPath)
}

// classifyStorageError maps known upstream failure signatures onto the
// closed error-kind set. Anything unrecognized stays a generic external
// error with the upstream text carried for diagnosis.
func classifyStorageError(bucket string, status int, body string) *apperrors.AppError {
	lower := strings.ToLower(body)

	switch {
	case strings.Contains(lower, "bucket not found"):
		return apperrors.BucketNotFound(bucket)
	case strings.Contains(lower, "row-level security"),
		strings.Contains(lower, "security policy"),
		strings.Contains(lower, "policy"):
		return apperrors.PolicyDenied(bucket)
	default:
		return apperrors.New(apperrors.ErrCodeExternal, "Storage upload failed").
			WithDetails(fmt.Sprintf("upstream status %d: %s", status, strings.TrimSpace(body)))
	}
}
