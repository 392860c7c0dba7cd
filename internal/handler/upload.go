package handler

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/installsync/portal-server-go/internal/errors"
	"github.com/installsync/portal-server-go/internal/service"
)

// UploadHandler normalizes the two accepted upload shapes (multipart file or
// base64 JSON) into one binary payload plus a server-generated object path,
// then relays to the object store.
type UploadHandler struct {
	storage       *service.StorageService
	defaultBucket string
}

func NewUploadHandler(storage *service.StorageService, defaultBucket string) *UploadHandler {
	return &UploadHandler{storage: storage, defaultBucket: defaultBucket}
}

type uploadJSONRequest struct {
	Bucket      string `json:"bucket"`
	FilePath    string `json:"filePath"`
	FileData    string `json:"fileData"`
	ContentType string `json:"contentType"`
}

func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		h.uploadMultipart(w, r)
		return
	}
	h.uploadJSON(w, r)
}

func (h *UploadHandler) uploadMultipart(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperrors.MissingRequired("file"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, apperrors.ValidationError("Failed to read uploaded file"))
		return
	}

	folder := r.FormValue("folder")
	objectPath := service.ResolveObjectPath(folder, header.Filename)

	fileContentType := header.Header.Get("Content-Type")
	if fileContentType == "" {
		fileContentType = "application/octet-stream"
	}

	publicURL, err := h.storage.Upload(r.Context(), h.defaultBucket, objectPath, data, fileContentType)
	if err != nil {
		log.Error().Err(err).Str("path", objectPath).Msg("multipart upload failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"url":       objectPath,
		"publicUrl": publicURL,
	})
}

// uploadJSON validates every required field before any storage call.
func (h *UploadHandler) uploadJSON(w http.ResponseWriter, r *http.Request) {
	var req uploadJSONRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid JSON body"))
		return
	}

	switch {
	case req.Bucket == "":
		writeError(w, apperrors.MissingRequired("bucket"))
		return
	case req.FilePath == "":
		writeError(w, apperrors.MissingRequired("filePath"))
		return
	case req.FileData == "":
		writeError(w, apperrors.MissingRequired("fileData"))
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.FileData)
	if err != nil {
		writeError(w, apperrors.InvalidInput("fileData", "must be valid base64"))
		return
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	folder, name := splitObjectPath(req.FilePath)
	objectPath := service.ResolveObjectPath(folder, name)

	publicURL, err := h.storage.Upload(r.Context(), req.Bucket, objectPath, data, contentType)
	if err != nil {
		log.Error().Err(err).Str("bucket", req.Bucket).Msg("json upload failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"url":       objectPath,
		"publicUrl": publicURL,
	})
}

// splitObjectPath separates a client-supplied path hint into folder and file
// name. Only the folder and the extension survive; the final object path is
// always server-generated.
func splitObjectPath(p string) (folder, name string) {
	p = strings.Trim(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[:i], p[i+1:]
	}
	return "", p
}
