package handler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/installsync/portal-server-go/internal/service"
)

func TestUploadJSON(t *testing.T) {
	// The storage backend is unreachable on purpose: validation must fail
	// before any upstream call.
	h := NewUploadHandler(service.NewStorageService("http://127.0.0.1:1", "key"), "project-files")

	postJSON := func(t *testing.T, payload map[string]any) *httptest.ResponseRecorder {
		t.Helper()
		body, err := json.Marshal(payload)
		require.NoError(t, err)
		req := httptest.NewRequest("POST", "/api/uploads", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.Upload(rec, req)
		return rec
	}

	t.Run("rejects missing bucket", func(t *testing.T) {
		rec := postJSON(t, map[string]any{
			"filePath": "a.pdf",
			"fileData": base64.StdEncoding.EncodeToString([]byte("data")),
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "bucket is required")
	})

	t.Run("rejects missing filePath", func(t *testing.T) {
		rec := postJSON(t, map[string]any{
			"bucket":   "project-files",
			"fileData": base64.StdEncoding.EncodeToString([]byte("data")),
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "filePath is required")
	})

	t.Run("rejects missing fileData", func(t *testing.T) {
		rec := postJSON(t, map[string]any{
			"bucket":   "project-files",
			"filePath": "a.pdf",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "fileData is required")
	})

	t.Run("rejects invalid base64", func(t *testing.T) {
		rec := postJSON(t, map[string]any{
			"bucket":   "project-files",
			"filePath": "a.pdf",
			"fileData": "not%%%base64",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects invalid JSON body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/uploads", bytes.NewBufferString(`{broken`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.Upload(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("relays a valid payload and returns both urls", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "true", r.Header.Get("x-upsert"))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		live := NewUploadHandler(service.NewStorageService(server.URL, "key"), "project-files")
		rec := httptest.NewRecorder()
		body, _ := json.Marshal(map[string]any{
			"bucket":      "project-files",
			"filePath":    "docs/report.pdf",
			"fileData":    base64.StdEncoding.EncodeToString([]byte("content")),
			"contentType": "application/pdf",
		})
		req := httptest.NewRequest("POST", "/api/uploads", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		live.Upload(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Success   bool   `json:"success"`
			URL       string `json:"url"`
			PublicURL string `json:"publicUrl"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Regexp(t, `^docs/\d+-[0-9a-f]{8}\.pdf$`, resp.URL)
		assert.Contains(t, resp.PublicURL, "/storage/v1/object/public/project-files/")
	})
}

func TestUploadMultipart(t *testing.T) {
	t.Run("rejects form without file field", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		mw.WriteField("folder", "photos")
		mw.Close()

		h := NewUploadHandler(service.NewStorageService("http://127.0.0.1:1", "key"), "project-files")
		req := httptest.NewRequest("POST", "/api/uploads", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		h.Upload(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "file is required")
	})

	t.Run("uploads into the requested folder", func(t *testing.T) {
		var gotPath string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		mw.WriteField("folder", "photos")
		fw, err := mw.CreateFormFile("file", "fridge.jpg")
		require.NoError(t, err)
		fw.Write([]byte("jpeg-bytes"))
		mw.Close()

		h := NewUploadHandler(service.NewStorageService(server.URL, "key"), "project-files")
		req := httptest.NewRequest("POST", "/api/uploads", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		h.Upload(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Regexp(t, `^/storage/v1/object/project-files/photos/\d+-[0-9a-f]{8}\.jpg$`, gotPath)
	})
}
