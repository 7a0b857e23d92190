package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"student-form-backend/config"
	"student-form-backend/internal/api"
	"student-form-backend/internal/archive"
	"student-form-backend/internal/db"
	"student-form-backend/internal/forms"
	"student-form-backend/internal/model"
	"student-form-backend/internal/render"
	"student-form-backend/internal/store"
	"student-form-backend/internal/web"
)

// memoryBucket is an in-process stand-in for an S3 bucket.
type memoryBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (b *memoryBucket) BucketExists(context.Context, string) (bool, error) { return true, nil }

func (b *memoryBucket) MakeBucket(context.Context, string, minio.MakeBucketOptions) error {
	return nil
}

func (b *memoryBucket) PutObject(_ context.Context, _, key string, r io.Reader, _ int64, _ minio.PutObjectOptions) (minio.UploadInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return minio.UploadInfo{Key: key, Size: int64(len(data))}, nil
}

func (b *memoryBucket) RemoveObject(_ context.Context, _, key string, _ minio.RemoveObjectOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

func (b *memoryBucket) has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok
}

type testServer struct {
	*httptest.Server
	bucket *memoryBucket
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "silent",
	}
	gormDB, err := db.Init(cfg, zerolog.Nop())
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	bucket := &memoryBucket{objects: map[string][]byte{}}
	archiver, err := archive.NewWithClient(context.Background(), bucket, "student-forms", "forms", zerolog.Nop())
	require.NoError(t, err)

	appStore := store.NewGormStore(gormDB)
	svc := forms.NewService(appStore, render.New(time.UTC), zerolog.Nop(), forms.WithArchiver(archiver))

	router := api.NewRouter(api.RouterConfig{
		Forms:         svc,
		Subscriptions: appStore,
		Logger:        zerolog.Nop(),
		SubmitRate:    rate.Inf,
		SubmitBurst:   1,
		CacheTTL:      time.Minute,
	})
	require.NoError(t, web.Register(router, web.Options{}))

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, bucket: bucket}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return b
}

func submission(nume, prenume string, motivation string) map[string]string {
	return map[string]string{
		"nume":      nume,
		"prenume":   prenume,
		"facultate": "Facultatea de Informatică",
		"motivatie": motivation,
	}
}

// TestFormLifecycle drives the complete flow an administrator sees: a
// student submits, the admin lists, reads, edits and finally deletes.
func TestFormLifecycle(t *testing.T) {
	srv := newTestServer(t)
	motivation := strings.Repeat("Îmi doresc să particip la acest program. ", 4)

	// Submit returns the PDF with the server-chosen filename.
	resp := srv.do(t, http.MethodPost, "/api/forms", submission("Pop", "Ana", motivation))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `filename="fisa-student-Pop-Ana.pdf"`)
	id := resp.Header.Get(api.FormIDHeader)
	require.Equal(t, "1", id)
	assert.True(t, bytes.HasPrefix(readBody(t, resp), []byte("%PDF-")))
	assert.True(t, srv.bucket.has("forms/1.pdf"), "submitted document is archived")

	// The stored record round-trips.
	resp = srv.do(t, http.MethodGet, "/api/forms/1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stored model.StudentForm
	require.NoError(t, json.Unmarshal(readBody(t, resp), &stored))
	assert.Equal(t, "Pop", stored.FirstName)
	assert.Equal(t, "Ana", stored.LastName)
	assert.Equal(t, strings.TrimSpace(motivation), stored.Motivation)
	assert.WithinDuration(t, time.Now(), stored.SubmittedAt, time.Minute)

	// Listing is stable across calls.
	first := readBody(t, srv.do(t, http.MethodGet, "/api/forms", nil))
	second := readBody(t, srv.do(t, http.MethodGet, "/api/forms", nil))
	assert.JSONEq(t, string(first), string(second))

	// The admin PDF download reuses the filename.
	resp = srv.do(t, http.MethodGet, "/api/forms/1/pdf", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "fisa-student-Pop-Ana.pdf")

	// Edit keeps the id and the submission time.
	edit := submission("Pop", "Ana", motivation)
	edit["facultate"] = "Litere"
	resp = srv.do(t, http.MethodPut, "/api/forms/1", edit)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	var edited model.StudentForm
	require.NoError(t, json.Unmarshal(readBody(t, srv.do(t, http.MethodGet, "/api/forms/1", nil)), &edited))
	assert.Equal(t, "Litere", edited.Faculty)
	assert.True(t, stored.SubmittedAt.Equal(edited.SubmittedAt))

	// Delete twice: the second call finds nothing.
	assert.Equal(t, http.StatusNoContent, srv.do(t, http.MethodDelete, "/api/forms/1", nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodDelete, "/api/forms/1", nil).StatusCode)
	assert.False(t, srv.bucket.has("forms/1.pdf"), "archived document is removed with the form")

	// An update after the delete does not bring the record back.
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodPut, "/api/forms/1", edit).StatusCode)
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/api/forms/1", nil).StatusCode)
	assert.JSONEq(t, `[]`, string(readBody(t, srv.do(t, http.MethodGet, "/api/forms", nil))))
}

func TestScenarios(t *testing.T) {
	srv := newTestServer(t)

	t.Run("short motivation is rejected and nothing is stored", func(t *testing.T) {
		resp := srv.do(t, http.MethodPost, "/api/forms", submission("Pop", "Ana", strings.Repeat("m", 40)))
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body struct {
			Error  string            `json:"error"`
			Fields map[string]string `json:"fields"`
		}
		require.NoError(t, json.Unmarshal(readBody(t, resp), &body))
		assert.Equal(t, "Motivația trebuie să conțină minim 100 caractere", body.Fields["motivatie"])

		assert.JSONEq(t, `[]`, string(readBody(t, srv.do(t, http.MethodGet, "/api/forms", nil))))
	})

	t.Run("updating an unknown id is not found", func(t *testing.T) {
		resp := srv.do(t, http.MethodPut, "/api/forms/999", submission("Pop", "Ana", strings.Repeat("m", 120)))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("health probe", func(t *testing.T) {
		resp := srv.do(t, http.MethodGet, "/api/health", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"message":"Backend API is working!"}`, string(readBody(t, resp)))
	})

	t.Run("UI shell is served next to the API", func(t *testing.T) {
		resp := srv.do(t, http.MethodGet, "/admin", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(readBody(t, resp)), "Admin Panel")
	})
}
