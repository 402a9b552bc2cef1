package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/file-manager-grev/file-service/internal/models"
	"github.com/file-manager-grev/file-service/internal/services"
	"github.com/file-manager-grev/file-service/internal/share"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeMetadataStore struct {
	files    map[string]models.File
	folders  map[string]models.Folder
	renamed  map[string]string
	trashed  []string
	restored []string
	deleted  []string
	err      error
}

func newFakeMetadataStore() *fakeMetadataStore {
	return &fakeMetadataStore{
		files:   map[string]models.File{},
		folders: map[string]models.Folder{},
		renamed: map[string]string{},
	}
}

func (s *fakeMetadataStore) InsertFile(_ context.Context, f models.File) error {
	if s.err != nil {
		return s.err
	}
	s.files[f.ID] = f
	return nil
}

func (s *fakeMetadataStore) GetFile(_ context.Context, fileID string) (models.File, error) {
	f, ok := s.files[fileID]
	if !ok {
		return models.File{}, fmt.Errorf("file %s: %w", fileID, services.ErrNotFound)
	}
	return f, nil
}

func (s *fakeMetadataStore) ListFiles(_ context.Context) ([]models.File, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := []models.File{}
	for _, f := range s.files {
		if f.DeletedAt == nil {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *fakeMetadataStore) UpdateFilePreview(_ context.Context, fileID, previewPath string) error {
	f, ok := s.files[fileID]
	if !ok {
		return services.ErrNotFound
	}
	f.PreviewPath = previewPath
	s.files[fileID] = f
	return nil
}

func (s *fakeMetadataStore) InsertFolder(_ context.Context, f models.Folder) error {
	if s.err != nil {
		return s.err
	}
	s.folders[f.ID] = f
	return nil
}

func (s *fakeMetadataStore) ListFolders(_ context.Context) ([]models.Folder, error) {
	out := []models.Folder{}
	for _, f := range s.folders {
		if f.DeletedAt == nil {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *fakeMetadataStore) has(kind services.EntityKind, id string) bool {
	if kind == services.KindFolder {
		_, ok := s.folders[id]
		return ok
	}
	_, ok := s.files[id]
	return ok
}

func (s *fakeMetadataStore) Rename(_ context.Context, kind services.EntityKind, id, newName string) error {
	if !s.has(kind, id) {
		return services.ErrNotFound
	}
	s.renamed[id] = newName
	return nil
}

func (s *fakeMetadataStore) SoftDelete(_ context.Context, kind services.EntityKind, id string, at time.Time) error {
	if !s.has(kind, id) {
		return services.ErrNotFound
	}
	s.trashed = append(s.trashed, id)
	return nil
}

func (s *fakeMetadataStore) Restore(_ context.Context, kind services.EntityKind, id string) error {
	if !s.has(kind, id) {
		return services.ErrNotFound
	}
	s.restored = append(s.restored, id)
	return nil
}

func (s *fakeMetadataStore) HardDelete(_ context.Context, kind services.EntityKind, id string) error {
	if !s.has(kind, id) {
		return services.ErrNotFound
	}
	s.deleted = append(s.deleted, id)
	delete(s.files, id)
	delete(s.folders, id)
	return nil
}

type fakeObjectStorage struct {
	uploaded []string
	removed  []string
	err      error
}

func (s *fakeObjectStorage) Upload(_ context.Context, _ io.Reader, _ int64, objectName, _ string) error {
	if s.err != nil {
		return s.err
	}
	s.uploaded = append(s.uploaded, objectName)
	return nil
}

func (s *fakeObjectStorage) Remove(_ context.Context, objectName string) error {
	s.removed = append(s.removed, objectName)
	return nil
}

func (s *fakeObjectStorage) PresignedGet(_ context.Context, objectName string, _ time.Duration) (string, error) {
	return "https://minio.test/files/" + objectName + "?signed=1", nil
}

func (s *fakeObjectStorage) ObjectURL(objectName string) string {
	return "http://minio.test/files/" + objectName
}

func (s *fakeObjectStorage) KeyFromURL(rawURL string) string {
	return strings.TrimPrefix(rawURL, "http://minio.test/files/")
}

type fakeShareManager struct {
	grant       share.Grant
	issueErr    error
	signedURL   string
	validateErr error

	lastToken string
	lastEmail string
}

func (m *fakeShareManager) Issue(_ context.Context, req share.IssueRequest) (share.Grant, error) {
	if m.issueErr != nil {
		return share.Grant{}, m.issueErr
	}
	return m.grant, nil
}

func (m *fakeShareManager) Validate(_ context.Context, token, email string) (string, error) {
	m.lastToken = token
	m.lastEmail = email
	if m.validateErr != nil {
		return "", m.validateErr
	}
	return m.signedURL, nil
}

type testEnv struct {
	store   *fakeMetadataStore
	storage *fakeObjectStorage
	shares  *fakeShareManager
	router  *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store:   newFakeMetadataStore(),
		storage: &fakeObjectStorage{},
		shares:  &fakeShareManager{},
	}
	h := New(env.store, env.storage, env.shares, zap.NewNop())

	r := gin.New()
	api := r.Group("/api")
	api.POST("/upload", h.UploadFile)
	api.POST("/folder/upload-folder", h.UploadFolder)
	api.GET("/files/:id/preview", h.GetPreview)
	api.GET("/edit/files", h.ListFiles)
	api.GET("/edit/folders", h.ListFolders)
	api.PUT("/edit/:type/:id", h.Rename)
	api.DELETE("/edit/:type/:id", h.SoftDelete)
	api.POST("/edit/:type/:id/restore", h.Restore)
	api.DELETE("/edit/:type/:id/permanent", h.PermanentDelete)
	api.POST("/share", h.ShareFile)
	api.GET("/share/validate/:token", h.ValidateShare)
	env.router = r
	return env
}

func (e *testEnv) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func jsonBody(s string) (io.Reader, string) {
	return strings.NewReader(s), "application/json"
}
