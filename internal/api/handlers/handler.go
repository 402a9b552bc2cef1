package handlers

import (
	"context"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/file-manager-grev/file-service/cmd/middleware"
	"github.com/file-manager-grev/file-service/internal/models"
	"github.com/file-manager-grev/file-service/internal/services"
	"github.com/file-manager-grev/file-service/internal/share"
)

// requestTimeout bounds every collaborator call made by a handler so a stuck
// backend fails the request instead of hanging it.
const requestTimeout = 15 * time.Second

const previewURLTTL = 15 * time.Minute

// MetadataStore is the slice of the Postgres store the handlers use.
type MetadataStore interface {
	InsertFile(ctx context.Context, f models.File) error
	GetFile(ctx context.Context, fileID string) (models.File, error)
	ListFiles(ctx context.Context) ([]models.File, error)
	UpdateFilePreview(ctx context.Context, fileID, previewPath string) error
	InsertFolder(ctx context.Context, f models.Folder) error
	ListFolders(ctx context.Context) ([]models.Folder, error)
	Rename(ctx context.Context, kind services.EntityKind, id, newName string) error
	SoftDelete(ctx context.Context, kind services.EntityKind, id string, at time.Time) error
	Restore(ctx context.Context, kind services.EntityKind, id string) error
	HardDelete(ctx context.Context, kind services.EntityKind, id string) error
}

// ObjectStorage is the slice of the MinIO service the handlers use.
type ObjectStorage interface {
	Upload(ctx context.Context, reader io.Reader, size int64, objectName, contentType string) error
	Remove(ctx context.Context, objectName string) error
	PresignedGet(ctx context.Context, objectName string, expiry time.Duration) (string, error)
	ObjectURL(objectName string) string
	KeyFromURL(rawURL string) string
}

// EventPublisher emits file lifecycle events. May be absent.
type EventPublisher interface {
	Publish(subject string, payload any) error
}

// ShareManager issues and redeems share links.
type ShareManager interface {
	Issue(ctx context.Context, req share.IssueRequest) (share.Grant, error)
	Validate(ctx context.Context, token, email string) (string, error)
}

// UploadScanner checks freshly uploaded objects for malware. May be absent.
type UploadScanner interface {
	ScanObject(fileID, objectName string)
}

// Handler owns all HTTP endpoints. Collaborators are injected; events, auth
// and scanner are optional and skipped when nil.
type Handler struct {
	store   MetadataStore
	storage ObjectStorage
	events  EventPublisher
	scanner UploadScanner
	shares  ShareManager
	auth    *middleware.Authenticator
	log     *zap.Logger
}

func New(store MetadataStore, storage ObjectStorage, shares ShareManager, log *zap.Logger) *Handler {
	return &Handler{
		store:   store,
		storage: storage,
		shares:  shares,
		log:     log,
	}
}

func (h *Handler) WithEvents(events EventPublisher) *Handler {
	h.events = events
	return h
}

func (h *Handler) WithScanner(scanner UploadScanner) *Handler {
	h.scanner = scanner
	return h
}

func (h *Handler) WithAuthenticator(auth *middleware.Authenticator) *Handler {
	h.auth = auth
	return h
}

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// publish emits an event when a publisher is wired; failures are logged and
// never fail the request.
func (h *Handler) publish(subject string, payload any) {
	if h.events == nil {
		return
	}
	if err := h.events.Publish(subject, payload); err != nil {
		h.log.Warn("event publish failed", zap.String("subject", subject), zap.Error(err))
	}
}
