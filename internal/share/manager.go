// Package share issues and redeems expiring file share links.
//
// A grant is a permissions row carrying a high-entropy bearer token mailed to
// one recipient. Redemption checks token, recipient email and expiry, then
// exchanges the grant for a time-limited presigned download URL. Links stay
// redeemable until they expire; there is no consumed or revoked state.
package share

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/file-manager-grev/file-service/internal/models"
	"github.com/file-manager-grev/file-service/internal/services"
)

const (
	// DefaultLinkTTL is how long an issued share link stays redeemable.
	DefaultLinkTTL = 24 * time.Hour

	// DefaultSignedURLTTL is the lifetime of the presigned download URL a
	// valid redemption returns.
	DefaultSignedURLTTL = time.Hour

	tokenBytes = 32
)

// PermissionStore persists share grants and resolves the files they target.
// Lookup misses must satisfy errors.Is(err, services.ErrNotFound).
type PermissionStore interface {
	InsertPermission(ctx context.Context, p models.Permission) (models.Permission, error)
	GetPermissionByToken(ctx context.Context, token string) (models.Permission, error)
	GetFile(ctx context.Context, fileID string) (models.File, error)
}

// URLSigner produces time-limited direct-download URLs for stored objects.
type URLSigner interface {
	PresignedGet(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

// Sender delivers the share notification email.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// Config carries the share policy knobs. Zero values fall back to the
// defaults above.
type Config struct {
	FrontendBaseURL string
	LinkTTL         time.Duration
	SignedURLTTL    time.Duration
}

// Manager coordinates grant issuance and redemption. All collaborators are
// injected; nothing here owns global state.
type Manager struct {
	store  PermissionStore
	signer URLSigner
	sender Sender
	cfg    Config
	log    *zap.Logger
	now    func() time.Time
}

func NewManager(store PermissionStore, signer URLSigner, sender Sender, cfg Config, log *zap.Logger) *Manager {
	if cfg.LinkTTL <= 0 {
		cfg.LinkTTL = DefaultLinkTTL
	}
	if cfg.SignedURLTTL <= 0 {
		cfg.SignedURLTTL = DefaultSignedURLTTL
	}
	return &Manager{
		store:  store,
		signer: signer,
		sender: sender,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

// IssueRequest are the caller-supplied fields of a new grant.
type IssueRequest struct {
	FileID          string      `json:"file_id" binding:"required"`
	SharedWithEmail string      `json:"shared_with_email" binding:"required"`
	Role            models.Role `json:"role" binding:"required"`
}

// Grant is the outcome of a successful issuance. EmailSent is false when the
// grant was persisted but the notification could not be delivered.
type Grant struct {
	Permission models.Permission `json:"permission"`
	ShareLink  string            `json:"share_link"`
	EmailSent  bool              `json:"email_sent"`
}

// Issue creates a share grant for a file and mails the share link to the
// recipient. The permission row is durable once this returns without error;
// notification is best-effort and reported via Grant.EmailSent.
func (m *Manager) Issue(ctx context.Context, req IssueRequest) (Grant, error) {
	if req.FileID == "" || req.SharedWithEmail == "" || req.Role == "" {
		return Grant{}, fmt.Errorf("%w: file_id, shared_with_email, and role are required", ErrInvalidInput)
	}
	if !req.Role.Valid() {
		return Grant{}, fmt.Errorf("%w: invalid role %q", ErrInvalidInput, req.Role)
	}

	token, err := newToken()
	if err != nil {
		return Grant{}, fmt.Errorf("generate share token: %w", err)
	}

	now := m.now()
	perm := models.Permission{
		ID:         uuid.New().String(),
		FileID:     req.FileID,
		SharedWith: req.SharedWithEmail,
		Role:       req.Role,
		Token:      token,
		ExpiresAt:  now.Add(m.cfg.LinkTTL),
		CreatedAt:  now,
	}

	perm, err = m.store.InsertPermission(ctx, perm)
	if err != nil {
		return Grant{}, fmt.Errorf("persist share grant: %w", err)
	}

	link := m.shareLink(token)

	grant := Grant{Permission: perm, ShareLink: link, EmailSent: true}
	if err := m.sender.Send(req.SharedWithEmail, mailSubject, mailBody(req.Role, link)); err != nil {
		// The grant is already durable; don't fail the request over mail.
		m.log.Warn("share notification failed",
			zap.String("permission_id", perm.ID),
			zap.String("to", req.SharedWithEmail),
			zap.Error(err))
		grant.EmailSent = false
	}

	return grant, nil
}

// Validate redeems a share token for a presigned download URL. The checks
// run in order: token exists, email matches, link not expired. The email
// comparison is a case-sensitive exact match against the grant's recipient.
func (m *Manager) Validate(ctx context.Context, token, email string) (string, error) {
	perm, err := m.store.GetPermissionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return "", ErrInvalidLink
		}
		return "", fmt.Errorf("look up share grant: %w", err)
	}

	if perm.SharedWith != email {
		return "", ErrUnauthorizedEmail
	}

	if m.now().After(perm.ExpiresAt) {
		return "", ErrLinkExpired
	}

	file, err := m.store.GetFile(ctx, perm.FileID)
	if err != nil {
		return "", fmt.Errorf("resolve shared file: %w", err)
	}

	signedURL, err := m.signer.PresignedGet(ctx, file.ObjectKey(), m.cfg.SignedURLTTL)
	if err != nil {
		return "", fmt.Errorf("sign download url: %w", err)
	}
	return signedURL, nil
}

func (m *Manager) shareLink(token string) string {
	return strings.TrimRight(m.cfg.FrontendBaseURL, "/") + "/view-file/" + token
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

const mailSubject = "You've been given access to a file"

func mailBody(role models.Role, link string) string {
	return fmt.Sprintf(`
        <p>Hello,</p>
        <p>You have been granted <b>%s</b> access to a file.</p>
        <p>Click below to view:</p>
        <a href="%s">%s</a>
        <p>This link will expire in 24 hours.</p>
    `, role, link, link)
}
