package share

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/file-manager-grev/file-service/internal/models"
	"github.com/file-manager-grev/file-service/internal/services"
)

type fakeStore struct {
	permissions map[string]models.Permission // by token
	files       map[string]models.File
	insertErr   error
	fileErr     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		permissions: map[string]models.Permission{},
		files:       map[string]models.File{},
	}
}

func (s *fakeStore) InsertPermission(_ context.Context, p models.Permission) (models.Permission, error) {
	if s.insertErr != nil {
		return models.Permission{}, s.insertErr
	}
	s.permissions[p.Token] = p
	return p, nil
}

func (s *fakeStore) GetPermissionByToken(_ context.Context, token string) (models.Permission, error) {
	p, ok := s.permissions[token]
	if !ok {
		return models.Permission{}, fmt.Errorf("permission: %w", services.ErrNotFound)
	}
	return p, nil
}

func (s *fakeStore) GetFile(_ context.Context, fileID string) (models.File, error) {
	if s.fileErr != nil {
		return models.File{}, s.fileErr
	}
	f, ok := s.files[fileID]
	if !ok {
		return models.File{}, fmt.Errorf("file %s: %w", fileID, services.ErrNotFound)
	}
	return f, nil
}

type fakeSigner struct {
	lastObject string
	lastExpiry time.Duration
	err        error
}

func (s *fakeSigner) PresignedGet(_ context.Context, objectName string, expiry time.Duration) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.lastObject = objectName
	s.lastExpiry = expiry
	return "https://minio.example.com/files/" + objectName + "?signed=1", nil
}

type fakeSender struct {
	sent []string // recipients
	body string
	err  error
}

func (s *fakeSender) Send(to, _, htmlBody string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, to)
	s.body = htmlBody
	return nil
}

func newTestManager(t *testing.T, store *fakeStore, signer *fakeSigner, sender *fakeSender, now time.Time) *Manager {
	t.Helper()
	m := NewManager(store, signer, sender, Config{FrontendBaseURL: "https://app.example.com"}, zap.NewNop())
	m.now = func() time.Time { return now }
	return m
}

func TestIssueCreatesGrant(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	sender := &fakeSender{}
	m := newTestManager(t, store, &fakeSigner{}, sender, t0)

	grant, err := m.Issue(context.Background(), IssueRequest{
		FileID:          "f1",
		SharedWithEmail: "a@b.com",
		Role:            models.RoleViewer,
	})
	require.NoError(t, err)

	assert.Len(t, store.permissions, 1)
	assert.Equal(t, t0.Add(24*time.Hour), grant.Permission.ExpiresAt)
	assert.Equal(t, "a@b.com", grant.Permission.SharedWith)
	assert.Equal(t, models.RoleViewer, grant.Permission.Role)
	assert.Equal(t, "https://app.example.com/view-file/"+grant.Permission.Token, grant.ShareLink)
	assert.True(t, grant.EmailSent)
	assert.Equal(t, []string{"a@b.com"}, sender.sent)
	assert.Contains(t, sender.body, grant.ShareLink)
	assert.Contains(t, sender.body, "viewer")
}

func TestIssueTokenShape(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(t, store, &fakeSigner{}, &fakeSender{}, time.Now())

	hexToken := regexp.MustCompile(`^[0-9a-f]{64}$`)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		grant, err := m.Issue(context.Background(), IssueRequest{
			FileID:          "f1",
			SharedWithEmail: "a@b.com",
			Role:            models.RoleEditor,
		})
		require.NoError(t, err)
		require.Regexp(t, hexToken, grant.Permission.Token)
		require.False(t, seen[grant.Permission.Token], "duplicate token issued")
		seen[grant.Permission.Token] = true
	}
}

func TestIssueRejectsBadInput(t *testing.T) {
	store := newFakeStore()
	sender := &fakeSender{}
	m := newTestManager(t, store, &fakeSigner{}, sender, time.Now())

	cases := []IssueRequest{
		{FileID: "", SharedWithEmail: "a@b.com", Role: models.RoleViewer},
		{FileID: "f1", SharedWithEmail: "", Role: models.RoleViewer},
		{FileID: "f1", SharedWithEmail: "a@b.com", Role: ""},
		{FileID: "f1", SharedWithEmail: "a@b.com", Role: "admin"},
	}
	for _, req := range cases {
		_, err := m.Issue(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}

	assert.Empty(t, store.permissions, "no permission rows on validation failure")
	assert.Empty(t, sender.sent, "no mail on validation failure")
}

func TestIssuePersistenceFailure(t *testing.T) {
	store := newFakeStore()
	store.insertErr = errors.New("connection refused")
	sender := &fakeSender{}
	m := newTestManager(t, store, &fakeSigner{}, sender, time.Now())

	_, err := m.Issue(context.Background(), IssueRequest{
		FileID:          "f1",
		SharedWithEmail: "a@b.com",
		Role:            models.RoleViewer,
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, sender.sent, "no mail when the grant was never persisted")
}

func TestIssueNotificationFailureIsBestEffort(t *testing.T) {
	store := newFakeStore()
	sender := &fakeSender{err: errors.New("smtp: connection refused")}
	m := newTestManager(t, store, &fakeSigner{}, sender, time.Now())

	grant, err := m.Issue(context.Background(), IssueRequest{
		FileID:          "f1",
		SharedWithEmail: "a@b.com",
		Role:            models.RoleOwner,
	})
	require.NoError(t, err)
	assert.False(t, grant.EmailSent)
	assert.Len(t, store.permissions, 1, "grant stays durable when mail fails")
}

func TestValidateLifecycle(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.files["f1"] = models.File{ID: "f1", FileName: "1748779200000-report.pdf"}
	signer := &fakeSigner{}
	m := newTestManager(t, store, signer, &fakeSender{}, t0)

	grant, err := m.Issue(context.Background(), IssueRequest{
		FileID:          "f1",
		SharedWithEmail: "a@b.com",
		Role:            models.RoleViewer,
	})
	require.NoError(t, err)
	token := grant.Permission.Token

	// T0+1h: correct token and email redeems into a signed URL.
	m.now = func() time.Time { return t0.Add(time.Hour) }
	url, err := m.Validate(context.Background(), token, "a@b.com")
	require.NoError(t, err)
	assert.Contains(t, url, "1748779200000-report.pdf")
	assert.Equal(t, "1748779200000-report.pdf", signer.lastObject)
	assert.Equal(t, DefaultSignedURLTTL, signer.lastExpiry)

	// Redemption is not exclusive; the same token validates again.
	_, err = m.Validate(context.Background(), token, "a@b.com")
	require.NoError(t, err)

	// Wrong email fails regardless of expiry state.
	_, err = m.Validate(context.Background(), token, "x@y.com")
	assert.ErrorIs(t, err, ErrUnauthorizedEmail)

	// T0+25h: expired even with correct token and email.
	m.now = func() time.Time { return t0.Add(25 * time.Hour) }
	_, err = m.Validate(context.Background(), token, "a@b.com")
	assert.ErrorIs(t, err, ErrLinkExpired)

	// Wrong email still beats expiry in the check order.
	_, err = m.Validate(context.Background(), token, "x@y.com")
	assert.ErrorIs(t, err, ErrUnauthorizedEmail)

	// Unknown token.
	_, err = m.Validate(context.Background(), "deadbeef", "a@b.com")
	assert.ErrorIs(t, err, ErrInvalidLink)
}

func TestValidateEmailIsCaseSensitive(t *testing.T) {
	t0 := time.Now()
	store := newFakeStore()
	store.files["f1"] = models.File{ID: "f1", FileName: "obj"}
	m := newTestManager(t, store, &fakeSigner{}, &fakeSender{}, t0)

	grant, err := m.Issue(context.Background(), IssueRequest{
		FileID:          "f1",
		SharedWithEmail: "A@B.com",
		Role:            models.RoleViewer,
	})
	require.NoError(t, err)

	_, err = m.Validate(context.Background(), grant.Permission.Token, "a@b.com")
	assert.ErrorIs(t, err, ErrUnauthorizedEmail)
}

func TestValidateDownstreamFailures(t *testing.T) {
	t0 := time.Now()
	store := newFakeStore()
	signer := &fakeSigner{}
	m := newTestManager(t, store, signer, &fakeSender{}, t0)

	grant, err := m.Issue(context.Background(), IssueRequest{
		FileID:          "f1",
		SharedWithEmail: "a@b.com",
		Role:            models.RoleViewer,
	})
	require.NoError(t, err)

	// File lookup failure surfaces as a generic downstream error, not one of
	// the named share conditions.
	store.fileErr = errors.New("connection reset")
	_, err = m.Validate(context.Background(), grant.Permission.Token, "a@b.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidLink)
	assert.NotErrorIs(t, err, ErrLinkExpired)

	store.fileErr = nil
	store.files["f1"] = models.File{ID: "f1", FileName: "obj"}
	signer.err = errors.New("signing key unavailable")
	_, err = m.Validate(context.Background(), grant.Permission.Token, "a@b.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidLink)
}
