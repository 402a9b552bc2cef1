package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/file-manager-grev/file-service/internal/models"
	_ "github.com/lib/pq"
)

// Store handles all PostgreSQL operations for files, folders and share
// permissions.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// NewStore connects to PostgreSQL, verifies the connection and creates the
// schema if it does not exist yet.
func NewStore(connectionString string, log *zap.Logger) (*Store, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{db: db, log: log}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Info("connected to PostgreSQL")
	return s, nil
}

func (s *Store) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS folders (
            id UUID PRIMARY KEY,
            folder_name VARCHAR(255) NOT NULL,
            folder_url VARCHAR(500) NOT NULL,
            user_id VARCHAR(255) NOT NULL,
            uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            deleted_at TIMESTAMPTZ
        )`,
		`CREATE TABLE IF NOT EXISTS files (
            id UUID PRIMARY KEY,
            folder_id UUID REFERENCES folders(id),
            file_name VARCHAR(500) NOT NULL,
            file_url VARCHAR(1000) NOT NULL,
            size BIGINT NOT NULL,
            format VARCHAR(255) NOT NULL,
            preview_path VARCHAR(500) DEFAULT '',
            scan_status VARCHAR(50) DEFAULT 'pending',
            scanned_at TIMESTAMPTZ,
            user_id VARCHAR(255) NOT NULL,
            uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            deleted_at TIMESTAMPTZ
        )`,
		`CREATE TABLE IF NOT EXISTS permissions (
            id UUID PRIMARY KEY,
            file_id UUID NOT NULL REFERENCES files(id) ON DELETE CASCADE,
            shared_with VARCHAR(255) NOT NULL,
            role VARCHAR(20) NOT NULL,
            token VARCHAR(64) NOT NULL UNIQUE,
            expires_at TIMESTAMPTZ NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_files_user_id ON files(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_files_folder_id ON files(folder_id)`,
		`CREATE INDEX IF NOT EXISTS idx_permissions_token ON permissions(token)`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ---- files ----

const fileColumns = `id, folder_id, file_name, file_url, size, format, preview_path, scan_status, scanned_at, user_id, uploaded_at, deleted_at`

func scanFile(row interface{ Scan(...any) error }) (models.File, error) {
	var f models.File
	err := row.Scan(
		&f.ID,
		&f.FolderID,
		&f.FileName,
		&f.FileURL,
		&f.Size,
		&f.Format,
		&f.PreviewPath,
		&f.ScanStatus,
		&f.ScannedAt,
		&f.UserID,
		&f.UploadedAt,
		&f.DeletedAt,
	)
	return f, err
}

func (s *Store) InsertFile(ctx context.Context, f models.File) error {
	query := `
    INSERT INTO files (id, folder_id, file_name, file_url, size, format, preview_path, scan_status, user_id, uploaded_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `
	_, err := s.db.ExecContext(ctx, query,
		f.ID, f.FolderID, f.FileName, f.FileURL, f.Size, f.Format, f.PreviewPath, f.ScanStatus, f.UserID, f.UploadedAt)
	return err
}

func (s *Store) GetFile(ctx context.Context, fileID string) (models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1`
	f, err := scanFile(s.db.QueryRowContext(ctx, query, fileID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.File{}, fmt.Errorf("file %s: %w", fileID, ErrNotFound)
		}
		return models.File{}, err
	}
	return f, nil
}

// ListFiles returns all files not in the trash.
func (s *Store) ListFiles(ctx context.Context) ([]models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE deleted_at IS NULL ORDER BY uploaded_at DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.log.Warn("closing rows", zap.Error(cerr))
		}
	}()

	files := []models.File{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (s *Store) UpdateFilePreview(ctx context.Context, fileID, previewPath string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE files SET preview_path = $1 WHERE id = $2`, previewPath, fileID)
	return err
}

func (s *Store) UpdateFileScanStatus(ctx context.Context, fileID, status string, scannedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE files SET scan_status = $1, scanned_at = $2 WHERE id = $3`, status, scannedAt, fileID)
	return err
}

// ---- folders ----

func (s *Store) InsertFolder(ctx context.Context, f models.Folder) error {
	query := `
    INSERT INTO folders (id, folder_name, folder_url, user_id, uploaded_at)
    VALUES ($1, $2, $3, $4, $5)
    `
	_, err := s.db.ExecContext(ctx, query, f.ID, f.FolderName, f.FolderURL, f.UserID, f.UploadedAt)
	return err
}

// ListFolders returns all folders not in the trash.
func (s *Store) ListFolders(ctx context.Context) ([]models.Folder, error) {
	query := `
    SELECT id, folder_name, folder_url, user_id, uploaded_at, deleted_at
    FROM folders WHERE deleted_at IS NULL ORDER BY uploaded_at DESC
    `
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.log.Warn("closing rows", zap.Error(cerr))
		}
	}()

	folders := []models.Folder{}
	for rows.Next() {
		var f models.Folder
		if err := rows.Scan(&f.ID, &f.FolderName, &f.FolderURL, &f.UserID, &f.UploadedAt, &f.DeletedAt); err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// ---- rename / trash / restore / permanent delete ----

// EntityKind selects which table an edit operation targets.
type EntityKind string

const (
	KindFolder EntityKind = "folder"
	KindFiles  EntityKind = "files"
)

func (k EntityKind) Valid() bool {
	return k == KindFolder || k == KindFiles
}

func (k EntityKind) table() string {
	if k == KindFolder {
		return "folders"
	}
	return "files"
}

func (k EntityKind) nameColumn() string {
	if k == KindFolder {
		return "folder_name"
	}
	return "file_name"
}

func (s *Store) Rename(ctx context.Context, kind EntityKind, id, newName string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $1 WHERE id = $2`, kind.table(), kind.nameColumn())
	return s.execOne(ctx, query, newName, id)
}

// SoftDelete moves a row to the trash by stamping deleted_at.
func (s *Store) SoftDelete(ctx context.Context, kind EntityKind, id string, at time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET deleted_at = $1 WHERE id = $2`, kind.table())
	return s.execOne(ctx, query, at, id)
}

// Restore clears deleted_at, bringing a row back from the trash.
func (s *Store) Restore(ctx context.Context, kind EntityKind, id string) error {
	query := fmt.Sprintf(`UPDATE %s SET deleted_at = NULL WHERE id = $1`, kind.table())
	return s.execOne(ctx, query, id)
}

// HardDelete removes the row for good.
func (s *Store) HardDelete(ctx context.Context, kind EntityKind, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, kind.table())
	return s.execOne(ctx, query, id)
}

func (s *Store) execOne(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- permissions ----

// InsertPermission persists a share grant. The file_id foreign key rejects
// grants against files that do not exist.
func (s *Store) InsertPermission(ctx context.Context, p models.Permission) (models.Permission, error) {
	query := `
    INSERT INTO permissions (id, file_id, shared_with, role, token, expires_at, created_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.FileID, p.SharedWith, p.Role.String(), p.Token, p.ExpiresAt, p.CreatedAt)
	if err != nil {
		return models.Permission{}, err
	}
	return p, nil
}

// GetPermissionByToken looks up a share grant by its exact token.
func (s *Store) GetPermissionByToken(ctx context.Context, token string) (models.Permission, error) {
	query := `
    SELECT id, file_id, shared_with, role, token, expires_at, created_at
    FROM permissions WHERE token = $1
    `
	var p models.Permission
	err := s.db.QueryRowContext(ctx, query, token).Scan(
		&p.ID, &p.FileID, &p.SharedWith, &p.Role, &p.Token, &p.ExpiresAt, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Permission{}, fmt.Errorf("permission: %w", ErrNotFound)
		}
		return models.Permission{}, err
	}
	return p, nil
}
