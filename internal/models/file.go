package models

import (
	"time"
)

// File is one row in the files table. FileName doubles as the object key in
// the storage bucket; FileURL is the public-style URL composed at upload time.
type File struct {
	ID          string     `json:"id"`
	FolderID    *string    `json:"folder_id,omitempty"`
	FileName    string     `json:"file_name"`
	FileURL     string     `json:"file_url"`
	Size        int64      `json:"size"`
	Format      string     `json:"format"`
	PreviewPath string     `json:"preview_path,omitempty"`
	ScanStatus  string     `json:"scan_status,omitempty"`
	ScannedAt   *time.Time `json:"scanned_at,omitempty"`
	UserID      string     `json:"user_id"`
	UploadedAt  time.Time  `json:"uploaded_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// ObjectKey returns the key of the stored object backing this file.
func (f File) ObjectKey() string {
	return f.FileName
}
