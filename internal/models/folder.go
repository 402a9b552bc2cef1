package models

import (
	"time"
)

type Folder struct {
	ID         string     `json:"id"`
	FolderName string     `json:"folder_name"`
	FolderURL  string     `json:"folder_url"`
	UserID     string     `json:"user_id"`
	UploadedAt time.Time  `json:"uploaded_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}
