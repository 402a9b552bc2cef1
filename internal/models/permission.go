package models

import (
	"time"
)

// Role is the capability granted by a share. It is stored with the grant but
// not enforced beyond that; downstream authorization is the frontend's job.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
	RoleOwner  Role = "owner"
)

func (r Role) Valid() bool {
	switch r {
	case RoleViewer, RoleEditor, RoleOwner:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// Permission is one share grant: a bearer token tied to a file, a recipient
// email and an absolute expiry. Rows are immutable after insert.
type Permission struct {
	ID         string    `json:"id"`
	FileID     string    `json:"file_id"`
	SharedWith string    `json:"shared_with"`
	Role       Role      `json:"role"`
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}
