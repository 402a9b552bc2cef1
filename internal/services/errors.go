package services

import "errors"

// ErrNotFound is returned by store lookups when no row matches. Callers
// should test with errors.Is since store methods wrap it with context.
var ErrNotFound = errors.New("record not found")
