package share

import "errors"

var (
	// ErrInvalidInput covers missing fields and roles outside the valid set.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidLink means no share grant exists for the presented token.
	ErrInvalidLink = errors.New("invalid link")

	// ErrUnauthorizedEmail means the token exists but the requesting email is
	// not the one the grant was issued to.
	ErrUnauthorizedEmail = errors.New("unauthorized email")

	// ErrLinkExpired means the grant's expiry has passed.
	ErrLinkExpired = errors.New("link expired")
)
