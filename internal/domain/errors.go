package domain

import "errors"

var (
	// ErrMissingScope is returned when the OAuth grant does not include users:write.
	ErrMissingScope     = errors.New("slack did not grant the users:write scope")
	ErrNotAuthenticated = errors.New("user has not connected their slack account")
)
