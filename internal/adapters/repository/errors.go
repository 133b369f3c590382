package repository

import "errors"

// Sentinel kinds for session store errors.
var (
	ErrNotFound       = errors.New("session not found")
	ErrUnknownBackend = errors.New("unknown store backend")
	ErrInvalidSession = errors.New("invalid session record")
)
