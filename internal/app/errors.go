package service

import "errors"

// Sentinel errors surfaced to the HTTP layer.
var (
	// ErrDuplicateUsername wraps repository.ErrConflict when the name is taken.
	ErrDuplicateUsername = errors.New("username already registered")
	// ErrInvalidCredentials covers both unknown users and wrong passwords.
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrNotStarted         = errors.New("service not started")
	ErrMissingScorer      = errors.New("no scorer configured")
)
