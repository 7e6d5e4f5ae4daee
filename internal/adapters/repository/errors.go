package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound = errors.New("user not found")
	ErrConflict = errors.New("username already exists")
)
