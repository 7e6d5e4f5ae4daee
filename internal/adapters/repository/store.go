// Package repository persists user identities.
package repository

import (
	"context"

	"github.com/okian/inningscast/internal/domain/model"
)

// Store provides read/write access to user identities.
type Store interface {
	// Find returns the user with exactly this username.
	// Returns ErrNotFound if no such user exists.
	Find(ctx context.Context, username string) (model.User, error)

	// Create inserts a new user and returns the stored record.
	// Returns ErrConflict if the username is taken.
	Create(ctx context.Context, username, passwordHash string) (model.User, error)

	// Count returns the number of registered users.
	Count(ctx context.Context) (int, error)

	// Close releases the store's resources.
	Close() error
}
