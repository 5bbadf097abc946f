// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/auth-keeper/internal/model"
)

// UserRepository provides access to user records.
type UserRepository interface {
	// Create inserts a new user; errs.ErrAlreadyExists on a duplicate email.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user by ID; errs.ErrNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByEmail loads a user by email; errs.ErrNotFound if absent.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// SetRecoveryCodes replaces the user's encrypted recovery-code batch.
	SetRecoveryCodes(ctx context.Context, id uuid.UUID, envelope string) error
}
