package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/auth-keeper/internal/model"
)

// TokenLedger is the durable record store for refresh-token metadata.
//
// ConditionalRevoke is the concurrency primitive the rotation protocol is
// built on: it must flip revoked only from false to true and report whether
// this call performed the transition, so that two concurrent rotations of the
// same token resolve into exactly one winner.
type TokenLedger interface {
	// Create inserts a new refresh-token record with revoked=false.
	Create(ctx context.Context, rec *model.RefreshToken) error
	// FindByTokenID loads a record; errs.ErrNotFound if absent.
	FindByTokenID(ctx context.Context, tokenID uuid.UUID) (*model.RefreshToken, error)
	// ConditionalRevoke marks the record revoked iff it is not already.
	// Returns true iff this call performed the transition.
	ConditionalRevoke(ctx context.Context, tokenID uuid.UUID) (bool, error)
	// RevokeAllInFamily marks every record in the family revoked.
	RevokeAllInFamily(ctx context.Context, family uuid.UUID) error
}
