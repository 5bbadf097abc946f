// Package service contains application services for credential management
// and refresh-token rotation.
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/auth-keeper/internal/errs"
	"github.com/and161185/auth-keeper/internal/model"
	"github.com/and161185/auth-keeper/internal/repository"
	"github.com/and161185/auth-keeper/internal/token"
)

// RotationEngine implements refresh-token issuance, rotation and reuse
// detection over the token ledger.
//
// Per family the engine maintains: at most one active token; rotation revokes
// the consumed token and creates exactly one successor; presenting an
// already-revoked token revokes the entire family.
type RotationEngine struct {
	ledger repository.TokenLedger
	users  repository.UserRepository
	codec  *token.Codec
}

// NewRotationEngine constructs the engine with its collaborators.
func NewRotationEngine(ledger repository.TokenLedger, users repository.UserRepository, codec *token.Codec) *RotationEngine {
	return &RotationEngine{ledger: ledger, users: users, codec: codec}
}

// Issue starts a new token family for userID and returns its first refresh
// token. Called once per successful login.
func (e *RotationEngine) Issue(ctx context.Context, userID uuid.UUID) (string, uuid.UUID, error) {
	family, err := uuid.NewV4()
	if err != nil {
		return "", uuid.Nil, err
	}
	refresh, err := e.mint(ctx, userID, family)
	if err != nil {
		return "", uuid.Nil, err
	}
	return refresh, family, nil
}

// Rotate consumes a presented refresh token and returns a fresh access/refresh
// pair in the same family.
//
// The revoke-old/create-new transition hinges on the ledger's conditional
// revoke: of two concurrent rotations of the same token exactly one wins; the
// loser observes an already-revoked record and takes the theft path.
func (e *RotationEngine) Rotate(ctx context.Context, presented string) (model.Tokens, error) {
	claims, err := e.codec.VerifyRefresh(presented)
	if err != nil {
		return model.Tokens{}, err
	}
	tokenID, err := claims.TokenID()
	if err != nil {
		return model.Tokens{}, errs.ErrInvalidToken
	}
	family, err := claims.FamilyID()
	if err != nil {
		return model.Tokens{}, errs.ErrInvalidToken
	}
	userID, err := uuid.FromString(claims.Subject)
	if err != nil {
		return model.Tokens{}, errs.ErrInvalidToken
	}

	rec, err := e.ledger.FindByTokenID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.Tokens{}, errs.ErrUnknownToken
		}
		return model.Tokens{}, err
	}

	// The ledger record must match the presented token exactly; a jti
	// collision with a different token body is not a usable credential.
	if subtle.ConstantTimeCompare([]byte(rec.TokenHash), []byte(token.Hash(presented))) != 1 {
		return model.Tokens{}, errs.ErrInvalidToken
	}
	if time.Now().After(rec.ExpiresAt) {
		return model.Tokens{}, errs.ErrExpiredToken
	}

	// Load the subject before any ledger mutation: if the account is gone
	// or the store is down, the presented token must stay unconsumed.
	u, err := e.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.Tokens{}, errs.ErrInvalidToken
		}
		return model.Tokens{}, err
	}

	// Reuse of a consumed token is the theft signal: invalidate the whole
	// lineage before failing. The revocation is the security response, not
	// cleanup.
	if rec.Revoked {
		if rerr := e.ledger.RevokeAllInFamily(ctx, family); rerr != nil {
			return model.Tokens{}, rerr
		}
		return model.Tokens{}, errs.ErrTokenTheft
	}

	won, err := e.ledger.ConditionalRevoke(ctx, tokenID)
	if err != nil {
		return model.Tokens{}, err
	}
	if !won {
		// Lost a concurrent rotation of the same token: same treatment as
		// observing it revoked up front.
		if rerr := e.ledger.RevokeAllInFamily(ctx, family); rerr != nil {
			return model.Tokens{}, rerr
		}
		return model.Tokens{}, errs.ErrTokenTheft
	}

	refresh, err := e.mint(ctx, userID, family)
	if err != nil {
		return model.Tokens{}, err
	}
	access, exp, err := e.codec.SignAccess(u.ID, u.Email)
	if err != nil {
		return model.Tokens{}, err
	}
	return model.Tokens{AccessToken: access, RefreshToken: refresh, ExpiresAt: exp}, nil
}

// RevokeToken marks a single record revoked (ordinary logout). Revoking an
// already-revoked token is a no-op, not a theft event: rotation has already
// invalidated ancestors and logout must stay idempotent.
func (e *RotationEngine) RevokeToken(ctx context.Context, tokenID uuid.UUID) error {
	_, err := e.ledger.ConditionalRevoke(ctx, tokenID)
	return err
}

// RevokeFamily marks every record in the family revoked (logout-everywhere
// and the theft response).
func (e *RotationEngine) RevokeFamily(ctx context.Context, family uuid.UUID) error {
	return e.ledger.RevokeAllInFamily(ctx, family)
}

// mint creates one ledger record and its signed token string within family.
func (e *RotationEngine) mint(ctx context.Context, userID, family uuid.UUID) (string, error) {
	tokenID, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	signed, exp, err := e.codec.SignRefresh(userID, tokenID, family)
	if err != nil {
		return "", err
	}
	rec := &model.RefreshToken{
		TokenID:   tokenID,
		UserID:    userID,
		Family:    family,
		TokenHash: token.Hash(signed),
		IssuedAt:  time.Now(),
		ExpiresAt: exp,
	}
	if err := e.ledger.Create(ctx, rec); err != nil {
		return "", err
	}
	return signed, nil
}
