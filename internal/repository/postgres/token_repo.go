package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/auth-keeper/internal/model"
)

// TokenRepo implements TokenLedger using PostgreSQL.
type TokenRepo struct{ db *DB }

// NewTokenRepo constructs a refresh-token ledger.
func NewTokenRepo(db *DB) *TokenRepo { return &TokenRepo{db: db} }

// Create inserts a new refresh-token record.
func (r *TokenRepo) Create(ctx context.Context, rec *model.RefreshToken) error {
	const q = `
INSERT INTO refresh_tokens (token_id, user_id, family, token_hash, issued_at, expires_at, revoked)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Pool.Exec(ctx, q,
		rec.TokenID, rec.UserID, rec.Family, rec.TokenHash, rec.IssuedAt, rec.ExpiresAt, rec.Revoked)
	if err != nil {
		return storeErr(err)
	}
	return nil
}

// FindByTokenID selects a record by its token id.
func (r *TokenRepo) FindByTokenID(ctx context.Context, tokenID uuid.UUID) (*model.RefreshToken, error) {
	const q = `
SELECT token_id, user_id, family, token_hash, issued_at, expires_at, revoked
FROM refresh_tokens WHERE token_id=$1`
	row := r.db.Pool.QueryRow(ctx, q, tokenID)
	var rec model.RefreshToken
	if err := row.Scan(&rec.TokenID, &rec.UserID, &rec.Family, &rec.TokenHash,
		&rec.IssuedAt, &rec.ExpiresAt, &rec.Revoked); err != nil {
		return nil, scanErr(err)
	}
	return &rec, nil
}

// ConditionalRevoke flips revoked from false to true for one record. The
// WHERE clause carries the expected state; the affected-row count tells the
// caller whether this call won the transition.
func (r *TokenRepo) ConditionalRevoke(ctx context.Context, tokenID uuid.UUID) (bool, error) {
	const q = `
UPDATE refresh_tokens SET revoked = true
WHERE token_id = $1 AND revoked = false`
	tag, err := r.db.Pool.Exec(ctx, q, tokenID)
	if err != nil {
		return false, storeErr(err)
	}
	return tag.RowsAffected() == 1, nil
}

// RevokeAllInFamily marks every record in the family revoked.
func (r *TokenRepo) RevokeAllInFamily(ctx context.Context, family uuid.UUID) error {
	const q = `UPDATE refresh_tokens SET revoked = true WHERE family = $1`
	if _, err := r.db.Pool.Exec(ctx, q, family); err != nil {
		return storeErr(err)
	}
	return nil
}
