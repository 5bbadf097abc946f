// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// User represents an account. PwdHash is a self-contained argon2id digest
// (parameters and salt embedded); the raw password is never stored.
type User struct {
	ID               uuid.UUID // PK
	Email            string    // unique
	PwdHash          string    // argon2id PHC string
	Name             string    // optional display name
	RecoveryCodesEnc string    // AEAD envelope of the recovery-code batch, empty if none issued
	CreatedAt        time.Time
}

// RefreshToken is the durable ledger record for one issued refresh token.
// TokenHash holds SHA-256 of the issued token string, never the raw value.
type RefreshToken struct {
	TokenID   uuid.UUID // jti claim, unique, never reused
	UserID    uuid.UUID // FK -> users.id
	Family    uuid.UUID // lineage shared by all rotations from one login
	TokenHash string    // hex SHA-256 of the signed token string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Revoked   bool
}

// Tokens collects the pair returned by login and refresh.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time // access token expiry (for diagnostics)
}
