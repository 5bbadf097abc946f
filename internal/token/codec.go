// Package token signs and verifies the compact access and refresh tokens
// exchanged with clients.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/auth-keeper/internal/errs"
)

// Defaults applied by NewCodec when a TTL is zero.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour

	minSecretLen = 32
)

// AccessClaims is the payload of a short-lived access token. Validity is
// determined purely by signature and expiry; there is no revocation lookup.
type AccessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token. ID (jti) carries the
// ledger token id, Family the rotation lineage.
type RefreshClaims struct {
	Family string `json:"family"`
	jwt.RegisteredClaims
}

// TokenID returns the jti claim as a UUID.
func (c *RefreshClaims) TokenID() (uuid.UUID, error) { return uuid.FromString(c.ID) }

// FamilyID returns the family claim as a UUID.
func (c *RefreshClaims) FamilyID() (uuid.UUID, error) { return uuid.FromString(c.Family) }

// Codec signs HS256 tokens under two independent secrets, so that a leak of
// the access secret cannot forge refresh tokens and vice versa.
type Codec struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewCodec validates both secrets and constructs a codec. Secrets shorter
// than 32 bytes, or equal to each other, are configuration errors.
func NewCodec(accessKey, refreshKey []byte, accessTTL, refreshTTL time.Duration) (*Codec, error) {
	if len(accessKey) < minSecretLen {
		return nil, fmt.Errorf("access secret too short: %d bytes, need >= %d", len(accessKey), minSecretLen)
	}
	if len(refreshKey) < minSecretLen {
		return nil, fmt.Errorf("refresh secret too short: %d bytes, need >= %d", len(refreshKey), minSecretLen)
	}
	if string(accessKey) == string(refreshKey) {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &Codec{accessKey: accessKey, refreshKey: refreshKey, accessTTL: accessTTL, refreshTTL: refreshTTL}, nil
}

// AccessTTL reports the configured access token lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL reports the configured refresh token lifetime.
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// SignAccess mints a signed access token for the given subject.
func (c *Codec) SignAccess(userID uuid.UUID, email string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(c.accessTTL)
	claims := AccessClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.accessKey)
	return signed, exp, err
}

// VerifyAccess checks signature and expiry and returns the claims.
func (c *Codec) VerifyAccess(tokenString string) (*AccessClaims, error) {
	var claims AccessClaims
	if err := c.verify(tokenString, &claims, c.accessKey); err != nil {
		return nil, err
	}
	return &claims, nil
}

// SignRefresh mints a signed refresh token carrying the ledger token id and
// its family.
func (c *Codec) SignRefresh(userID, tokenID, family uuid.UUID) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(c.refreshTTL)
	claims := RefreshClaims{
		Family: family.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        tokenID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.refreshKey)
	return signed, exp, err
}

// VerifyRefresh checks signature and expiry and returns the claims.
func (c *Codec) VerifyRefresh(tokenString string) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := c.verify(tokenString, &claims, c.refreshKey); err != nil {
		return nil, err
	}
	if claims.ID == "" || claims.Family == "" {
		return nil, errs.ErrInvalidToken
	}
	return &claims, nil
}

// verify parses under key and maps jwt failures onto the error taxonomy:
// expiry is reported distinctly so callers can tell "refresh is warranted"
// from "token is garbage".
func (c *Codec) verify(tokenString string, claims jwt.Claims, key []byte) error {
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return errs.ErrExpiredToken
		}
		return errs.ErrInvalidToken
	}
	if !parsed.Valid {
		return errs.ErrInvalidToken
	}
	return nil
}
