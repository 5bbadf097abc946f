package service

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"

	pkgcrypto "github.com/and161185/auth-keeper/internal/crypto"
	"github.com/and161185/auth-keeper/internal/errs"
	"github.com/and161185/auth-keeper/internal/model"
	"github.com/and161185/auth-keeper/internal/repository"
	"github.com/and161185/auth-keeper/internal/token"
)

const recoveryCodeCount = 10

// AuthService defines the credential use cases exposed to the transport layer.
type AuthService interface {
	// Register validates input, hashes the password and creates the user.
	Register(ctx context.Context, email, password, name string) (userID string, err error)
	// Login authenticates and starts a new token family.
	Login(ctx context.Context, email, password string) (model.Tokens, error)
	// Refresh rotates the presented refresh token.
	Refresh(ctx context.Context, refreshToken string) (model.Tokens, error)
	// Logout revokes the presented token, or its whole family if everywhere.
	Logout(ctx context.Context, refreshToken string, everywhere bool) error
	// IssueRecoveryCodes generates a recovery-code batch for the user,
	// stores it encrypted and returns the plaintext codes exactly once.
	IssueRecoveryCodes(ctx context.Context, userID uuid.UUID) ([]string, error)
}

type AuthServiceImpl struct {
	users  repository.UserRepository
	engine *RotationEngine
	codec  *token.Codec
	cipher *pkgcrypto.SecretCipher

	// decoyDigest is verified against on the unknown-email login path so
	// both InvalidCredentials outcomes cost one argon2 computation.
	decoyDigest string
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, engine *RotationEngine, codec *token.Codec, cipher *pkgcrypto.SecretCipher) (*AuthServiceImpl, error) {
	decoy, err := pkgcrypto.HashPassword("decoy-not-a-real-password")
	if err != nil {
		return nil, err
	}
	return &AuthServiceImpl{users: users, engine: engine, codec: codec, cipher: cipher, decoyDigest: decoy}, nil
}

// Register creates a new user record with a self-contained password digest.
func (s *AuthServiceImpl) Register(ctx context.Context, email, password, name string) (string, error) {
	if !isValidEmail(email) {
		return "", errs.ErrInvalidEmail
	}
	if !isStrongPassword(password) {
		return "", errs.ErrWeakPassword
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	digest, err := pkgcrypto.HashPassword(password)
	if err != nil {
		return "", err
	}
	u := &model.User{ID: uid, Email: email, PwdHash: digest, Name: name}
	if err := s.users.Create(ctx, u); err != nil {
		return "", err
	}
	return uid.String(), nil
}

// Login verifies credentials and returns a fresh access/refresh pair.
// Unknown email and wrong password produce the same error.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (model.Tokens, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			// Burn a verification anyway so this path is not cheaper than
			// the wrong-password one.
			pkgcrypto.VerifyPassword(s.decoyDigest, password)
			return model.Tokens{}, errs.ErrInvalidCredentials
		}
		return model.Tokens{}, err
	}
	if !pkgcrypto.VerifyPassword(u.PwdHash, password) {
		return model.Tokens{}, errs.ErrInvalidCredentials
	}

	refresh, _, err := s.engine.Issue(ctx, u.ID)
	if err != nil {
		return model.Tokens{}, err
	}
	access, exp, err := s.codec.SignAccess(u.ID, u.Email)
	if err != nil {
		return model.Tokens{}, err
	}
	return model.Tokens{AccessToken: access, RefreshToken: refresh, ExpiresAt: exp}, nil
}

// Refresh delegates to the rotation engine; its failure kinds pass through
// unchanged.
func (s *AuthServiceImpl) Refresh(ctx context.Context, refreshToken string) (model.Tokens, error) {
	return s.engine.Rotate(ctx, refreshToken)
}

// Logout resolves the presented token and revokes it; with everywhere set it
// revokes the whole family instead.
func (s *AuthServiceImpl) Logout(ctx context.Context, refreshToken string, everywhere bool) error {
	claims, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		return err
	}
	if everywhere {
		family, err := claims.FamilyID()
		if err != nil {
			return errs.ErrInvalidToken
		}
		return s.engine.RevokeFamily(ctx, family)
	}
	tokenID, err := claims.TokenID()
	if err != nil {
		return errs.ErrInvalidToken
	}
	return s.engine.RevokeToken(ctx, tokenID)
}

// IssueRecoveryCodes generates, encrypts and stores a fresh code batch.
// The plaintext codes are returned once and exist nowhere else.
func (s *AuthServiceImpl) IssueRecoveryCodes(ctx context.Context, userID uuid.UUID) ([]string, error) {
	codes, err := pkgcrypto.GenerateRecoveryCodes(recoveryCodeCount)
	if err != nil {
		return nil, err
	}
	envelope, err := s.cipher.EncryptRecoveryCodes(codes)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetRecoveryCodes(ctx, userID, envelope); err != nil {
		return nil, err
	}
	return codes, nil
}
