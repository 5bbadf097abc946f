package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/auth-keeper/internal/errs"
	"github.com/and161185/auth-keeper/internal/model"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a new user row.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = `
INSERT INTO users (id, email, pwd_hash, name, recovery_codes_enc)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Pool.Exec(ctx, q, u.ID, u.Email, u.PwdHash, u.Name, u.RecoveryCodesEnc)
	if err != nil {
		if isUniqueViolation(err) {
			return errs.ErrAlreadyExists
		}
		return storeErr(err)
	}
	return nil
}

// GetByID selects a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	const q = `
SELECT id, email, pwd_hash, name, recovery_codes_enc, created_at
FROM users WHERE id=$1`
	return r.scanUser(r.db.Pool.QueryRow(ctx, q, id))
}

// GetByEmail selects a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `
SELECT id, email, pwd_hash, name, recovery_codes_enc, created_at
FROM users WHERE email=$1`
	return r.scanUser(r.db.Pool.QueryRow(ctx, q, email))
}

// SetRecoveryCodes replaces the encrypted recovery-code batch for a user.
func (r *UserRepo) SetRecoveryCodes(ctx context.Context, id uuid.UUID, envelope string) error {
	const q = `UPDATE users SET recovery_codes_enc = $2 WHERE id = $1`
	tag, err := r.db.Pool.Exec(ctx, q, id, envelope)
	if err != nil {
		return storeErr(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *UserRepo) scanUser(row interface{ Scan(dest ...any) error }) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Email, &u.PwdHash, &u.Name, &u.RecoveryCodesEnc, &u.CreatedAt); err != nil {
		return nil, scanErr(err)
	}
	return &u, nil
}
