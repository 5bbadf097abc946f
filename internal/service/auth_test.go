package service

import (
	"context"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/gofrs/uuid/v5"

	pkgcrypto "github.com/and161185/auth-keeper/internal/crypto"
	"github.com/and161185/auth-keeper/internal/errs"
)

func newAuthStack(t *testing.T) (*AuthServiceImpl, *fakeUsers, *fakeLedger) {
	t.Helper()
	users := newFakeUsers()
	ledger := newFakeLedger()
	codec := testCodec(t, 0)

	key, err := pkgcrypto.RandBytes(32)
	if err != nil {
		t.Fatalf("RandBytes: %v", err)
	}
	cipher, err := pkgcrypto.NewSecretCipher(hex.EncodeToString(key))
	if err != nil {
		t.Fatalf("NewSecretCipher: %v", err)
	}

	engine := NewRotationEngine(ledger, users, codec)
	svc, err := NewAuthService(users, engine, codec, cipher)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	return svc, users, ledger
}

func TestAuth_Register_Validation(t *testing.T) {
	t.Parallel()
	svc, _, _ := newAuthStack(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"no at sign", "alicex.com", "Str0ng!Passw0rd", errs.ErrInvalidEmail},
		{"no domain dot", "alice@xcom", "Str0ng!Passw0rd", errs.ErrInvalidEmail},
		{"embedded space", "a lice@x.com", "Str0ng!Passw0rd", errs.ErrInvalidEmail},
		{"too short", "alice@x.com", "Sh0rt!pw", errs.ErrWeakPassword},
		{"no upper", "alice@x.com", "str0ng!passw0rd", errs.ErrWeakPassword},
		{"no lower", "alice@x.com", "STR0NG!PASSW0RD", errs.ErrWeakPassword},
		{"no digit", "alice@x.com", "Strong!Password", errs.ErrWeakPassword},
		{"no symbol", "alice@x.com", "Str0ngPassw0rd", errs.ErrWeakPassword},
	}
	for _, tc := range cases {
		if _, err := svc.Register(ctx, tc.email, tc.password, ""); !errors.Is(err, tc.wantErr) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.wantErr)
		}
	}
}

func TestAuth_Register_StoresDigestNotPassword(t *testing.T) {
	t.Parallel()
	svc, users, _ := newAuthStack(t)
	ctx := context.Background()

	id, err := svc.Register(ctx, "alice@x.com", "Str0ng!Passw0rd", "Alice")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if id == "" {
		t.Fatalf("empty user id")
	}

	u, err := users.GetByEmail(ctx, "alice@x.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if u.PwdHash == "Str0ng!Passw0rd" {
		t.Fatalf("password stored in plaintext")
	}
	if !pkgcrypto.VerifyPassword(u.PwdHash, "Str0ng!Passw0rd") {
		t.Fatalf("stored digest does not verify")
	}

	// Same email again conflicts.
	if _, err := svc.Register(ctx, "alice@x.com", "An0ther!Passw0rd", ""); !errors.Is(err, errs.ErrAlreadyExists) {
		t.Fatalf("duplicate: got %v, want ErrAlreadyExists", err)
	}
}

func TestAuth_Login_UnknownAndWrongPasswordAreIdentical(t *testing.T) {
	t.Parallel()
	svc, _, _ := newAuthStack(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "bob@x.com", "Str0ng!Passw0rd", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, errUnknown := svc.Login(ctx, "nonexistent@x.com", "AnyPassw0rd!!")
	_, errWrong := svc.Login(ctx, "bob@x.com", "Wr0ng!Passw0rd")

	if !errors.Is(errUnknown, errs.ErrInvalidCredentials) {
		t.Fatalf("unknown email: got %v", errUnknown)
	}
	if !errors.Is(errWrong, errs.ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v", errWrong)
	}
	if errUnknown.Error() != errWrong.Error() {
		t.Fatalf("error texts differ: %q vs %q — enumeration leak", errUnknown, errWrong)
	}
}

func TestAuth_Login_StoreFailureIsNotInvalidCredentials(t *testing.T) {
	t.Parallel()
	svc, users, _ := newAuthStack(t)
	ctx := context.Background()

	users.getErr = errs.ErrStoreUnavailable
	_, err := svc.Login(ctx, "whoever@x.com", "Str0ng!Passw0rd")
	if !errors.Is(err, errs.ErrStoreUnavailable) {
		t.Fatalf("got %v, want ErrStoreUnavailable", err)
	}
	if errors.Is(err, errs.ErrInvalidCredentials) {
		t.Fatalf("store failure masked as invalid credentials")
	}
}

// Full protocol walk: register, login, rotate, reuse-detection, family burn.
func TestAuth_LoginRefreshTheftScenario(t *testing.T) {
	t.Parallel()
	svc, _, _ := newAuthStack(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice@x.com", "Str0ng!Passw0rd", "Alice"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	first, err := svc.Login(ctx, "alice@x.com", "Str0ng!Passw0rd")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if first.AccessToken == "" || first.RefreshToken == "" {
		t.Fatalf("login returned empty tokens")
	}

	second, err := svc.Refresh(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh(R1): %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatalf("refresh did not rotate the token")
	}

	// R1 was consumed; presenting it again burns the family.
	if _, err := svc.Refresh(ctx, first.RefreshToken); !errors.Is(err, errs.ErrTokenTheft) {
		t.Fatalf("Refresh(R1 again): got %v, want ErrTokenTheft", err)
	}
	if _, err := svc.Refresh(ctx, second.RefreshToken); !errors.Is(err, errs.ErrTokenTheft) {
		t.Fatalf("Refresh(R2 after theft): got %v, want ErrTokenTheft", err)
	}

	// A fresh login starts a new family and works normally.
	third, err := svc.Login(ctx, "alice@x.com", "Str0ng!Passw0rd")
	if err != nil {
		t.Fatalf("Login(2): %v", err)
	}
	if _, err := svc.Refresh(ctx, third.RefreshToken); err != nil {
		t.Fatalf("Refresh(new family): %v", err)
	}
}

func TestAuth_Logout(t *testing.T) {
	t.Parallel()
	svc, _, _ := newAuthStack(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "carol@x.com", "Str0ng!Passw0rd", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	tokens, err := svc.Login(ctx, "carol@x.com", "Str0ng!Passw0rd")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := svc.Logout(ctx, tokens.RefreshToken, false); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	// Logout is idempotent, not a theft event.
	if err := svc.Logout(ctx, tokens.RefreshToken, false); err != nil {
		t.Fatalf("Logout(2): %v", err)
	}
	if err := svc.Logout(ctx, "garbage", false); !errors.Is(err, errs.ErrInvalidToken) {
		t.Fatalf("Logout(garbage): got %v, want ErrInvalidToken", err)
	}
}

func TestAuth_LogoutEverywhere(t *testing.T) {
	t.Parallel()
	svc, _, ledger := newAuthStack(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "dave@x.com", "Str0ng!Passw0rd", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	tokens, err := svc.Login(ctx, "dave@x.com", "Str0ng!Passw0rd")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	rotated, err := svc.Refresh(ctx, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if err := svc.Logout(ctx, rotated.RefreshToken, true); err != nil {
		t.Fatalf("Logout everywhere: %v", err)
	}

	ledger.mu.Lock()
	for _, rec := range ledger.recs {
		if !rec.Revoked {
			t.Fatalf("record %v still active after logout-everywhere", rec.TokenID)
		}
	}
	ledger.mu.Unlock()
}

func TestAuth_IssueRecoveryCodes(t *testing.T) {
	t.Parallel()
	svc, users, _ := newAuthStack(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "erin@x.com", "Str0ng!Passw0rd", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	u, err := users.GetByEmail(ctx, "erin@x.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}

	codes, err := svc.IssueRecoveryCodes(ctx, u.ID)
	if err != nil {
		t.Fatalf("IssueRecoveryCodes: %v", err)
	}
	if len(codes) != recoveryCodeCount {
		t.Fatalf("got %d codes, want %d", len(codes), recoveryCodeCount)
	}

	stored, err := users.GetByEmail(ctx, "erin@x.com")
	if err != nil {
		t.Fatalf("GetByEmail(2): %v", err)
	}
	if stored.RecoveryCodesEnc == "" {
		t.Fatalf("no envelope persisted")
	}
	for _, code := range codes {
		if stored.RecoveryCodesEnc == code {
			t.Fatalf("envelope equals a plaintext code")
		}
	}

	got, err := svc.cipher.DecryptRecoveryCodes(stored.RecoveryCodesEnc)
	if err != nil {
		t.Fatalf("DecryptRecoveryCodes: %v", err)
	}
	if len(got) != len(codes) || got[0] != codes[0] {
		t.Fatalf("decrypted batch differs from issued codes")
	}

	if _, err := svc.IssueRecoveryCodes(ctx, uuid.Must(uuid.NewV4())); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("unknown user: got %v, want ErrNotFound", err)
	}
}

func TestPasswordStrength(t *testing.T) {
	t.Parallel()

	cases := []struct {
		password string
		want     int
	}{
		{"", 0},
		{"abc", 0},
		{"abcdefgh", 1},
		{"Abcdefgh1", 3},
		{"Str0ng!Passw0rd", 4},
	}
	for _, tc := range cases {
		if got := PasswordStrength(tc.password); got != tc.want {
			t.Fatalf("PasswordStrength(%q)=%d, want %d", tc.password, got, tc.want)
		}
	}
}
