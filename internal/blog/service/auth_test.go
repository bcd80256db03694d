package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/blog/internal/blog/domain"
	"github.com/aussiebroadwan/blog/internal/blog/emailcheck"
	"github.com/aussiebroadwan/blog/internal/blog/service"
	"github.com/aussiebroadwan/blog/internal/blog/store"
	"github.com/aussiebroadwan/blog/pkg/cryptox"
	"github.com/aussiebroadwan/blog/pkg/jwtx"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func TestRegister_Uniqueness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice, err := f.auth.Register(ctx, service.RegisterInput{
		Username: "alice", Email: "a@x.com", Password: "pw", FullName: "Alice",
	})
	require.NoError(t, err)
	require.Positive(t, alice.ID)
	require.Equal(t, "Alice", alice.FullName)
	require.NotEqual(t, "pw", alice.PasswordHash)

	_, err = f.auth.Register(ctx, service.RegisterInput{
		Username: "alice", Email: "other@x.com", Password: "pw", FullName: "Alice",
	})
	require.ErrorIs(t, err, service.ErrUsernameTaken)

	_, err = f.auth.Register(ctx, service.RegisterInput{
		Username: "alice2", Email: "a@x.com", Password: "pw", FullName: "Alice",
	})
	require.ErrorIs(t, err, service.ErrEmailTaken)
}

// lookupMissStore hides existing users from the pre-insert lookups, the view
// a registration has when another one commits between its check and insert.
type lookupMissStore struct{ store.Store }

func (s lookupMissStore) Users() store.Users { return lookupMissUsers{s.Store.Users()} }

type lookupMissUsers struct{ store.Users }

func (lookupMissUsers) GetUserByUsername(context.Context, string) (domain.User, error) {
	return domain.User{}, store.ErrNotFound
}

func (lookupMissUsers) GetUserByEmail(context.Context, string) (domain.User, error) {
	return domain.User{}, store.ErrNotFound
}

func TestRegister_ConstraintIsAuthoritative(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "pw")
	f.auth.Store = lookupMissStore{f.store}
	ctx := context.Background()

	_, err := f.auth.Register(ctx, service.RegisterInput{
		Username: "alice", Email: "fresh@x.com", Password: "pw",
	})
	require.ErrorIs(t, err, service.ErrUsernameTaken)

	_, err = f.auth.Register(ctx, service.RegisterInput{
		Username: "alice2", Email: "alice@x.com", Password: "pw",
	})
	require.ErrorIs(t, err, service.ErrEmailTaken)
}

func TestRegister_ConcurrentSameUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.auth.Register(ctx, service.RegisterInput{
				Username: "alice", Email: fmt.Sprintf("alice%d@x.com", i), Password: "pw",
			})
		}()
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, service.ErrUsernameTaken)
	}
	require.Equal(t, 1, ok)
}

func TestRegister_UsernameWhitespace(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "pw")

	for _, name := range []string{" alice", "alice ", "\talice", " "} {
		_, err := f.auth.Register(context.Background(), service.RegisterInput{
			Username: name, Email: "ws@x.com", Password: "pw",
		})
		require.ErrorIs(t, err, service.ErrInvalidInput, "username %q", name)
	}
}

func TestRegister_UsernameIsCaseSensitive(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "pw")

	_, err := f.auth.Register(context.Background(), service.RegisterInput{
		Username: "Alice", Email: "upper@x.com", Password: "pw",
	})
	require.NoError(t, err)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		in   service.RegisterInput
		want error
	}{
		{"missing username", service.RegisterInput{Email: "a@x.com", Password: "pw"}, service.ErrInvalidInput},
		{"missing password", service.RegisterInput{Username: "a", Email: "a@x.com"}, service.ErrInvalidInput},
		{"not an address", service.RegisterInput{Username: "a", Email: "nope", Password: "pw"}, service.ErrInvalidEmail},
		{"display name form", service.RegisterInput{Username: "a", Email: "A <a@x.com>", Password: "pw"}, service.ErrInvalidEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.auth.Register(context.Background(), tt.in)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRegister_EmailPolicy(t *testing.T) {
	down := errors.New("connection refused")

	tests := []struct {
		name    string
		policy  emailcheck.Policy
		verdict emailcheck.Verdict
		err     error
		wantErr error
	}{
		{"valid passes", emailcheck.PolicyFailClosed, emailcheck.Valid, nil, nil},
		{"invalid rejected fail open", emailcheck.PolicyFailOpen, emailcheck.Invalid, nil, service.ErrInvalidEmail},
		{"invalid rejected fail closed", emailcheck.PolicyFailClosed, emailcheck.Invalid, nil, service.ErrInvalidEmail},
		{"outage admitted fail open", emailcheck.PolicyFailOpen, emailcheck.Unknown, down, nil},
		{"outage rejected fail closed", emailcheck.PolicyFailClosed, emailcheck.Unknown, down, service.ErrInvalidEmail},
		{"unknown admitted fail open", emailcheck.PolicyFailOpen, emailcheck.Unknown, nil, nil},
		{"off ignores verifier", emailcheck.PolicyOff, emailcheck.Invalid, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.auth.EmailVerifier = &stubVerifier{verdict: tt.verdict, err: tt.err}
			f.auth.EmailPolicy = tt.policy

			_, err := f.auth.Register(context.Background(), service.RegisterInput{
				Username: "bob", Email: "bob@x.com", Password: "pw",
			})
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRegister_UniquenessBeforeVerifier(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "pw")

	v := &stubVerifier{verdict: emailcheck.Valid}
	f.auth.EmailVerifier = v
	f.auth.EmailPolicy = emailcheck.PolicyFailClosed

	_, err := f.auth.Register(context.Background(), service.RegisterInput{
		Username: "alice", Email: "new@x.com", Password: "pw",
	})
	require.ErrorIs(t, err, service.ErrUsernameTaken)
	require.Zero(t, v.calls)
}

func TestLogin_SameRejectionForUnknownUserAndBadPassword(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "pw")
	ctx := context.Background()

	_, errBadPw := f.auth.Login(ctx, service.LoginInput{Username: "alice", Password: "wrongpw"}, t0)
	_, errNoUser := f.auth.Login(ctx, service.LoginInput{Username: "nosuchuser", Password: "anypw"}, t0)

	require.ErrorIs(t, errBadPw, service.ErrInvalidCredentials)
	require.ErrorIs(t, errNoUser, service.ErrInvalidCredentials)
	require.Equal(t, errBadPw.Error(), errNoUser.Error())
}

func TestLogin_IssuesTokens(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice", "pw")

	pair, err := f.auth.Login(context.Background(), service.LoginInput{Username: "alice", Password: "pw"}, t0)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, t0.Add(jwtx.DefaultAccessTokenTTL), pair.ExpiresAt)
	require.Equal(t, 1800, pair.ExpiresIn(t0))

	claims, err := f.codec.DecodeAccess(pair.AccessToken, t0)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, alice.ID, id)

	_, err = f.codec.DecodeRefresh(pair.RefreshToken, t0)
	require.NoError(t, err)
}

func TestLogin_RefreshDisabled(t *testing.T) {
	f := newFixture(t)
	f.auth.RefreshTokens = false
	f.register(t, "alice", "pw")

	pair, err := f.auth.Login(context.Background(), service.LoginInput{Username: "alice", Password: "pw"}, t0)
	require.NoError(t, err)
	require.Empty(t, pair.RefreshToken)

	_, err = f.auth.Refresh(context.Background(), "anything", t0)
	require.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestRefresh(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "pw")
	ctx := context.Background()

	pair, err := f.auth.Login(ctx, service.LoginInput{Username: "alice", Password: "pw"}, t0)
	require.NoError(t, err)

	later := t0.Add(2 * time.Hour)
	refreshed, err := f.auth.Refresh(ctx, pair.RefreshToken, later)
	require.NoError(t, err)
	require.Empty(t, refreshed.RefreshToken)
	require.Equal(t, later.Add(jwtx.DefaultAccessTokenTTL), refreshed.ExpiresAt)

	_, err = f.auth.Refresh(ctx, pair.AccessToken, t0)
	require.ErrorIs(t, err, service.ErrInvalidToken, "access token must not refresh")

	_, err = f.auth.Refresh(ctx, pair.RefreshToken, t0.Add(jwtx.DefaultRefreshTokenTTL))
	require.ErrorIs(t, err, service.ErrInvalidToken, "expired refresh token")
}

func TestLogin_MFA(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice", "pw")
	ctx := context.Background()

	enrollment, err := f.mfa.Enroll(ctx, alice)
	require.NoError(t, err)

	// Pending enrollment does not gate login yet.
	_, err = f.auth.Login(ctx, service.LoginInput{Username: "alice", Password: "pw"}, t0)
	require.NoError(t, err)

	code, err := totp.GenerateCode(enrollment.Secret, t0)
	require.NoError(t, err)
	require.NoError(t, f.mfa.Confirm(ctx, alice, code))

	_, err = f.auth.Login(ctx, service.LoginInput{Username: "alice", Password: "pw"}, t0)
	require.ErrorIs(t, err, service.ErrMFARequired)

	_, err = f.auth.Login(ctx, service.LoginInput{Username: "alice", Password: "pw", OTP: "000000x"}, t0)
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = f.auth.Login(ctx, service.LoginInput{Username: "alice", Password: "wrong", OTP: code}, t0)
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	pair, err := f.auth.Login(ctx, service.LoginInput{Username: "alice", Password: "pw", OTP: code}, t0)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice", "pw1")
	ctx := context.Background()

	require.ErrorIs(t, f.auth.ChangePassword(ctx, alice, "nope", "pw2"), service.ErrInvalidCredentials)
	require.ErrorIs(t, f.auth.ChangePassword(ctx, alice, "pw1", ""), service.ErrInvalidInput)
	require.NoError(t, f.auth.ChangePassword(ctx, alice, "pw1", "pw2"))

	_, err := f.auth.Login(ctx, service.LoginInput{Username: "alice", Password: "pw1"}, t0)
	require.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = f.auth.Login(ctx, service.LoginInput{Username: "alice", Password: "pw2"}, t0)
	require.NoError(t, err)
}

// flakyHasher fails its first Hash call and records what Verify was given.
type flakyHasher struct {
	cryptox.Hasher
	failed   bool
	verified []string
}

func (h *flakyHasher) Hash(password string) (string, error) {
	if !h.failed {
		h.failed = true
		return "", errors.New("entropy unavailable")
	}
	return h.Hasher.Hash(password)
}

func (h *flakyHasher) Verify(password, encoded string) bool {
	h.verified = append(h.verified, encoded)
	return h.Hasher.Verify(password, encoded)
}

func TestLogin_UnknownUserDummyHash(t *testing.T) {
	f := newFixture(t)
	h := &flakyHasher{Hasher: cryptox.Hasher{Pepper: "pepper"}}
	f.auth.Hasher = h
	ctx := context.Background()
	in := service.LoginInput{Username: "nobody", Password: "pw"}

	_, err := f.auth.Login(ctx, in, t0)
	require.Error(t, err)
	require.NotErrorIs(t, err, service.ErrInvalidCredentials, "no silent skip of the hashing work")
	require.Empty(t, h.verified)

	_, err = f.auth.Login(ctx, in, t0)
	require.ErrorIs(t, err, service.ErrInvalidCredentials)
	require.Len(t, h.verified, 1)
	require.NotEmpty(t, h.verified[0], "verified against a real hash")
}

func TestLogin_ExactUsername(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "pw")

	for _, name := range []string{"alice ", " alice", "ALICE"} {
		_, err := f.auth.Login(context.Background(), service.LoginInput{Username: name, Password: "pw"}, t0)
		require.ErrorIs(t, err, service.ErrInvalidCredentials, "username %q", name)
	}
}
