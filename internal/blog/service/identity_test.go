package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/blog/internal/blog/service"
	"github.com/aussiebroadwan/blog/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestResolve_Rejections(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice", "pw")
	ctx := context.Background()

	refresh, err := f.codec.IssueRefresh(alice.ID, t0)
	require.NoError(t, err)

	other, err := jwtx.NewCodec(jwtx.Options{Secret: []byte("other-secret"), Issuer: "blog-test"})
	require.NoError(t, err)
	forged, err := other.IssueAccess(alice.ID, t0)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage": "not.a.token",
		"empty":   "",
		"refresh": refresh,
		"forged":  forged,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.resolver.Resolve(ctx, token, t0)
			require.ErrorIs(t, err, service.ErrInvalidToken)
		})
	}
}

func TestResolve_Expiry(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice", "pw")
	ctx := context.Background()

	token, err := f.codec.IssueAccess(alice.ID, t0)
	require.NoError(t, err)

	for _, before := range []time.Duration{time.Second, 500 * time.Millisecond, 1} {
		_, err = f.resolver.Resolve(ctx, token, t0.Add(jwtx.DefaultAccessTokenTTL-before))
		require.NoError(t, err, "%s before expiry", before)
	}
	_, err = f.resolver.Resolve(ctx, token, t0.Add(jwtx.DefaultAccessTokenTTL))
	require.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestResolve_DeletedUser(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice", "pw")
	ctx := context.Background()

	token, err := f.codec.IssueAccess(alice.ID, t0)
	require.NoError(t, err)
	require.NoError(t, f.store.Users().DeleteUser(ctx, alice.ID))

	_, err = f.resolver.Resolve(ctx, token, t0)
	require.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestEndToEnd_TokenSurvivesPasswordChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, service.RegisterInput{
		Username: "bob", Email: "bob@x.com", Password: "pw1", FullName: "Bob",
	})
	require.NoError(t, err)

	pair, err := f.auth.Login(ctx, service.LoginInput{Username: "bob", Password: "pw1"}, t0)
	require.NoError(t, err)

	bob, err := f.resolver.Resolve(ctx, pair.AccessToken, t0)
	require.NoError(t, err)
	require.Equal(t, "bob", bob.Username)
	require.Equal(t, "Bob", bob.FullName)
	require.Equal(t, "bob@x.com", bob.Email)

	require.NoError(t, f.auth.ChangePassword(ctx, bob, "pw1", "pw2"))

	// Tokens are not revocation-aware: still valid until natural expiry.
	again, err := f.resolver.Resolve(ctx, pair.AccessToken, t0.Add(jwtx.DefaultAccessTokenTTL-1))
	require.NoError(t, err)
	require.Equal(t, bob.ID, again.ID)

	_, err = f.resolver.Resolve(ctx, pair.AccessToken, t0.Add(jwtx.DefaultAccessTokenTTL))
	require.ErrorIs(t, err, service.ErrInvalidToken)
}
