package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/blog/internal/blog/domain"
	"github.com/aussiebroadwan/blog/internal/blog/emailcheck"
	"github.com/aussiebroadwan/blog/internal/blog/service"
	"github.com/aussiebroadwan/blog/internal/blog/store/drivers/sqlite"
	"github.com/aussiebroadwan/blog/pkg/cryptox"
	"github.com/aussiebroadwan/blog/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

// t0 has a fractional second so expiry boundaries are checked below one second.
var t0 = time.Unix(1_750_000_000, 450_000_000).UTC()

type fixture struct {
	store    *sqlite.Store
	codec    *jwtx.Codec
	auth     *service.Authenticator
	resolver *service.IdentityResolver
	posts    *service.PostService
	mfa      *service.MFAService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	codec, err := jwtx.NewCodec(jwtx.Options{Secret: []byte("test-secret"), Issuer: "blog-test"})
	require.NoError(t, err)

	return &fixture{
		store: st,
		codec: codec,
		auth: &service.Authenticator{
			Store:         st,
			Hasher:        &cryptox.Hasher{Pepper: "pepper"},
			Tokens:        codec,
			RefreshTokens: true,
		},
		resolver: &service.IdentityResolver{Store: st, Tokens: codec},
		posts:    &service.PostService{Store: st, Now: func() time.Time { return t0 }},
		mfa:      &service.MFAService{Store: st, Issuer: "Blog", Now: func() time.Time { return t0 }},
	}
}

func (f *fixture) register(t *testing.T, username, password string) domain.User {
	t.Helper()
	u, err := f.auth.Register(context.Background(), service.RegisterInput{
		Username: username,
		Email:    username + "@x.com",
		Password: password,
		FullName: username,
	})
	require.NoError(t, err)
	return u
}

// stubVerifier returns a fixed verdict and error and counts calls.
type stubVerifier struct {
	verdict emailcheck.Verdict
	err     error
	calls   int
}

func (s *stubVerifier) Verify(context.Context, string) (emailcheck.Verdict, error) {
	s.calls++
	return s.verdict, s.err
}
