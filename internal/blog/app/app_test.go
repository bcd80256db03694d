package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aussiebroadwan/blog/pkg/blogsdk"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, extra map[string]string) Config {
	t.Helper()
	dir := t.TempDir()

	environ := map[string]string{
		"BLOG_TOKEN_SECRET":  "app-test-secret",
		"BLOG_DATABASE_FILE": filepath.Join(dir, "blog.db"),
		"BLOG_PEPPER_FILE":   filepath.Join(dir, "pepper"),
		"ENV":                "test",
		"LOG_LEVEL":          "error",
	}
	for k, v := range extra {
		environ[k] = v
	}

	cfg, err := LoadConfigFrom(environ)
	require.NoError(t, err)
	return cfg
}

func startApp(t *testing.T, cfg Config) *blogsdk.Client {
	t.Helper()

	application, err := New(t.Context(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.closeResources(t.Context()) })

	srv := httptest.NewServer(application.Handler())
	t.Cleanup(srv.Close)

	return blogsdk.NewClient(srv.URL)
}

func TestApplicationServesAPI(t *testing.T) {
	client := startApp(t, testConfig(t, nil))
	ctx := t.Context()

	health, err := client.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", health.Status)
	require.Equal(t, "ok", health.Checks.Database)
	require.Empty(t, health.Checks.Cache)

	profile, err := client.Register(ctx, blogsdk.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	require.Equal(t, "alice", profile.Username)

	session, err := client.Login(ctx, "alice", "correct horse", "")
	require.NoError(t, err)
	require.NotEmpty(t, session.RefreshToken())

	me, err := session.CurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, profile.ID, me.ID)

	post, err := session.CreatePost(ctx, blogsdk.PostRequest{Title: "hello", Content: "first post"})
	require.NoError(t, err)

	posts, err := session.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, post.ID, posts[0].ID)
}

func TestApplicationReopensDatabase(t *testing.T) {
	cfg := testConfig(t, nil)

	first, err := New(t.Context(), cfg)
	require.NoError(t, err)
	srv := httptest.NewServer(first.Handler())
	_, err = blogsdk.NewClient(srv.URL).Register(t.Context(), blogsdk.RegisterRequest{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)
	srv.Close()
	require.NoError(t, first.closeResources(t.Context()))

	// Same file and pepper: the account and its password survive a restart.
	client := startApp(t, cfg)
	_, err = client.Login(t.Context(), "bob", "hunter22", "")
	require.NoError(t, err)
}

func TestApplicationRefreshDisabled(t *testing.T) {
	client := startApp(t, testConfig(t, map[string]string{"BLOG_REFRESH_TOKENS": "false"}))
	ctx := t.Context()

	_, err := client.Register(ctx, blogsdk.RegisterRequest{
		Username: "carol",
		Email:    "carol@example.com",
		Password: "pa55word",
	})
	require.NoError(t, err)

	session, err := client.Login(ctx, "carol", "pa55word", "")
	require.NoError(t, err)
	require.Empty(t, session.RefreshToken())
}

func TestApplicationEmailVerifierWithCache(t *testing.T) {
	var calls atomic.Int32
	verifier := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		status := "valid"
		if r.URL.Query().Get("email") == "ghost@example.com" {
			status = "invalid"
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
	}))
	t.Cleanup(verifier.Close)

	mr := miniredis.RunT(t)

	client := startApp(t, testConfig(t, map[string]string{
		"BLOG_EMAIL_CHECK_POLICY": "fail_closed",
		"BLOG_EMAIL_CHECK_URL":    verifier.URL,
		"BLOG_REDIS_ADDR":         mr.Addr(),
	}))
	ctx := t.Context()

	health, err := client.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", health.Checks.Cache)

	_, err = client.Register(ctx, blogsdk.RegisterRequest{
		Username: "ghost",
		Email:    "ghost@example.com",
		Password: "boo12345",
	})
	var apiErr *blogsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	// A second attempt is answered from the cache.
	_, err = client.Register(ctx, blogsdk.RegisterRequest{
		Username: "ghost2",
		Email:    "ghost@example.com",
		Password: "boo12345",
	})
	require.Error(t, err)
	require.Equal(t, int32(1), calls.Load())

	_, err = client.Register(ctx, blogsdk.RegisterRequest{
		Username: "dora",
		Email:    "dora@example.com",
		Password: "explorer",
	})
	require.NoError(t, err)

	mr.SetError("ERR cache offline")
	health, err = client.GetReadiness(ctx)
	require.NoError(t, err, "a cache outage degrades without failing readiness")
	require.Equal(t, "degraded", health.Status)
	require.NotEqual(t, "ok", health.Checks.Cache)
}

func TestApplicationRedisUnavailable(t *testing.T) {
	client := startApp(t, testConfig(t, map[string]string{
		"BLOG_EMAIL_CHECK_POLICY":  "fail_open",
		"BLOG_EMAIL_CHECK_URL":     "http://127.0.0.1:1/verify",
		"BLOG_EMAIL_CHECK_TIMEOUT": "200ms",
		"BLOG_REDIS_ADDR":          "127.0.0.1:1",
	}))
	ctx := t.Context()

	health, err := client.GetReadiness(ctx)
	require.NoError(t, err)
	require.Empty(t, health.Checks.Cache, "an unreachable redis at startup is not wired")

	// fail_open admits the address while the verifier is down.
	_, err = client.Register(ctx, blogsdk.RegisterRequest{
		Username: "erin",
		Email:    "erin@example.com",
		Password: "letmein1",
	})
	require.NoError(t, err)
}
