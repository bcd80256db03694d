package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aussiebroadwan/blog/internal/blog/app"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(t.Context(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestSecret(t *testing.T) {
	code, out, _ := runCLI(t, "", "secret")
	require.Equal(t, 0, code)

	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(out))
	require.NoError(t, err)
	require.Len(t, raw, 32)

	code, out, _ = runCLI(t, "", "secret", "-bytes", "16")
	require.Equal(t, 0, code)
	raw, err = base64.RawURLEncoding.DecodeString(strings.TrimSpace(out))
	require.NoError(t, err)
	require.Len(t, raw, 16)

	code, _, stderr := runCLI(t, "", "secret", "-bytes", "0")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "must be positive")
}

func TestUsage(t *testing.T) {
	code, _, stderr := runCLI(t, "")
	require.Equal(t, 2, code)
	require.Contains(t, stderr, "usage: blogctl")

	code, _, stderr = runCLI(t, "", "frobnicate")
	require.Equal(t, 2, code)
	require.Contains(t, stderr, `unknown command "frobnicate"`)

	code, _, _ = runCLI(t, "", "login", "-h")
	require.Equal(t, 0, code)
}

func TestRegisterAndLogin(t *testing.T) {
	dir := t.TempDir()
	cfg, err := app.LoadConfigFrom(map[string]string{
		"BLOG_TOKEN_SECRET":  "blogctl-test",
		"BLOG_DATABASE_FILE": filepath.Join(dir, "blog.db"),
		"BLOG_PEPPER_FILE":   filepath.Join(dir, "pepper"),
		"LOG_LEVEL":          "error",
	})
	require.NoError(t, err)

	application, err := app.New(t.Context(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Shutdown() })
	srv := httptest.NewServer(application.Handler())
	t.Cleanup(srv.Close)

	code, out, stderr := runCLI(t, "s3cret-pass\n",
		"register", "-server", srv.URL, "-username", "alice", "-email", "alice@example.com")
	require.Equal(t, 0, code, stderr)
	require.Contains(t, out, "registered alice")

	code, _, stderr = runCLI(t, "s3cret-pass\n",
		"register", "-server", srv.URL, "-username", "alice", "-email", "other@example.com")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "Username already registered")

	code, out, stderr = runCLI(t, "s3cret-pass\n", "login", "-server", srv.URL, "-username", "alice")
	require.Equal(t, 0, code, stderr)

	var tokens loginOutput
	require.NoError(t, json.Unmarshal([]byte(out), &tokens))
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)
	require.NotEmpty(t, tokens.ExpiresAt)

	code, _, _ = runCLI(t, "wrong\n", "login", "-server", srv.URL, "-username", "alice")
	require.Equal(t, 1, code)
}

func TestRegisterRequiresFlags(t *testing.T) {
	code, _, stderr := runCLI(t, "pw\n", "register", "-username", "bob")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "-username and -email are required")

	code, _, stderr = runCLI(t, "", "login", "-username", "bob")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "read password")
}
