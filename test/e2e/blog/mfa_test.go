//go:build e2e

package blog_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func TestMFALifecycle(t *testing.T) {
	client := setupBlogContainer(t, nil)
	ctx := t.Context()

	_, session := registerAndLogin(t, client, "alice", "wonderland1")

	enroll, err := session.EnrollMFA(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, enroll.Secret)
	require.Contains(t, enroll.OTPAuthURL, "otpauth://totp/")

	// Not active until confirmed.
	_, err = client.Login(ctx, "alice", "wonderland1", "")
	require.NoError(t, err)

	err = session.ConfirmMFA(ctx, "000000")
	assertAPIError(t, err, http.StatusBadRequest)

	code, err := totp.GenerateCode(enroll.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, session.ConfirmMFA(ctx, code))

	me, err := session.CurrentUser(ctx)
	require.NoError(t, err)
	require.True(t, me.MFAEnabled)

	_, err = client.Login(ctx, "alice", "wonderland1", "")
	apiErr := assertAPIError(t, err, http.StatusUnauthorized)
	require.Equal(t, "mfa_required", apiErr.Code)

	code, err = totp.GenerateCode(enroll.Secret, time.Now())
	require.NoError(t, err)
	mfaSession, err := client.Login(ctx, "alice", "wonderland1", code)
	require.NoError(t, err)

	require.NoError(t, mfaSession.DisableMFA(ctx, code))
	_, err = client.Login(ctx, "alice", "wonderland1", "")
	require.NoError(t, err)
}
