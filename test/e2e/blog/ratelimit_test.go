//go:build e2e

package blog_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/aussiebroadwan/blog/pkg/blogsdk"
	"github.com/stretchr/testify/require"
)

// TestLoginRateLimit verifies the strict profile (5 per minute) on login.
func TestLoginRateLimit(t *testing.T) {
	client := setupBlogContainerWithDefaultRateLimits(t)
	ctx := t.Context()

	var limited bool
	for i := range 10 {
		_, err := client.Login(ctx, "nobody", fmt.Sprintf("guess-%d", i), "")
		var apiErr *blogsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		if apiErr.StatusCode == http.StatusTooManyRequests {
			limited = true
			require.GreaterOrEqual(t, i, 5, "the first five attempts are allowed")
			break
		}
		require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	}
	require.True(t, limited, "login should be rate limited")

	// The key includes the username, so another account is unaffected.
	_, err := client.Login(ctx, "somebody-else", "guess", "")
	assertAPIError(t, err, http.StatusUnauthorized)
}

// TestRegisterRateLimit verifies signups are limited per IP.
func TestRegisterRateLimit(t *testing.T) {
	client := setupBlogContainerWithDefaultRateLimits(t)
	ctx := t.Context()

	var limited bool
	for i := range 10 {
		_, err := client.Register(ctx, blogsdk.RegisterRequest{
			Username: fmt.Sprintf("user%d", i),
			Email:    fmt.Sprintf("user%d@example.com", i),
			Password: "password123",
		})
		if err == nil {
			continue
		}
		assertAPIError(t, err, http.StatusTooManyRequests)
		limited = true
		break
	}
	require.True(t, limited, "register should be rate limited")
}
