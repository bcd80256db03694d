package blogsdk

import (
	"net/http"
	"strings"
	"time"
)

// refreshLeeway is how long before expiry a Session refreshes its token.
const refreshLeeway = 30 * time.Second

// Client talks to the public endpoints of the blog API and creates Sessions.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// Now defaults to time.Now. Sessions use it to decide when to refresh.
	Now func() time.Time
}

// NewClient returns a Client with a 10 second request timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewSession wraps existing tokens, e.g. ones persisted by a CLI between
// runs. expiresIn is the remaining access token lifetime in seconds.
func (c *Client) NewSession(accessToken, refreshToken string, expiresIn int) *Session {
	return newSession(c, &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    expiresIn,
	})
}

func (c *Client) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
