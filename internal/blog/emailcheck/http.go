package emailcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPVerifier calls GET {Endpoint}?email=...&api_key=... and expects a JSON
// body of the form {"status": "valid"}.
type HTTPVerifier struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

// NewHTTPVerifier returns a verifier whose requests give up after timeout.
func NewHTTPVerifier(endpoint, apiKey string, timeout time.Duration) *HTTPVerifier {
	return &HTTPVerifier{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Client:   &http.Client{Timeout: timeout},
	}
}

type verifyResponse struct {
	Status string `json:"status"`
}

func (v *HTTPVerifier) Verify(ctx context.Context, email string) (Verdict, error) {
	u, err := url.Parse(v.Endpoint)
	if err != nil {
		return Unknown, fmt.Errorf("emailcheck: endpoint: %w", err)
	}
	q := u.Query()
	q.Set("email", email)
	if v.APIKey != "" {
		q.Set("api_key", v.APIKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Unknown, fmt.Errorf("emailcheck: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := v.Client.Do(req)
	if err != nil {
		return Unknown, fmt.Errorf("emailcheck: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Unknown, fmt.Errorf("emailcheck: verifier returned HTTP %d", resp.StatusCode)
	}

	var body verifyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err != nil {
		return Unknown, fmt.Errorf("emailcheck: decode: %w", err)
	}
	return parseVerdict(body.Status), nil
}
