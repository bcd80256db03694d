package blogsdk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrSessionExpired is returned when the access token has expired and there
// is no refresh token to redeem.
var ErrSessionExpired = errors.New("blogsdk: access token expired and no refresh token available")

// Session is an authenticated view of the API. It is safe for concurrent use.
type Session struct {
	client *Client

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

func newSession(client *Client, tokenResp *TokenResponse) *Session {
	s := &Session{client: client, refreshToken: tokenResp.RefreshToken}
	s.apply(tokenResp)
	return s
}

// apply stores a token response. Callers hold the write lock or own s.
func (s *Session) apply(tokenResp *TokenResponse) {
	s.accessToken = tokenResp.AccessToken
	if tokenResp.RefreshToken != "" {
		s.refreshToken = tokenResp.RefreshToken
	}
	lifetime := time.Duration(tokenResp.ExpiresIn) * time.Second
	s.expiresAt = s.client.now().Add(lifetime - refreshLeeway)
}

// getValidToken returns a usable access token, refreshing if it is about to
// expire.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if s.client.now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have refreshed while we waited.
	if s.client.now().Before(s.expiresAt) {
		return s.accessToken, nil
	}
	if s.refreshToken == "" {
		return "", ErrSessionExpired
	}

	tokenResp, err := s.client.Refresh(ctx, s.refreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}
	s.apply(tokenResp)
	return s.accessToken, nil
}

// AccessToken returns the current access token without checking expiration.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the refresh token, empty if the server issued none.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// ExpiresAt is when the session will next refresh.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}
