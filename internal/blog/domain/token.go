package domain

import "time"

// TokenPair is what a successful login yields. RefreshToken is empty when
// refresh tokens are disabled, and on refresh since it is not rotated.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// ExpiresIn is the remaining access token lifetime at now, in whole seconds.
func (p TokenPair) ExpiresIn(now time.Time) int {
	return max(int(p.ExpiresAt.Sub(now).Seconds()), 0)
}
