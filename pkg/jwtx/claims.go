package jwtx

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token lifetimes.
const (
	DefaultAccessTokenTTL  = 30 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Token type discriminators carried in the "type" claim. Access and refresh
// tokens are signed with the same key, the discriminator keeps them from being
// used in place of each other.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var (
	ErrMissingSubject = errors.New("jwtx: missing subject")
	ErrUnknownType    = errors.New("jwtx: unknown token type")
)

// Claims is the payload of every token the service issues.
type Claims struct {
	jwt.RegisteredClaims

	Type string `json:"type,omitempty"`

	// ExpiresAtNano is the exact expiry in Unix nanoseconds. The registered
	// exp claim only carries whole seconds, so it is rounded up and this value
	// is the one Decode enforces.
	ExpiresAtNano int64 `json:"exp_ns,omitempty"`
}

// Expiry returns the exact instant the token stops being valid, or the zero
// time when the token carries none.
func (c Claims) Expiry() time.Time {
	if c.ExpiresAtNano == 0 {
		return time.Time{}
	}
	return time.Unix(0, c.ExpiresAtNano)
}

// Validate is called by the jwt parser after the registered claims have been
// checked.
func (c Claims) Validate() error {
	switch c.Type {
	case "", TypeAccess, TypeRefresh:
		return nil
	default:
		return ErrUnknownType
	}
}

// IsRefresh reports whether the token was minted as a refresh token.
func (c Claims) IsRefresh() bool { return c.Type == TypeRefresh }

// UserID parses the subject back into the numeric user id it was issued for.
func (c Claims) UserID() (int64, error) {
	if c.Subject == "" {
		return 0, ErrMissingSubject
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrMissingSubject
	}
	return id, nil
}

func newClaims(userID int64, typ, issuer string, ttl time.Duration, now time.Time) Claims {
	exp := now.Add(ttl)
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(ceilSecond(exp)),
			ID:        newJTI(now),
		},
		Type:          typ,
		ExpiresAtNano: exp.UnixNano(),
	}
}

// ceilSecond rounds t up to the next whole second so the library's exp check
// never rejects a token before its exact expiry.
func ceilSecond(t time.Time) time.Time {
	s := t.Truncate(time.Second)
	if s.Before(t) {
		s = s.Add(time.Second)
	}
	return s
}
