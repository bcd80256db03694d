package jwtx

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/blog/pkg/idx"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalid is the only error Decode returns. Signature mismatches,
	// malformed tokens, wrong issuer and expiry are deliberately not
	// distinguished.
	ErrInvalid = errors.New("jwtx: invalid token")

	ErrEmptySecret = errors.New("jwtx: signing secret is empty")
	ErrAlgorithm   = errors.New("jwtx: signing algorithm must be HS256, HS384 or HS512")
)

// Options configures a Codec.
type Options struct {
	Secret     []byte
	Algorithm  string // HS256 when empty
	Issuer     string // optional; enforced on decode when set
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Codec signs and validates bearer tokens with a process-wide symmetric key.
// It holds no mutable state and is safe for concurrent use.
type Codec struct {
	key        []byte
	method     *jwt.SigningMethodHMAC
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewCodec validates opts and builds a Codec. Errors here are configuration
// errors and should stop the process.
func NewCodec(opts Options) (*Codec, error) {
	if len(opts.Secret) == 0 {
		return nil, ErrEmptySecret
	}

	alg := strings.ToUpper(strings.TrimSpace(opts.Algorithm))
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}
	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%w (got %q)", ErrAlgorithm, opts.Algorithm)
	}

	c := &Codec{
		key:        append([]byte(nil), opts.Secret...),
		method:     method,
		issuer:     opts.Issuer,
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
	}
	if c.accessTTL <= 0 {
		c.accessTTL = DefaultAccessTokenTTL
	}
	if c.refreshTTL <= 0 {
		c.refreshTTL = DefaultRefreshTokenTTL
	}
	return c, nil
}

func (c *Codec) Algorithm() string         { return c.method.Alg() }
func (c *Codec) AccessTTL() time.Duration  { return c.accessTTL }
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssueAccess mints an access token for userID that expires at now+AccessTTL.
func (c *Codec) IssueAccess(userID int64, now time.Time) (string, error) {
	return c.sign(newClaims(userID, TypeAccess, c.issuer, c.accessTTL, now))
}

// IssueRefresh mints a refresh token for userID that expires at now+RefreshTTL.
func (c *Codec) IssueRefresh(userID int64, now time.Time) (string, error) {
	return c.sign(newClaims(userID, TypeRefresh, c.issuer, c.refreshTTL, now))
}

func (c *Codec) sign(claims Claims) (string, error) {
	token, err := jwt.NewWithClaims(c.method, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return token, nil
}

// Decode verifies the signature and checks the token is valid at now
// (now < exact expiry). Any failure yields ErrInvalid.
func (c *Codec) Decode(token string, now time.Time) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(strings.TrimSpace(token), &claims, func(*jwt.Token) (any, error) {
		return c.key, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalid
	}
	if exp := claims.Expiry(); exp.IsZero() || !now.Before(exp) {
		return Claims{}, ErrInvalid
	}
	return claims, nil
}

// DecodeAccess is Decode restricted to access tokens.
func (c *Codec) DecodeAccess(token string, now time.Time) (Claims, error) {
	claims, err := c.Decode(token, now)
	if err != nil {
		return Claims{}, err
	}
	if claims.IsRefresh() {
		return Claims{}, ErrInvalid
	}
	return claims, nil
}

// DecodeRefresh is Decode restricted to refresh tokens.
func (c *Codec) DecodeRefresh(token string, now time.Time) (Claims, error) {
	claims, err := c.Decode(token, now)
	if err != nil {
		return Claims{}, err
	}
	if !claims.IsRefresh() {
		return Claims{}, ErrInvalid
	}
	return claims, nil
}

func newJTI(now time.Time) string {
	return idx.NewAt(now).String()
}
