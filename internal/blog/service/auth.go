package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/blog/internal/blog/domain"
	"github.com/aussiebroadwan/blog/internal/blog/emailcheck"
	"github.com/aussiebroadwan/blog/internal/blog/store"
	"github.com/aussiebroadwan/blog/pkg/jwtx"
	"github.com/aussiebroadwan/blog/pkg/slogx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultEmailTimeout = 3 * time.Second

var tracer = otel.Tracer("github.com/aussiebroadwan/blog/internal/blog/service")

// PasswordHasher is satisfied by *cryptox.Hasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) bool
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

type LoginInput struct {
	Username string
	Password string
	OTP      string // required only when the user has MFA enabled
}

// Authenticator registers users and exchanges credentials for tokens.
type Authenticator struct {
	Store  store.Store
	Hasher PasswordHasher
	Tokens *jwtx.Codec

	// EmailVerifier is optional. With a nil verifier or PolicyOff the
	// address is only checked syntactically.
	EmailVerifier emailcheck.Verifier
	EmailPolicy   emailcheck.Policy
	EmailTimeout  time.Duration

	// RefreshTokens controls whether Login issues a refresh token.
	RefreshTokens bool

	dummyMu   sync.Mutex
	dummyHash string
}

// Register creates a new account. Uniqueness is checked before the
// external email verifier is consulted; the storage constraint remains the
// authority when two registrations race.
func (a *Authenticator) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	ctx, span := tracer.Start(ctx, "Authenticator.Register")
	defer span.End()
	l := slogx.FromContext(ctx)

	// Usernames are stored exactly as given, so surrounding whitespace is
	// refused rather than trimmed.
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	if in.Username == "" || in.Username != strings.TrimSpace(in.Username) ||
		in.Email == "" || in.Password == "" {
		return domain.User{}, ErrInvalidInput
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return domain.User{}, ErrInvalidEmail
	}

	users := a.Store.Users()
	if _, err := users.GetUserByUsername(ctx, in.Username); err == nil {
		return domain.User{}, ErrUsernameTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, upstream(span, err)
	}
	if _, err := users.GetUserByEmail(ctx, in.Email); err == nil {
		return domain.User{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, upstream(span, err)
	}

	if !a.admitEmail(ctx, in.Email) {
		return domain.User{}, ErrInvalidEmail
	}

	hash, err := a.Hasher.Hash(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	u := domain.User{
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	id, err := users.CreateUser(ctx, u)
	switch {
	case errors.Is(err, store.ErrDuplicateUsername):
		return domain.User{}, ErrUsernameTaken
	case errors.Is(err, store.ErrDuplicateEmail):
		return domain.User{}, ErrEmailTaken
	case err != nil:
		return domain.User{}, upstream(span, err)
	}
	u.ID = id

	span.SetAttributes(attribute.Int64("user.id", id))
	l.Info("user registered", slog.Int64("user_id", id))
	return u, nil
}

func (a *Authenticator) admitEmail(ctx context.Context, email string) bool {
	if a.EmailVerifier == nil || a.EmailPolicy == emailcheck.PolicyOff || a.EmailPolicy == "" {
		return true
	}
	timeout := a.EmailTimeout
	if timeout <= 0 {
		timeout = defaultEmailTimeout
	}
	vctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	verdict, err := a.EmailVerifier.Verify(vctx, email)
	ok := a.EmailPolicy.Admit(verdict, err)
	if err != nil {
		slogx.FromContext(ctx).Warn("email verifier unavailable",
			slog.Any("error", err),
			slog.String("policy", string(a.EmailPolicy)),
			slog.Bool("admitted", ok),
		)
	}
	return ok
}

// Login checks username and password (and the one-time code when MFA is
// enabled) and issues tokens. Unknown users and bad passwords fail the same
// way.
func (a *Authenticator) Login(ctx context.Context, in LoginInput, now time.Time) (domain.TokenPair, error) {
	ctx, span := tracer.Start(ctx, "Authenticator.Login")
	defer span.End()
	l := slogx.FromContext(ctx)

	u, err := a.Store.Users().GetUserByUsername(ctx, in.Username)
	if errors.Is(err, store.ErrNotFound) {
		// Spend the same hashing work as a real mismatch.
		dummy, err := a.dummy()
		if err != nil {
			return domain.TokenPair{}, fmt.Errorf("hash password: %w", err)
		}
		a.Hasher.Verify(in.Password, dummy)
		return domain.TokenPair{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.TokenPair{}, upstream(span, err)
	}
	if !a.Hasher.Verify(in.Password, u.PasswordHash) {
		l.Info("login rejected", slog.Int64("user_id", u.ID))
		return domain.TokenPair{}, ErrInvalidCredentials
	}

	if u.MFAEnabled() {
		code := strings.TrimSpace(in.OTP)
		if code == "" {
			return domain.TokenPair{}, ErrMFARequired
		}
		if !validateTOTP(code, *u.MFASecret, now) {
			l.Info("login rejected: bad one-time code", slog.Int64("user_id", u.ID))
			return domain.TokenPair{}, ErrInvalidCredentials
		}
	}

	pair, err := a.issue(u.ID, now, a.RefreshTokens)
	if err != nil {
		return domain.TokenPair{}, err
	}
	span.SetAttributes(attribute.Int64("user.id", u.ID))
	l.Info("login succeeded", slog.Int64("user_id", u.ID))
	return pair, nil
}

// Refresh redeems a refresh token for a new access token. The refresh
// token itself is not rotated.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string, now time.Time) (domain.TokenPair, error) {
	ctx, span := tracer.Start(ctx, "Authenticator.Refresh")
	defer span.End()

	if !a.RefreshTokens {
		return domain.TokenPair{}, ErrInvalidToken
	}
	claims, err := a.Tokens.DecodeRefresh(refreshToken, now)
	if err != nil {
		return domain.TokenPair{}, ErrInvalidToken
	}
	id, err := claims.UserID()
	if err != nil {
		return domain.TokenPair{}, ErrInvalidToken
	}
	if _, err := a.Store.Users().GetUserByID(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrUserNotFound
		}
		return domain.TokenPair{}, upstream(span, err)
	}
	return a.issue(id, now, false)
}

// ChangePassword replaces u's password after checking the current one.
// Tokens issued before the change stay valid until they expire.
func (a *Authenticator) ChangePassword(ctx context.Context, u domain.User, current, next string) error {
	ctx, span := tracer.Start(ctx, "Authenticator.ChangePassword")
	defer span.End()

	if next == "" {
		return ErrInvalidInput
	}
	if !a.Hasher.Verify(current, u.PasswordHash) {
		return ErrInvalidCredentials
	}
	hash, err := a.Hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := a.Store.Users().UpdatePasswordHash(ctx, u.ID, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return upstream(span, err)
	}
	slogx.FromContext(ctx).Info("password changed", slog.Int64("user_id", u.ID))
	return nil
}

func (a *Authenticator) issue(userID int64, now time.Time, withRefresh bool) (domain.TokenPair, error) {
	access, err := a.Tokens.IssueAccess(userID, now)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	pair := domain.TokenPair{
		AccessToken: access,
		ExpiresAt:   now.Add(a.Tokens.AccessTTL()),
	}
	if withRefresh {
		if pair.RefreshToken, err = a.Tokens.IssueRefresh(userID, now); err != nil {
			return domain.TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
		}
	}
	return pair, nil
}

// dummy returns a real hash to verify against for unknown users. A failed
// attempt is not cached.
func (a *Authenticator) dummy() (string, error) {
	a.dummyMu.Lock()
	defer a.dummyMu.Unlock()

	if a.dummyHash == "" {
		hash, err := a.Hasher.Hash("not-a-real-password")
		if err != nil {
			return "", err
		}
		a.dummyHash = hash
	}
	return a.dummyHash, nil
}

func validateTOTP(code, secret string, now time.Time) bool {
	ok, err := totp.ValidateCustom(code, secret, now, totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// upstream wraps a store failure so callers can map it to a 5xx.
func upstream(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
}
