package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/blog/internal/blog/domain"
	"github.com/aussiebroadwan/blog/internal/blog/store"
	"github.com/aussiebroadwan/blog/pkg/slogx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

type MFAService struct {
	Store  store.Store
	Issuer string           // shown by authenticator apps, e.g. "Blog"
	Now    func() time.Time // defaults to time.Now
}

func (s *MFAService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Enroll generates a TOTP secret for u and stores it without enabling MFA.
// Login keeps working with the password alone until Confirm succeeds.
// Enrolling again before confirming replaces the pending secret.
func (s *MFAService) Enroll(ctx context.Context, u domain.User) (domain.MFAEnrollment, error) {
	if u.MFAEnabled() {
		return domain.MFAEnrollment{}, ErrMFAAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: u.Username,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return domain.MFAEnrollment{}, fmt.Errorf("generate TOTP key: %w", err)
	}

	if err := s.Store.Users().UpdateMFASecret(ctx, u.ID, key.Secret()); err != nil {
		return domain.MFAEnrollment{}, wrapUpstream(err)
	}

	return domain.MFAEnrollment{Secret: key.Secret(), URL: key.URL()}, nil
}

// Confirm enables MFA once the user proves they hold the pending secret.
func (s *MFAService) Confirm(ctx context.Context, u domain.User, code string) error {
	return s.Store.WithTx(ctx, func(tx store.Store) error {
		// Re-read inside the transaction; u may predate an Enroll call.
		cur, err := tx.Users().GetUserByID(ctx, u.ID)
		if err != nil {
			return userErr(err)
		}
		if cur.MFAEnabled() {
			return ErrMFAAlreadyEnabled
		}
		if cur.MFASecret == nil || *cur.MFASecret == "" {
			return ErrMFANotEnrolled
		}
		if !validateTOTP(strings.TrimSpace(code), *cur.MFASecret, s.now()) {
			return ErrInvalidTOTPCode
		}
		if err := tx.Users().EnableMFA(ctx, u.ID); err != nil {
			return wrapUpstream(err)
		}
		slogx.FromContext(ctx).Info("mfa enabled", slog.Int64("user_id", u.ID))
		return nil
	})
}

// Disable turns MFA off. It requires a current code, not just a valid
// access token.
func (s *MFAService) Disable(ctx context.Context, u domain.User, code string) error {
	return s.Store.WithTx(ctx, func(tx store.Store) error {
		cur, err := tx.Users().GetUserByID(ctx, u.ID)
		if err != nil {
			return userErr(err)
		}
		if !cur.MFAEnabled() {
			return ErrMFANotEnabled
		}
		if !validateTOTP(strings.TrimSpace(code), *cur.MFASecret, s.now()) {
			return ErrInvalidTOTPCode
		}
		if err := tx.Users().DisableMFA(ctx, u.ID); err != nil {
			return wrapUpstream(err)
		}
		slogx.FromContext(ctx).Info("mfa disabled", slog.Int64("user_id", u.ID))
		return nil
	})
}

func userErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	return wrapUpstream(err)
}
