package blogsdk

import (
	"context"
	"net/http"
)

// CurrentUser returns the profile of the token's owner.
func (s *Session) CurrentUser(ctx context.Context) (*UserProfile, error) {
	var user UserProfile
	if err := s.doAuthJSON(ctx, http.MethodGet, "/v1/auth/current_user", nil, &user, http.StatusOK); err != nil {
		return nil, err
	}
	return &user, nil
}

// ChangePassword replaces the account password. Tokens already issued,
// including this session's, stay valid until they expire.
func (s *Session) ChangePassword(ctx context.Context, current, next string) error {
	return s.doAuthJSON(ctx, http.MethodPost, "/v1/auth/password",
		ChangePasswordRequest{CurrentPassword: current, NewPassword: next}, nil, http.StatusNoContent)
}

// EnrollMFA starts TOTP enrollment.
func (s *Session) EnrollMFA(ctx context.Context) (*MFAEnrollResponse, error) {
	var out MFAEnrollResponse
	if err := s.doAuthJSON(ctx, http.MethodPost, "/v1/auth/mfa/enroll", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfirmMFA activates the enrolled secret.
func (s *Session) ConfirmMFA(ctx context.Context, code string) error {
	return s.doAuthJSON(ctx, http.MethodPost, "/v1/auth/mfa/confirm", MFACodeRequest{Code: code}, nil, http.StatusNoContent)
}

// DisableMFA turns two-factor authentication off.
func (s *Session) DisableMFA(ctx context.Context, code string) error {
	return s.doAuthJSON(ctx, http.MethodDelete, "/v1/auth/mfa", MFACodeRequest{Code: code}, nil, http.StatusNoContent)
}
