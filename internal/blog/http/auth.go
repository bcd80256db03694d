package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/blog/internal/blog/domain"
	"github.com/aussiebroadwan/blog/internal/blog/service"
	"github.com/aussiebroadwan/blog/pkg/blogsdk"
	"github.com/aussiebroadwan/blog/pkg/httpx"
)

// AuthHandler serves registration, login and the caller's own account.
type AuthHandler struct {
	Auth *service.Authenticator
	Now  func() time.Time
}

func (h *AuthHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// HandleRegister handles POST /v1/auth/register
//
//	@Summary		Register a new user
//	@Description	Creates an account. Username and email must be unique; the email may be checked by an external verifier.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		blogsdk.RegisterRequest	true	"username, email, password, fullname"
//	@Success		201		{object}	blogsdk.UserProfile		"created user, never the password hash"
//	@Failure		400		{object}	blogsdk.ErrorResponse	"username_taken, email_taken, invalid_email, invalid_request"
//	@Failure		429		{object}	blogsdk.ErrorResponse	"rate limit exceeded"
//	@Failure		503		{object}	blogsdk.ErrorResponse	"credential store unavailable"
//	@Router			/v1/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req blogsdk.RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		blogsdk.ErrInvalidRequest.WithDescription("request body must be a JSON register request").WriteError(w)
		return
	}

	u, err := h.Auth.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toProfile(u))
}

// HandleLogin handles POST /v1/auth/login
//
//	@Summary		Log in with username and password
//	@Description	Password credentials grant. Accounts with MFA enabled must also send a current one-time code.
//	@Tags			Auth
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			username	formData	string					true	"Username"
//	@Param			password	formData	string					true	"Password"
//	@Param			otp			formData	string					false	"TOTP code, required when MFA is enabled"
//	@Param			grant_type	formData	string					false	"Must be 'password' when present"
//	@Success		200			{object}	blogsdk.TokenResponse	"access_token, refresh_token, token_type, expires_in"
//	@Failure		400			{object}	blogsdk.ErrorResponse	"malformed form"
//	@Failure		401			{object}	blogsdk.ErrorResponse	"invalid username or password, or mfa_required"
//	@Failure		429			{object}	blogsdk.ErrorResponse	"rate limit exceeded"
//	@Header			200			{string}	Cache-Control			"no-store"
//	@Router			/v1/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	if gt := r.PostForm.Get("grant_type"); gt != "" && gt != "password" {
		blogsdk.ErrInvalidRequest.WithDescription("unsupported grant_type").WriteError(w)
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	if username == "" || password == "" {
		blogsdk.ErrInvalidRequest.WithDescription("username and password are required").WriteError(w)
		return
	}

	now := h.now()
	pair, err := h.Auth.Login(r.Context(), service.LoginInput{
		Username: username,
		Password: password,
		OTP:      r.PostForm.Get("otp"),
	}, now)
	if err != nil {
		if apiErr := apiError(err); apiErr.StatusCode == http.StatusUnauthorized {
			w.Header().Set("WWW-Authenticate", "Bearer")
		}
		writeServiceError(w, r, err)
		return
	}
	writeTokens(w, pair, now)
}

// HandleRefresh handles POST /v1/auth/refresh
//
//	@Summary		Exchange a refresh token for a new access token
//	@Description	The refresh token is not rotated and keeps its original expiry.
//	@Tags			Auth
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			refresh_token	formData	string					true	"Refresh token from login"
//	@Success		200				{object}	blogsdk.TokenResponse	"access_token, token_type, expires_in"
//	@Failure		401				{object}	blogsdk.ErrorResponse	"invalid or expired refresh token"
//	@Router			/v1/auth/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	token := strings.TrimSpace(r.PostForm.Get("refresh_token"))
	if token == "" {
		blogsdk.ErrInvalidRequest.WithDescription("refresh_token is required").WriteError(w)
		return
	}

	now := h.now()
	pair, err := h.Auth.Refresh(r.Context(), token, now)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeTokens(w, pair, now)
}

// HandleCurrentUser handles GET /v1/auth/current_user
//
//	@Summary		Current user profile
//	@Description	Returns the account the bearer token was issued for.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	blogsdk.UserProfile		"id, username, email, fullname, mfa_enabled"
//	@Failure		401	{object}	blogsdk.ErrorResponse	"invalid or missing access token"
//	@Router			/v1/auth/current_user [get].
func (h *AuthHandler) HandleCurrentUser(w http.ResponseWriter, r *http.Request) {
	u, ok := mustUser(w, r)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toProfile(u))
}

// HandleChangePassword handles POST /v1/auth/password
//
//	@Summary		Change password
//	@Description	Requires the current password. Previously issued tokens remain valid until they expire.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Accept			json
//	@Param			request	body	blogsdk.ChangePasswordRequest	true	"current_password, new_password"
//	@Success		204
//	@Failure		400	{object}	blogsdk.ErrorResponse	"malformed body"
//	@Failure		401	{object}	blogsdk.ErrorResponse	"wrong current password or invalid token"
//	@Router			/v1/auth/password [post].
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	u, ok := mustUser(w, r)
	if !ok {
		return
	}
	var req blogsdk.ChangePasswordRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		blogsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if err := h.Auth.ChangePassword(r.Context(), u, req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseForm(w http.ResponseWriter, r *http.Request) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		blogsdk.ErrInvalidRequest.WithDescription("content type must be application/x-www-form-urlencoded").WriteError(w)
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, httpx.MaxFormBytes)
	if err := r.ParseForm(); err != nil {
		blogsdk.ErrInvalidRequest.WithDescription("malformed form body").WriteError(w)
		return false
	}
	return true
}

func writeTokens(w http.ResponseWriter, pair domain.TokenPair, now time.Time) {
	httpx.WriteJSON(w, http.StatusOK, blogsdk.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    pair.ExpiresIn(now),
	})
}
