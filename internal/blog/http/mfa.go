package http

import (
	"context"
	"net/http"

	"github.com/aussiebroadwan/blog/internal/blog/domain"
	"github.com/aussiebroadwan/blog/internal/blog/service"
	"github.com/aussiebroadwan/blog/pkg/blogsdk"
	"github.com/aussiebroadwan/blog/pkg/httpx"
)

// MFAHandler handles TOTP enrollment for the authenticated user.
type MFAHandler struct {
	MFAService *service.MFAService
}

// HandleEnroll handles POST /v1/auth/mfa/enroll
//
//	@Summary		Start TOTP enrollment
//	@Description	Generates a TOTP secret. MFA is not enforced until the secret is confirmed.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	blogsdk.MFAEnrollResponse	"secret and otpauth URL"
//	@Failure		400	{object}	blogsdk.ErrorResponse		"MFA already enabled"
//	@Failure		401	{object}	blogsdk.ErrorResponse		"invalid or missing access token"
//	@Router			/v1/auth/mfa/enroll [post].
func (h *MFAHandler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	u, ok := mustUser(w, r)
	if !ok {
		return
	}
	enrollment, err := h.MFAService.Enroll(r.Context(), u)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, blogsdk.MFAEnrollResponse{
		Secret:     enrollment.Secret,
		OTPAuthURL: enrollment.URL,
	})
}

// HandleConfirm handles POST /v1/auth/mfa/confirm
//
//	@Summary		Confirm TOTP enrollment
//	@Description	Enables MFA once a valid code for the pending secret is presented.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Param			request	body	blogsdk.MFACodeRequest	true	"6-digit TOTP code"
//	@Success		204
//	@Failure		400	{object}	blogsdk.ErrorResponse	"invalid code, not enrolled, or already enabled"
//	@Failure		401	{object}	blogsdk.ErrorResponse	"invalid or missing access token"
//	@Router			/v1/auth/mfa/confirm [post].
func (h *MFAHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	h.withCode(w, r, h.MFAService.Confirm)
}

// HandleDisable handles DELETE /v1/auth/mfa
//
//	@Summary		Disable MFA
//	@Description	Clears the TOTP secret. A current code is required.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Param			request	body	blogsdk.MFACodeRequest	true	"6-digit TOTP code"
//	@Success		204
//	@Failure		400	{object}	blogsdk.ErrorResponse	"invalid code or MFA not enabled"
//	@Failure		401	{object}	blogsdk.ErrorResponse	"invalid or missing access token"
//	@Router			/v1/auth/mfa [delete].
func (h *MFAHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	h.withCode(w, r, h.MFAService.Disable)
}

type codeFunc func(ctx context.Context, u domain.User, code string) error

func (h *MFAHandler) withCode(w http.ResponseWriter, r *http.Request, fn codeFunc) {
	u, ok := mustUser(w, r)
	if !ok {
		return
	}
	var req blogsdk.MFACodeRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil || req.Code == "" {
		blogsdk.ErrInvalidRequest.WithDescription("code is required").WriteError(w)
		return
	}
	if err := fn(r.Context(), u, req.Code); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
