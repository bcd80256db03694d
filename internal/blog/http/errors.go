package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/blog/internal/blog/service"
	"github.com/aussiebroadwan/blog/pkg/blogsdk"
	"github.com/aussiebroadwan/blog/pkg/slogx"
)

// apiError maps a service error onto the wire error. Rejections carry the
// service's own message; anything unrecognised becomes a generic 500.
func apiError(err error) *blogsdk.APIError {
	switch {
	case errors.Is(err, service.ErrUsernameTaken):
		return blogsdk.ErrUsernameTaken
	case errors.Is(err, service.ErrEmailTaken):
		return blogsdk.ErrEmailTaken
	case errors.Is(err, service.ErrInvalidEmail):
		return blogsdk.ErrInvalidEmail
	case errors.Is(err, service.ErrInvalidCredentials):
		return blogsdk.ErrInvalidCredentials
	case errors.Is(err, service.ErrMFARequired):
		return blogsdk.ErrMFARequired
	case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrUserNotFound):
		return blogsdk.ErrInvalidToken

	case errors.Is(err, service.ErrPostNotFound),
		errors.Is(err, service.ErrCannotUpdate),
		errors.Is(err, service.ErrCannotDelete):
		return blogsdk.ErrNotFound.WithDescription(err.Error())

	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrPostInvalid),
		errors.Is(err, service.ErrOwnPost),
		errors.Is(err, service.ErrOwnPostUnlike),
		errors.Is(err, service.ErrAlreadyLiked),
		errors.Is(err, service.ErrNoLikes),
		errors.Is(err, service.ErrNotLiked),
		errors.Is(err, service.ErrAlreadyFavorited),
		errors.Is(err, service.ErrNoFavorites),
		errors.Is(err, service.ErrNotFavorited),
		errors.Is(err, service.ErrInvalidTOTPCode),
		errors.Is(err, service.ErrMFANotEnrolled),
		errors.Is(err, service.ErrMFANotEnabled),
		errors.Is(err, service.ErrMFAAlreadyEnabled):
		return blogsdk.ErrInvalidRequest.WithDescription(err.Error())

	case errors.Is(err, service.ErrUpstreamUnavailable):
		return blogsdk.ErrServiceUnavailable
	default:
		return blogsdk.ErrServerError
	}
}

// writeServiceError logs 5xx failures and writes the mapped error.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := apiError(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
	}
	if apiErr.StatusCode == http.StatusUnauthorized && apiErr.Code == blogsdk.ErrorCodeInvalidToken {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	}
	apiErr.WriteError(w)
}
