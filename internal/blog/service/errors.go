package service

import "errors"

// Registration rejections. Surfaced verbatim to the caller.
var (
	ErrUsernameTaken = errors.New("Username already registered")
	ErrEmailTaken    = errors.New("Email already registered")
	ErrInvalidEmail  = errors.New("Invalid email address")
	ErrInvalidInput  = errors.New("username, email and password are required")
)

// Authentication failures. Deliberately generic.
var (
	// ErrInvalidCredentials covers unknown usernames, wrong passwords and
	// wrong one-time codes alike.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrMFARequired        = errors.New("one-time code required")
	ErrInvalidToken       = errors.New("invalid authentication token")
	ErrUserNotFound       = errors.New("user not found")
)

// ErrUpstreamUnavailable wraps failures of the credential store. They are
// fatal to the request and never retried.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// Post, like and favorite rejections.
var (
	ErrPostNotFound     = errors.New("Post not found")
	ErrCannotUpdate     = errors.New("Post not found or you don't have permission to update it")
	ErrCannotDelete     = errors.New("Post not found or you don't have permission to delete it")
	ErrOwnPost          = errors.New("You cannot like your own post")
	ErrOwnPostUnlike    = errors.New("You cannot dislike your own post")
	ErrAlreadyLiked     = errors.New("Post already liked")
	ErrNoLikes          = errors.New("There are no likes on this post to dislike")
	ErrNotLiked         = errors.New("You can only dislike a post that you have liked")
	ErrAlreadyFavorited = errors.New("Post already favorited")
	ErrNoFavorites      = errors.New("There are no favorite on this post to unfavorite")
	ErrNotFavorited     = errors.New("You can only unfavorite a post that you have favorite")
	ErrPostInvalid      = errors.New("title and content are required")
)

// Second factor.
var (
	ErrInvalidTOTPCode   = errors.New("invalid TOTP code")
	ErrMFANotEnrolled    = errors.New("MFA not enrolled, call enroll first")
	ErrMFANotEnabled     = errors.New("MFA not enabled for this user")
	ErrMFAAlreadyEnabled = errors.New("MFA already enabled for this user")
)
