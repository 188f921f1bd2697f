package auth

import "errors"

var (
	ErrMissingFields        = errors.New("missing required fields")
	ErrEmailInUse           = errors.New("email already in use")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidToken         = errors.New("invalid token")
	ErrInvalidProviderToken = errors.New("invalid provider token")
	ErrMissingEmail         = errors.New("provider token carries no email claim")
	ErrUserNotFound         = errors.New("user not found")
)
