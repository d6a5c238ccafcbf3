package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrNotAuthenticated   = errors.New("auth: not authenticated")
	ErrForbidden          = errors.New("auth: forbidden")
	ErrNotOwner           = errors.New("auth: not owner")
	ErrStoreUnavailable   = errors.New("auth: credential store unavailable")
)
