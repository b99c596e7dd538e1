package auth

import "errors"

var (
	ErrInvalidCredentials         = errors.New("invalid email or password")
	ErrInvalidToken               = errors.New("invalid or expired token")
	ErrRefreshTokenRevoked        = errors.New("refresh token has been revoked")
	ErrRoleNotRegistrable         = errors.New("role cannot be registered")
	ErrInvalidCompanyCode         = errors.New("invalid company code")
	ErrGoogleAccountNotRegistered = errors.New("no account is registered for this google email")
	ErrGoogleLoginDisabled        = errors.New("google login is not configured")
)
