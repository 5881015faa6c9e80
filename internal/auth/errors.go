package auth

import "errors"

// Credential errors. ErrInvalidCredentials covers both an unknown principal
// and a wrong password so callers cannot probe for account existence.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicatePrincipal = errors.New("principal already registered")
	ErrInvalidKind        = errors.New("unknown principal kind")
	ErrInvalidPrincipalID = errors.New("principal id required")
	ErrInvalidPassword    = errors.New("password must be between 1 and 72 bytes")
)

// Token errors.
var (
	ErrTokenMalformed     = errors.New("token: malformed or invalid signature")
	ErrTokenExpired       = errors.New("token: expired")
	ErrWrongPrincipalKind = errors.New("token: wrong principal kind")
	ErrInsufficientRole   = errors.New("token: insufficient role")
)

// Infrastructure errors.
var (
	ErrStorage        = errors.New("credential store failure")
	ErrVerification   = errors.New("password verification failure")
	ErrSecretTooShort = errors.New("JWT secret must be at least 32 bytes")
)
