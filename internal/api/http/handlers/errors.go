package handlers

import (
	"errors"

	"github.com/spec-kit/aquarium-api/internal/auth"
	apperrors "github.com/spec-kit/aquarium-api/pkg/util/errorutil"
)

// mapAuthError converts auth service errors into HTTP domain errors.
// Storage and verification failures stay opaque 500s.
func mapAuthError(err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return apperrors.NewUnauthorized("INVALID_CREDENTIALS", "invalid credentials")
	case errors.Is(err, auth.ErrDuplicatePrincipal):
		return apperrors.NewBadRequest("DUPLICATE_PRINCIPAL", "principal already registered")
	case errors.Is(err, auth.ErrInvalidPassword),
		errors.Is(err, auth.ErrInvalidPrincipalID),
		errors.Is(err, auth.ErrInvalidKind):
		return apperrors.NewValidationError(err.Error(), nil)
	case errors.Is(err, auth.ErrTokenMalformed),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrWrongPrincipalKind),
		errors.Is(err, auth.ErrInsufficientRole):
		return auth.SessionError(err)
	default:
		return apperrors.NewInternalError(err)
	}
}

func invalidPayload() error {
	return apperrors.NewValidationError("invalid payload", nil)
}

func missingFields(fields ...string) error {
	return apperrors.NewValidationError("missing required fields", map[string]any{"fields": fields})
}
