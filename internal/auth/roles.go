package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/aquarium-api/internal/domain"
	apperrors "github.com/spec-kit/aquarium-api/pkg/util/errorutil"
)

// RequireRole ensures the staff identity holds one of the allowed roles
// (staff_type, compared case-insensitively). It must run after RequireSession.
func RequireRole(allowed ...string) fiber.Handler {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("TOKEN_MALFORMED", "authentication required")
		}
		if identity.Kind != domain.PrincipalKindStaff {
			return SessionError(ErrWrongPrincipalKind)
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[strings.ToLower(identity.Role)]; !exists {
			return SessionError(ErrInsufficientRole)
		}
		return c.Next()
	}
}
