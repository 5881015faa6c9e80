package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/aquarium-api/internal/domain"
	apperrors "github.com/spec-kit/aquarium-api/pkg/util/errorutil"
)

const identityKey = "auth_identity"

// SessionVerifier validates bearer tokens into identities.
type SessionVerifier interface {
	VerifySession(token string, requiredKind domain.PrincipalKind) (domain.Identity, error)
	VerifyToken(token string) (domain.Identity, error)
}

// AuthMiddleware validates bearer tokens and attaches the verified identity.
type AuthMiddleware struct {
	sessions SessionVerifier
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(sessions SessionVerifier) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// RequireSession enforces a valid token issued to the given principal kind.
func (m *AuthMiddleware) RequireSession(kind domain.PrincipalKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerToken(c)
		if err != nil {
			return err
		}
		identity, err := m.sessions.VerifySession(token, kind)
		if err != nil {
			return SessionError(err)
		}
		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// RequireAnySession enforces a valid token of either principal kind.
func (m *AuthMiddleware) RequireAnySession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerToken(c)
		if err != nil {
			return err
		}
		identity, err := m.sessions.VerifyToken(token)
		if err != nil {
			return SessionError(err)
		}
		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// IdentityFromContext retrieves the authenticated identity.
func IdentityFromContext(c *fiber.Ctx) (domain.Identity, bool) {
	identity, ok := c.Locals(identityKey).(domain.Identity)
	return identity, ok
}

// SessionError maps token verification failures onto HTTP errors. Malformed
// and expired tokens are 401 with distinct codes; a wrong kind is 403.
func SessionError(err error) error {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return apperrors.NewUnauthorized("TOKEN_EXPIRED", "session expired, please log in again")
	case errors.Is(err, ErrTokenMalformed):
		return apperrors.NewUnauthorized("TOKEN_MALFORMED", "invalid token")
	case errors.Is(err, ErrWrongPrincipalKind):
		return apperrors.NewForbidden("WRONG_PRINCIPAL_KIND", "token not valid for this principal type")
	case errors.Is(err, ErrInsufficientRole):
		return apperrors.NewForbidden("FORBIDDEN", "insufficient role")
	default:
		return apperrors.NewInternalError(err)
	}
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", apperrors.NewUnauthorized("TOKEN_MALFORMED", "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", apperrors.NewUnauthorized("TOKEN_MALFORMED", "invalid authorization header")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" || strings.Contains(token, " ") {
		return "", apperrors.NewUnauthorized("TOKEN_MALFORMED", "invalid authorization header")
	}
	return token, nil
}
