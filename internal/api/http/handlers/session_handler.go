package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/aquarium-api/internal/api/dto"
	"github.com/spec-kit/aquarium-api/internal/auth"
	"github.com/spec-kit/aquarium-api/internal/service"
	apperrors "github.com/spec-kit/aquarium-api/pkg/util/errorutil"
)

// SessionHandler serves endpoints available to any authenticated principal.
type SessionHandler struct {
	auth *service.AuthService
}

// NewSessionHandler constructs handler.
func NewSessionHandler(authService *service.AuthService) *SessionHandler {
	return &SessionHandler{auth: authService}
}

// ChangePassword handles POST /auth/password/change.
func (h *SessionHandler) ChangePassword(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("TOKEN_MALFORMED", "authentication required")
	}

	var req dto.PasswordChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return missingFields("current_password", "new_password")
	}

	if err := h.auth.ChangePassword(c.UserContext(), identity, req.CurrentPassword, req.NewPassword); err != nil {
		return mapAuthError(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_changed"}})
}

func loginResponse(result *service.LoginResult) dto.AuthResponse {
	return dto.AuthResponse{
		Token:     result.Token,
		ExpiresAt: result.Claims.ExpiresAt,
		Profile:   result.Profile,
	}
}

func sessionResponse(c *fiber.Ctx, authService *service.AuthService) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("TOKEN_MALFORMED", "authentication required")
	}
	profile, err := authService.Profile(c.UserContext(), identity)
	if err != nil {
		return mapAuthError(err)
	}
	return c.JSON(fiber.Map{"data": dto.SessionResponse{
		Kind:      identity.Kind,
		SubjectID: identity.SubjectID,
		Role:      identity.Role,
		IssuedAt:  identity.IssuedAt,
		ExpiresAt: identity.ExpiresAt,
		Profile:   profile,
	}})
}
