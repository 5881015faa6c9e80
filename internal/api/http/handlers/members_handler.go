package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/aquarium-api/internal/api/dto"
	"github.com/spec-kit/aquarium-api/internal/domain"
	"github.com/spec-kit/aquarium-api/internal/service"
)

// MembersHandler exposes auth endpoints for aquarium members.
type MembersHandler struct {
	auth *service.AuthService
}

// NewMembersHandler constructs handler.
func NewMembersHandler(authService *service.AuthService) *MembersHandler {
	return &MembersHandler{auth: authService}
}

// Register handles POST /auth/member/register.
func (h *MembersHandler) Register(c *fiber.Ctx) error {
	var req dto.MemberRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return missingFields("email", "password")
	}

	membershipType := strings.TrimSpace(req.MembershipType)
	if membershipType == "" {
		membershipType = dto.DefaultMembershipType
	}

	profile, err := h.auth.Register(c.UserContext(), service.Registration{
		Kind:        domain.PrincipalKindMember,
		PrincipalID: req.Email,
		Password:    req.Password,
		Role:        membershipType,
		Profile:     req.Profile(),
	})
	if err != nil {
		return mapAuthError(err)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{"profile": profile},
	})
}

// Login handles POST /auth/member/login.
func (h *MembersHandler) Login(c *fiber.Ctx) error {
	var req dto.MemberLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	if req.Email == "" || req.Password == "" {
		return missingFields("email", "password")
	}

	result, err := h.auth.Login(c.UserContext(), domain.PrincipalKindMember, req.Email, req.Password)
	if err != nil {
		return mapAuthError(err)
	}
	return c.JSON(fiber.Map{"data": loginResponse(result)})
}

// Me handles GET /auth/member/me.
func (h *MembersHandler) Me(c *fiber.Ctx) error {
	return sessionResponse(c, h.auth)
}
