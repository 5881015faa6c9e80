package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/aquarium-api/internal/api/dto"
	"github.com/spec-kit/aquarium-api/internal/domain"
	"github.com/spec-kit/aquarium-api/internal/service"
)

// StaffHandler exposes staff auth endpoints.
type StaffHandler struct {
	authService *service.AuthService
}

// NewStaffHandler constructs handler.
func NewStaffHandler(authService *service.AuthService) *StaffHandler {
	return &StaffHandler{authService: authService}
}

// Register handles POST /auth/register. Only reachable by admin staff.
func (h *StaffHandler) Register(c *fiber.Ctx) error {
	var req dto.StaffRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	var missing []string
	if strings.TrimSpace(req.Username) == "" {
		missing = append(missing, "username")
	}
	if req.Password == "" {
		missing = append(missing, "password")
	}
	if strings.TrimSpace(req.StaffType) == "" {
		missing = append(missing, "staff_type")
	}
	if len(missing) > 0 {
		return missingFields(missing...)
	}

	profile, err := h.authService.Register(c.UserContext(), service.Registration{
		Kind:        domain.PrincipalKindStaff,
		PrincipalID: req.Username,
		Password:    req.Password,
		Role:        strings.TrimSpace(req.StaffType),
		Profile:     req.Profile(),
	})
	if err != nil {
		return mapAuthError(err)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{"profile": profile},
	})
}

// Login handles POST /auth/login.
func (h *StaffHandler) Login(c *fiber.Ctx) error {
	var req dto.StaffLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	if req.Username == "" || req.Password == "" {
		return missingFields("username", "password")
	}

	result, err := h.authService.Login(c.UserContext(), domain.PrincipalKindStaff, req.Username, req.Password)
	if err != nil {
		return mapAuthError(err)
	}
	return c.JSON(fiber.Map{"data": loginResponse(result)})
}

// Me handles GET /auth/staff/me.
func (h *StaffHandler) Me(c *fiber.Ctx) error {
	return sessionResponse(c, h.authService)
}
