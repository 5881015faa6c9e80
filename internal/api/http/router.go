package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/aquarium-api/internal/api/http/handlers"
	"github.com/spec-kit/aquarium-api/internal/auth"
	"github.com/spec-kit/aquarium-api/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Staff           *handlers.StaffHandler
	Members         *handlers.MembersHandler
	Sessions        *handlers.SessionHandler
	AuthMiddleware  *auth.AuthMiddleware
	StaffAdminRoles []string
	Gatherer        prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	requireStaff := cfg.AuthMiddleware.RequireSession(domain.PrincipalKindStaff)
	requireMember := cfg.AuthMiddleware.RequireSession(domain.PrincipalKindMember)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Staff.Login)
	authGroup.Post("/register", requireStaff, auth.RequireRole(cfg.StaffAdminRoles...), cfg.Staff.Register)
	authGroup.Get("/staff/me", requireStaff, cfg.Staff.Me)

	authGroup.Post("/member/register", cfg.Members.Register)
	authGroup.Post("/member/login", cfg.Members.Login)
	authGroup.Get("/member/me", requireMember, cfg.Members.Me)

	authGroup.Post("/password/change", cfg.AuthMiddleware.RequireAnySession(), cfg.Sessions.ChangePassword)
}
