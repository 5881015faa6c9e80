package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/aquarium-api/pkg/util/errorutil"
)

// RequestLogger logs and measures every request. Errors returned by later
// handlers are passed through untouched for the error middleware to render.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start)

		status := c.Response().StatusCode()
		if err != nil {
			status = apperrors.ToDomainError(err).HTTPStatus
		}

		path, method := RouteLabels(c)
		metrics.RecordRequest(path, method, status, elapsed)

		logger.Info("request",
			zap.String("method", method),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", elapsed),
			zap.String("ip", c.IP()),
		)
		return err
	}
}

// RouteLabels returns the route template (or raw path when no route matched)
// and method as metric labels. Fiber reuses the request buffer behind
// c.Path() and c.Method(), so both are copied before the registry keeps them.
func RouteLabels(c *fiber.Ctx) (path, method string) {
	path = c.Path()
	if route := c.Route(); route != nil && route.Path != "" {
		path = route.Path
	}
	return utils.CopyString(path), utils.CopyString(c.Method())
}
