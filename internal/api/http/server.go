package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

// NewServer builds the fiber application with middlewares and routes attached.
func NewServer(cfg config.AppConfig, logger *zap.Logger, routes RouteConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.Name,
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, logger, routes.Metrics, cfg.RequestTimeout())
	RegisterRoutes(app, routes)
	return app
}
