package payment

import (
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

type ServerConfig struct {
	AllowedOrigin string
	RoutePrefix   string
}

// NewApp wires the controller into a fiber app with CORS, panic recovery,
// tracing and a health check. The app is immutable: params and headers end
// up in spans and log records exported after the handler returns.
func NewApp(cfg ServerConfig, ctrl *Controller, log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		Immutable:             true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "internal error"
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
				message = fe.Message
			}
			if code >= fiber.StatusInternalServerError {
				log.Error("unhandled request error", zap.String("path", c.Path()), zap.Error(err))
			}
			return c.Status(code).JSON(fiber.Map{"success": false, "message": message})
		},
	})

	origin := cfg.AllowedOrigin
	if origin == "" {
		origin = "*"
	}
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origin,
		AllowCredentials: origin != "*",
	}))
	app.Use(otelfiber.Middleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
	})

	ctrl.Register(app.Group(cfg.RoutePrefix))
	return app
}
