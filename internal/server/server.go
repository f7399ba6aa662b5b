// Package server assembles the fiber application: middleware, health check and
// the /api/v1 routes.
package server

import (
	"log"
	"time"

	"nutrifit/internal/handlers"
	"nutrifit/internal/middleware"
	"nutrifit/internal/repositories"
	"nutrifit/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// Options wires the application's dependencies.
type Options struct {
	Users  repositories.UserRepository
	Plans  repositories.PlanRepository
	Events services.EventPublisher // nil disables plan events

	JWTSecret    string
	AuthRequired bool // guard plan routes with a bearer token

	// HealthCheck reports whether the database is reachable. nil means there is
	// nothing to check, as with the in-memory store.
	HealthCheck func() error

	// DisableRequestLog turns off the request logger, mostly for tests.
	DisableRequestLog bool
}

// New builds the fiber app with every route registered.
func New(opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "NutriFit API",
		ErrorHandler: handlers.ErrorHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New())
	if !opts.DisableRequestLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}))
	}

	app.Get("/health", healthHandler(opts.HealthCheck))

	authService := services.NewAuthService(opts.Users, opts.JWTSecret)
	planService := services.NewPlanService(opts.Plans, opts.Users, opts.Events)

	apiV1 := app.Group("/api/v1")

	// Authentication routes are always public.
	handlers.NewAuthHandler(authService).RegisterRoutes(apiV1)

	planRoutes := apiV1
	if opts.AuthRequired {
		planRoutes = apiV1.Group("", middleware.AuthRequired(authService))
		log.Println("Plan routes require a bearer token")
	}
	handlers.NewPlanHandler(planService).RegisterRoutes(planRoutes)

	return app
}

func healthHandler(check func() error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "up",
		}
		if check != nil {
			if err := check(); err != nil {
				log.Printf("Health check failed: %v", err)
				status["status"] = "unhealthy"
				status["database"] = "down"
				return c.Status(fiber.StatusServiceUnavailable).JSON(status)
			}
		}
		return c.JSON(status)
	}
}
