package routes

import (
	"time"

	"github.com/aquafield/aquafield-backend/internal/config"
	"github.com/aquafield/aquafield-backend/internal/handlers"
	"github.com/aquafield/aquafield-backend/internal/middleware"
	"github.com/aquafield/aquafield-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	sessionService *services.SessionService,
	authHandler *handlers.AuthHandler,
	sessionHandler *handlers.SessionHandler,
	measurementHandler *handlers.MeasurementHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth — public, with a stricter limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)

	// Category gate management (authenticated, no gate required)
	api.Post("/session/category", middleware.JWTProtected(cfg), sessionHandler.SelectCategory)
	api.Get("/session/category", middleware.JWTProtected(cfg), sessionHandler.GetCategory)

	// Ingestion surface: requires a selected category; Unselected callers get
	// redirected to the selection step by the gate.
	gate := middleware.CategoryGate(sessionService)
	api.Get("/dashboard", middleware.JWTProtected(cfg), gate, measurementHandler.Dashboard)
	api.Post("/submit", middleware.JWTProtected(cfg), gate, measurementHandler.Submit)
	api.Get("/measurements/export", middleware.JWTProtected(cfg), gate, measurementHandler.ExportCSV)
}
