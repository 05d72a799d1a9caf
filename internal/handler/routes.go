package handler

import (
	"time"

	"license-key-service/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// SetupRoutes registers the public license endpoints and the admin API.
// rateLimit caps public requests per client IP per minute; zero disables it.
func SetupRoutes(app *fiber.App, h *Handler, rateLimit int) {
	app.Get("/health", h.HandleHealth)
	if h.stats != nil {
		app.Get("/metrics", adaptor.HTTPHandler(h.stats.Handler()))
	}

	api := app.Group("/api/v1")

	license := api.Group("/license")
	if rateLimit > 0 {
		license.Use(limiter.New(limiter.Config{
			Max:        rateLimit,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": "too many requests",
				})
			},
		}))
	}
	license.Post("/activate", h.HandleLicenseActivate)
	license.Get("/validate", h.HandleLicenseValidate)

	api.Post("/auth/login", h.HandleLogin)

	auth := middleware.Auth(h.auth.Secret)
	adminOnly := middleware.AdminOnly()

	apps := api.Group("/applications", auth, adminOnly)
	apps.Get("/", h.HandleListApplications)
	apps.Post("/", h.HandleCreateApplication)
	apps.Get("/:id", h.HandleGetApplication)
	apps.Put("/:id", h.HandleUpdateApplication)
	apps.Delete("/:id", h.HandleDeleteApplication)

	keys := api.Group("/keys", auth, adminOnly)
	keys.Get("/", h.HandleListKeys)
	keys.Post("/", h.HandleCreateKey)
	keys.Get("/statistics", h.HandleKeyStatistics)
	keys.Get("/export", h.HandleDownloadKeys)
	keys.Post("/export", h.HandleExportKeys)
	keys.Get("/:id", h.HandleGetKey)
	keys.Put("/:id", h.HandleUpdateKey)
	keys.Delete("/:id", h.HandleDeleteKey)
	keys.Get("/:id/usage", h.HandleKeyUsage)

	api.Get("/logs", auth, adminOnly, h.HandleGetLogs)
}
