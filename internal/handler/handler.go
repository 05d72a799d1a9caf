package handler

import (
	"errors"
	"time"

	"license-key-service/internal/metrics"
	"license-key-service/internal/middleware"
	"license-key-service/internal/model"
	"license-key-service/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AdminAuth holds the operator credential and token settings.
type AdminAuth struct {
	Username     string
	PasswordHash string
	Secret       []byte
	TokenTTL     time.Duration
}

type Handler struct {
	apps  *service.ApplicationService
	keys  *service.LicenseService
	audit *service.AuditService
	sheet *service.SheetSyncService
	stats *metrics.Metrics
	auth  AdminAuth
	log   *zap.Logger
}

func New(apps *service.ApplicationService, keys *service.LicenseService, audit *service.AuditService,
	sheet *service.SheetSyncService, stats *metrics.Metrics, auth AdminAuth, log *zap.Logger) *Handler {
	return &Handler{
		apps:  apps,
		keys:  keys,
		audit: audit,
		sheet: sheet,
		stats: stats,
		auth:  auth,
		log:   log,
	}
}

// ErrorHandler maps errors returned from handlers onto HTTP responses.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var (
			verr *service.ValidationError
			nerr *service.NotFoundError
			ferr *fiber.Error
		)
		switch {
		case errors.As(err, &verr):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":  verr.Error(),
				"errors": []FieldError{{Field: verr.Field, Message: verr.Message}},
			})
		case errors.As(err, &nerr):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": nerr.Error(),
			})
		case errors.As(err, &ferr):
			return c.Status(ferr.Code).JSON(fiber.Map{
				"error": ferr.Message,
			})
		}

		log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}
}

func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

func (h *Handler) logOperation(c *fiber.Ctx, action, target, targetID string, details interface{}) {
	actor := middleware.Actor(c)
	if err := h.audit.LogOperation(c.UserContext(), actor, action, target, targetID, details); err != nil {
		h.log.Warn("failed to write operation log",
			zap.String("action", action),
			zap.String("target_id", targetID),
			zap.Error(err),
		)
	}
}

func (h *Handler) recordUsage(c *fiber.Ctx, key, action string, success bool, message string) {
	usage := &model.LicenseUsage{
		Key:       key,
		Action:    action,
		Success:   success,
		Message:   message,
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
	if err := h.audit.RecordUsage(c.UserContext(), usage); err != nil {
		h.log.Warn("failed to record usage", zap.String("action", action), zap.Error(err))
	}
}
