package handler

import (
	"github.com/gofiber/fiber/v2"
)

// HandleKeyStatistics reports key counts by status and application.
func (h *Handler) HandleKeyStatistics(c *fiber.Ctx) error {
	stats, err := h.keys.Statistics(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"code":    200,
		"message": "success",
		"data":    stats,
		"derived": fiber.Map{
			"validKeys":             stats.ValidKeys(),
			"activationSuccessRate": stats.ActivationSuccessRate(),
		},
	})
}
