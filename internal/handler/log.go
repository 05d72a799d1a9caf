package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) HandleGetLogs(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "10"))

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}

	logs, total, err := h.audit.GetOperationLogs(c.UserContext(), page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"logs":  logs,
		"total": total,
		"page":  page,
		"size":  pageSize,
	})
}
