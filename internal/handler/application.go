package handler

import (
	"license-key-service/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ApplicationInput struct {
	Name string `json:"name" validate:"required"`
}

func (h *Handler) HandleListApplications(c *fiber.Ctx) error {
	apps, err := h.apps.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"applications": apps,
		"total":        len(apps),
	})
}

func (h *Handler) HandleCreateApplication(c *fiber.Ctx) error {
	input := new(ApplicationInput)
	if err := c.BodyParser(input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if errs := validateStruct(input); errs != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  "validation failed",
			"errors": errs,
		})
	}

	app, err := h.apps.Create(c.UserContext(), input.Name)
	if err != nil {
		return err
	}

	h.logOperation(c, "create", "application", app.ID, input)
	return c.Status(fiber.StatusCreated).JSON(app)
}

func (h *Handler) HandleGetApplication(c *fiber.Ctx) error {
	app, err := h.apps.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(app)
}

// HandleUpdateApplication renames an application.
func (h *Handler) HandleUpdateApplication(c *fiber.Ctx) error {
	input := new(ApplicationInput)
	if err := c.BodyParser(input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if errs := validateStruct(input); errs != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  "validation failed",
			"errors": errs,
		})
	}

	id := c.Params("id")
	if err := h.apps.Update(c.UserContext(), id, service.ApplicationUpdate{Name: &input.Name}); err != nil {
		return err
	}
	app, err := h.apps.Get(c.UserContext(), id)
	if err != nil {
		return err
	}

	h.logOperation(c, "update", "application", id, input)
	return c.JSON(app)
}

// HandleDeleteApplication removes an application together with its keys.
func (h *Handler) HandleDeleteApplication(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.apps.Delete(c.UserContext(), id); err != nil {
		return err
	}

	h.logOperation(c, "delete", "application", id, nil)
	return c.JSON(fiber.Map{
		"message": "Application deleted",
	})
}
