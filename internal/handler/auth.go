package handler

import (
	"crypto/subtle"

	"license-key-service/internal/middleware"
	"license-key-service/internal/util"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin exchanges the operator credential for a bearer token.
func (h *Handler) HandleLogin(c *fiber.Ctx) error {
	input := new(LoginInput)
	if err := c.BodyParser(input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if errs := validateStruct(input); errs != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  "validation failed",
			"errors": errs,
		})
	}

	userOK := subtle.ConstantTimeCompare([]byte(input.Username), []byte(h.auth.Username)) == 1
	passErr := bcrypt.CompareHashAndPassword([]byte(h.auth.PasswordHash), []byte(input.Password))
	if !userOK || passErr != nil {
		h.log.Warn("admin login rejected",
			zap.String("username", input.Username),
			zap.String("ip", c.IP()),
		)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid username or password",
		})
	}

	token, err := util.GenerateToken(h.auth.Secret, h.auth.Username, util.RoleAdmin, h.auth.TokenTTL)
	if err != nil {
		return err
	}

	c.Locals(middleware.LocalUsername, h.auth.Username)
	h.logOperation(c, "login", "admin", "", fiber.Map{"ip": c.IP()})

	return c.JSON(fiber.Map{
		"token":     token,
		"expiresIn": int64(h.auth.TokenTTL.Seconds()),
	})
}
