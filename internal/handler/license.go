package handler

import (
	"bytes"

	"license-key-service/internal/model"
	"license-key-service/internal/service"

	"github.com/gofiber/fiber/v2"
)

const (
	msgInvalidKeyFormat = "Invalid key format"
	mimeXLSX            = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type ActivateInput struct {
	Key string `json:"key" validate:"required,licensekey"`
}

type ValidateQuery struct {
	Key string `query:"key" validate:"required,licensekey"`
}

type CreateKeyInput struct {
	ApplicationID  string `json:"applicationId" validate:"required"`
	DurationDays   int    `json:"durationDays" validate:"required,min=1"`
	ExpirationDate string `json:"expirationDate"`
}

// UpdateKeyInput is the operator override shape. It never carries an
// application reference.
type UpdateKeyInput struct {
	Status         *string `json:"status" validate:"omitempty,keystatus"`
	DurationDays   *int    `json:"durationDays" validate:"omitempty,min=1"`
	ExpirationDate *string `json:"expirationDate"`
}

// HandleLicenseActivate redeems a pending key.
func (h *Handler) HandleLicenseActivate(c *fiber.Ctx) error {
	input := new(ActivateInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if errs := validateStruct(input); errs != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"message": msgInvalidKeyFormat,
			"errors":  errs,
		})
	}

	res, err := h.keys.Activate(c.UserContext(), input.Key)
	if err != nil {
		return err
	}
	h.recordUsage(c, input.Key, model.UsageActionActivate, res.Success, res.Message)
	h.stats.Activation(res.Success)

	if !res.Success {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": res.Message,
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": res.Message,
		"data": fiber.Map{
			"key":            res.Key.Key,
			"status":         res.Key.Status,
			"expirationDate": res.Key.ExpirationDate,
			"activatedAt":    res.Key.ActivatedAt,
		},
	})
}

// HandleLicenseValidate reports whether a key currently grants access.
func (h *Handler) HandleLicenseValidate(c *fiber.Ctx) error {
	query := new(ValidateQuery)
	if err := c.QueryParser(query); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"valid":   false,
			"message": "Invalid query parameters",
		})
	}
	if errs := validateStruct(query); errs != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"valid":   false,
			"message": msgInvalidKeyFormat,
			"errors":  errs,
		})
	}

	res, err := h.keys.Validate(c.UserContext(), query.Key)
	if err != nil {
		return err
	}
	h.recordUsage(c, query.Key, model.UsageActionValidate, res.Valid, res.Message)
	h.stats.Validation(res.Message)

	body := fiber.Map{
		"valid":   res.Valid,
		"message": res.Message,
	}
	if res.Key != nil {
		data := fiber.Map{
			"key":            res.Key.Key,
			"status":         res.Key.Status,
			"expirationDate": res.Key.ExpirationDate,
		}
		if days, ok := service.RemainingDays(res.Key, h.keys.Now()); ok {
			data["daysRemaining"] = days
		}
		body["data"] = data
	}

	status := fiber.StatusOK
	if !res.Valid {
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(body)
}

// HandleListKeys lists keys, optionally filtered by application and status.
// A key query parameter looks up a single key by its code instead.
func (h *Handler) HandleListKeys(c *fiber.Ctx) error {
	if code := c.Query("key"); code != "" {
		key, err := h.keys.GetByKey(c.UserContext(), code)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"keys":  []*model.LicenseKey{key},
			"total": 1,
		})
	}

	filter := service.KeyFilter{ApplicationID: c.Query("applicationId")}
	if s := c.Query("status"); s != "" {
		status, err := model.ParseStatus(s)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		filter.Status = status
	}

	keys, err := h.keys.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"keys":  keys,
		"total": len(keys),
	})
}

func (h *Handler) HandleCreateKey(c *fiber.Ctx) error {
	input := new(CreateKeyInput)
	if err := c.BodyParser(input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if errs := validateStruct(input); errs != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  "validation failed",
			"errors": errs,
		})
	}

	in := service.KeyInput{ApplicationID: input.ApplicationID, DurationDays: input.DurationDays}
	if input.ExpirationDate != "" {
		expires, err := parseDate(input.ExpirationDate)
		if err != nil {
			return dateError(c, "expirationDate")
		}
		in.ExpirationDate = expires
	}

	key, err := h.keys.Create(c.UserContext(), in)
	if err != nil {
		return err
	}

	h.stats.KeyIssued(key.ApplicationID)
	h.logOperation(c, "create", "license_key", key.ID, fiber.Map{
		"applicationId": key.ApplicationID,
		"durationDays":  key.DurationDays,
	})
	return c.Status(fiber.StatusCreated).JSON(key)
}

func (h *Handler) HandleGetKey(c *fiber.Ctx) error {
	key, err := h.keys.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}

	body := fiber.Map{"key": key}
	if days, ok := service.RemainingDays(key, h.keys.Now()); ok {
		body["daysRemaining"] = days
	}
	return c.JSON(body)
}

// HandleUpdateKey applies an operator override to a key.
func (h *Handler) HandleUpdateKey(c *fiber.Ctx) error {
	input := new(UpdateKeyInput)
	if err := c.BodyParser(input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if errs := validateStruct(input); errs != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  "validation failed",
			"errors": errs,
		})
	}

	var upd service.KeyUpdate
	if input.Status != nil {
		status := model.Status(*input.Status)
		upd.Status = &status
	}
	upd.DurationDays = input.DurationDays
	if input.ExpirationDate != nil {
		expires, err := parseDate(*input.ExpirationDate)
		if err != nil {
			return dateError(c, "expirationDate")
		}
		upd.ExpirationDate = &expires
	}

	id := c.Params("id")
	if err := h.keys.Update(c.UserContext(), id, upd); err != nil {
		return err
	}
	key, err := h.keys.Get(c.UserContext(), id)
	if err != nil {
		return err
	}

	h.logOperation(c, "update", "license_key", id, input)
	return c.JSON(fiber.Map{
		"message": "License key updated",
		"key":     key,
	})
}

func (h *Handler) HandleDeleteKey(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.keys.Delete(c.UserContext(), id); err != nil {
		return err
	}

	h.logOperation(c, "delete", "license_key", id, nil)
	return c.JSON(fiber.Map{
		"message": "License key deleted",
	})
}

// HandleKeyUsage lists the recent public calls made with a key.
func (h *Handler) HandleKeyUsage(c *fiber.Ctx) error {
	key, err := h.keys.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}

	usages, err := h.audit.Usage(c.UserContext(), key.Key)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"usages": usages,
	})
}

// HandleExportKeys pushes every key to the configured Google Sheet.
func (h *Handler) HandleExportKeys(c *fiber.Ctx) error {
	if h.sheet == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "sheet sync is not enabled")
	}

	keys, err := h.keys.List(c.UserContext(), service.KeyFilter{})
	if err != nil {
		return err
	}
	if err := h.sheet.ExportKeys(c.UserContext(), keys); err != nil {
		return err
	}

	h.logOperation(c, "export", "license_key", "", fiber.Map{"count": len(keys)})
	return c.JSON(fiber.Map{
		"exported": len(keys),
	})
}

// HandleDownloadKeys returns every key, optionally filtered by application,
// as an XLSX workbook.
func (h *Handler) HandleDownloadKeys(c *fiber.Ctx) error {
	keys, err := h.keys.List(c.UserContext(), service.KeyFilter{ApplicationID: c.Query("applicationId")})
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := service.WriteKeysXLSX(&buf, keys); err != nil {
		return err
	}

	h.logOperation(c, "download", "license_key", "", fiber.Map{"count": len(keys)})
	c.Attachment("license-keys.xlsx")
	c.Set(fiber.HeaderContentType, mimeXLSX)
	return c.Send(buf.Bytes())
}

func dateError(c *fiber.Ctx, field string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"error": "validation failed",
		"errors": []FieldError{
			{Field: field, Message: "must be a date (YYYY-MM-DD) or RFC 3339 timestamp"},
		},
	})
}
