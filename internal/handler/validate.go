package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"license-key-service/internal/model"
	"license-key-service/internal/service"

	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	_ = v.RegisterValidation("licensekey", func(fl validator.FieldLevel) bool {
		return service.IsKeyFormat(fl.Field().String())
	})

	_ = v.RegisterValidation("keystatus", func(fl validator.FieldLevel) bool {
		return model.Status(fl.Field().String()).Valid()
	})

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})

	return v
}

// validateStruct returns one FieldError per failed rule, or nil.
func validateStruct(s interface{}) []FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Message: err.Error()}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "licensekey":
		return "must have the form XXXX-XXXX-XXXX-XXXX"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "keystatus":
		return fmt.Sprintf("must be one of: %s", statusList())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func statusList() string {
	names := make([]string, len(model.Statuses))
	for i, s := range model.Statuses {
		names[i] = string(s)
	}
	return strings.Join(names, " ")
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseDate accepts RFC 3339 timestamps and bare dates, interpreted as UTC.
func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
