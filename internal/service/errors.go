package service

import "fmt"

// ValidationError reports caller input that violates a precondition.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NotFoundError reports a lookup by id that matched nothing.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func notFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}
