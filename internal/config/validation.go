package config

import (
	"fmt"
	"strings"

	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/errors"
	"github.com/go-playground/validator/v10"
)

// validatedBackend carries the validation tags for one backend entry.
type validatedBackend struct {
	Name    string `validate:"required,min=1"`
	Dialect string `validate:"required,oneof=openai ollama"`
	BaseURL string `validate:"required,url"`
}

// validatedCustomRole carries the validation tags for one custom role.
type validatedCustomRole struct {
	Role string `validate:"required,min=1"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidateBackends validates the backend registry: per-entry field rules
// plus uniqueness of names across the registry.
func ValidateBackends(backends []Backend) *errors.APIError {
	if len(backends) == 0 {
		return errors.NewConfigurationError("No backends configured")
	}

	seen := make(map[string]bool, len(backends))
	for i, backend := range backends {
		if err := validateBackend(backend, i); err != nil {
			return err
		}
		if seen[backend.Name] {
			return errors.NewConfigurationError(fmt.Sprintf("Duplicate backend name: %s", backend.Name))
		}
		seen[backend.Name] = true
	}

	return nil
}

// validateBackend validates a single backend entry
func validateBackend(backend Backend, index int) *errors.APIError {
	validated := validatedBackend{
		Name:    backend.Name,
		Dialect: backend.Dialect,
		BaseURL: backend.BaseURL,
	}

	if err := validate.Struct(validated); err != nil {
		return formatBackendValidationError(err, index)
	}

	for j, role := range backend.Params.CustomRoles {
		if err := validate.Struct(validatedCustomRole{Role: role.Role}); err != nil {
			return errors.NewConfigurationError(
				fmt.Sprintf("Backend %d custom role %d validation failed: %s", index, j, joinFieldErrors(err)))
		}
	}

	return nil
}

// formatBackendValidationError formats backend validation errors
func formatBackendValidationError(err error, index int) *errors.APIError {
	return errors.NewConfigurationError(
		fmt.Sprintf("Backend %d validation failed: %s", index, joinFieldErrors(err)))
}

func joinFieldErrors(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, formatFieldError(e))
		}
		return strings.Join(messages, "; ")
	}
	return err.Error()
}

// formatFieldError formats a single field validation error
func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("field '%s' is required", e.Field())
	case "min":
		return fmt.Sprintf("field '%s' must have at least %s items", e.Field(), e.Param())
	case "oneof":
		return fmt.Sprintf("field '%s' must be one of: %s", e.Field(), e.Param())
	case "url":
		return fmt.Sprintf("field '%s' must be a valid URL", e.Field())
	default:
		return fmt.Sprintf("field '%s' failed validation: %s", e.Field(), e.Tag())
	}
}
