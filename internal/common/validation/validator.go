// Package validation wraps go-playground/validator with the tags used by the
// cache factory and folds failures into validation errors.
package validation

import (
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"cache-factory/internal/common/errors"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// FieldError describes one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
	Param   string `json:"param,omitempty"`
}

// Validator validates structs and single values using struct tags.
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with the custom tags registered.
func New() *Validator {
	v := validator.New()
	registerCacheValidators(v)

	// Report json names so that messages match request payloads.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &Validator{validate: v}
}

// Struct validates s and returns a validation error describing every failure.
func (v *Validator) Struct(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		return toAppError(err)
	}
	return nil
}

// Var validates a single value against tag.
func (v *Validator) Var(field interface{}, tag string) error {
	if err := v.validate.Var(field, tag); err != nil {
		return toAppError(err)
	}
	return nil
}

// Fields returns the individual failures of s, or nil when s is valid.
func (v *Validator) Fields(s interface{}) []FieldError {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	return extract(err)
}

func toAppError(err error) error {
	fieldErrors := extract(err)
	if len(fieldErrors) == 1 {
		return errors.ValidationError(fieldErrors[0].Message)
	}

	messages := make([]string, len(fieldErrors))
	for i, e := range fieldErrors {
		messages[i] = e.Message
	}
	return errors.ValidationError(fmt.Sprintf("validation failed: %s", strings.Join(messages, "; ")))
}

func extract(err error) []FieldError {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "unknown", Tag: "error", Message: err.Error()}}
	}

	result := make([]FieldError, 0, len(validationErrs))
	for _, fe := range validationErrs {
		result = append(result, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Value:   fmt.Sprintf("%v", fe.Value()),
			Message: message(fe),
			Param:   fe.Param(),
		})
	}
	return result
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	if field == "" {
		field = "value"
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("field '%s' is required", field)
	case "min":
		return fmt.Sprintf("field '%s' must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("field '%s' must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("field '%s' must be one of: %s", field, fe.Param())
	case "hostname_port":
		return fmt.Sprintf("field '%s' must be a host:port address", field)
	case "cache_name":
		return fmt.Sprintf("field '%s' must be a cache name without whitespace", field)
	case "cron_expression":
		return fmt.Sprintf("field '%s' must be a valid cron expression", field)
	case "duration":
		return fmt.Sprintf("field '%s' must be a valid duration", field)
	default:
		return fmt.Sprintf("field '%s' failed validation: %s", field, fe.Tag())
	}
}

func registerCacheValidators(v *validator.Validate) {
	v.RegisterValidation("cache_name", func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		if strings.TrimSpace(name) == "" {
			return false
		}
		return strings.IndexFunc(name, unicode.IsSpace) < 0
	})

	// Standard five field specs plus descriptors such as "@every 1m".
	v.RegisterValidation("cron_expression", func(fl validator.FieldLevel) bool {
		_, err := cron.ParseStandard(fl.Field().String())
		return err == nil
	})

	v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		_, err := time.ParseDuration(fl.Field().String())
		return err == nil
	})
}

var defaultValidator = New()

// Struct validates s with the shared validator.
func Struct(s interface{}) error {
	return defaultValidator.Struct(s)
}

// Var validates field with the shared validator.
func Var(field interface{}, tag string) error {
	return defaultValidator.Var(field, tag)
}
