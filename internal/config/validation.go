package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "call-transcriber/internal/app/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report fields by the variable an operator would set
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// Validate checks field constraints, then that the selected provider has a
// credential. A missing credential is reported as ErrMissingAPIKey.
func (s Settings) Validate() error {
	if err := s.ValidateFields(); err != nil {
		return err
	}
	if s.APIKey() == "" {
		return apperrors.Mark(fmt.Errorf("%s is not set", s.APIKeyVar()), apperrors.ErrMissingAPIKey)
	}
	return nil
}

// ValidateFields checks field constraints only, for commands that never call
// the transcription service.
func (s Settings) ValidateFields() error {
	if err := validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			msgs := make([]string, 0, len(validationErrs))
			for _, fe := range validationErrs {
				msgs = append(msgs, describe(fe))
			}
			return apperrors.Mark(errors.New(strings.Join(msgs, "; ")), apperrors.ErrInvalidConfig)
		}
		return apperrors.Mark(err, apperrors.ErrInvalidConfig)
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must not be negative", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", fe.Field(), fe.Param(), fe.Value())
	case "url":
		return fmt.Sprintf("%s must be a URL", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
