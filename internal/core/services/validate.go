package services

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/leadscout/internal/core/domain"
)

var validate = validator.New()

// validateStruct checks v's validate tags and wraps failures in
// domain.ErrInvalidInput.
func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// ValidateProfile checks a fit profile's weights and threshold.
func ValidateProfile(p domain.FitProfile) error {
	return validateStruct(p)
}
