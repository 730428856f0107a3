// Package validation provides helper functions for request data validation.
// It uses the go-playground/validator library and includes custom validation
// rules for the blood-bank domain.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hemolink/bloodbank-service/internal/domain"
)

var validate = validator.New()

func init() {
	// "custom_id" restricts identifier fields to alphanumerics, hyphens
	// and underscores. Empty values are left to the 'required' tag.
	err := validate.RegisterValidation("custom_id", func(fl validator.FieldLevel) bool {
		if fl.Field().String() == "" {
			return true
		}

		re := regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

		return re.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("failed to register custom validation: %v", err))
	}

	// "blood_type" and "blood_group" check the closed domain enums so a
	// malformed value never reaches the service layer.
	err = validate.RegisterValidation("blood_type", func(fl validator.FieldLevel) bool {
		if fl.Field().String() == "" {
			return true
		}

		return domain.BloodType(fl.Field().String()).Valid()
	})
	if err != nil {
		panic(fmt.Sprintf("failed to register custom validation: %v", err))
	}

	err = validate.RegisterValidation("blood_group", func(fl validator.FieldLevel) bool {
		if fl.Field().String() == "" {
			return true
		}

		return domain.BloodGroup(fl.Field().String()).Valid()
	})
	if err != nil {
		panic(fmt.Sprintf("failed to register custom validation: %v", err))
	}
}

// ValidationError is a custom error type that holds a slice of validation
// error messages.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return strings.Join(v.Errors, ", ")
}

// ValidateStruct performs validation on a given struct based on its
// validation tags. If validation fails, it returns a *ValidationError with
// user-friendly messages.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		var validationErrors []string

		for _, err := range err.(validator.ValidationErrors) {
			var message string

			switch err.Tag() {
			case "custom_id":
				message = fmt.Sprintf(
					"field '%s' must contain only letters, numbers, hyphens, and underscores",
					err.Field(),
				)
			case "blood_type":
				message = fmt.Sprintf(
					"field '%s' must be one of: Plasma, Whole Blood, Power Blood",
					err.Field(),
				)
			case "blood_group":
				message = fmt.Sprintf(
					"field '%s' must be a valid ABO/Rh group (A+, A-, B+, B-, AB+, AB-, O+, O-)",
					err.Field(),
				)
			default:
				message = fmt.Sprintf(
					"field '%s' failed on the '%s' tag",
					err.Field(),
					err.Tag(),
				)
			}
			validationErrors = append(validationErrors, message)
		}

		return &ValidationError{Errors: validationErrors}
	}

	return nil
}
