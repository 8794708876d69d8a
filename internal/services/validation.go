package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// sanitizedSubmission is the post-sanitization payload the schema rules run
// against. Consent is eq=true: an absent or false value is a validation
// failure, never defaulted.
type sanitizedSubmission struct {
	Name    string `validate:"required,min=2,max=100"`
	Email   string `validate:"required,email,max=254"`
	Phone   string `validate:"omitempty,contact_phone"`
	Message string `validate:"required,min=10,max=2000"`
	Consent bool   `validate:"eq=true"`
	Token   string `validate:"required"`
}

// Global validator instance (reused across all submissions)
var validate = newValidator()

var phonePatternRe = regexp.MustCompile(`^[\d\s()\-+]{10,20}$`)

func newValidator() *validator.Validate {
	v := validator.New()
	// Phone is digits plus common punctuation, 10-20 characters.
	_ = v.RegisterValidation("contact_phone", func(fl validator.FieldLevel) bool {
		return phonePatternRe.MatchString(fl.Field().String())
	})
	return v
}

// validateSubmission runs every schema rule and collects ALL field errors
// before returning, so the caller can report a complete summary instead of
// the first failure.
func validateSubmission(sub sanitizedSubmission) map[string]string {
	err := validate.Struct(sub)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)

	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		errors["general"] = "invalid submission"
		return errors
	}

	for _, fieldError := range ve {
		field := strings.ToLower(fieldError.Field())
		errors[field] = formatValidationError(fieldError)
	}

	return errors
}

// formatValidationError converts a validator FieldError to a user-friendly message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must have a minimum of %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must have a maximum of %s characters", fe.Param())
	case "eq":
		return "consent is required to process your message"
	case "contact_phone":
		return "must be a valid phone number of 10-20 digits"
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
