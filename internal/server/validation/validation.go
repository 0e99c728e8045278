// Package validation evaluates the declarative field constraints on request
// payloads and turns violations into user-facing messages.
package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validator wraps a configured validator instance. Safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

// New constructs the shared validator.
func New() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// messages maps "<StructField>.<tag>" to the message shown to the caller.
// Anything not listed falls back to a generated message.
var messages = map[string]string{
	"Name.required":        "Name must be at least 2 characters",
	"Name.min":             "Name must be at least 2 characters",
	"Email.required":       "Invalid email address",
	"Email.email":          "Invalid email address",
	"Email.max":            "Invalid email address",
	"Address.required":     "Address must be at least 5 characters",
	"Address.min":          "Address must be at least 5 characters",
	"City.required":        "City must be at least 2 characters",
	"City.min":             "City must be at least 2 characters",
	"Zip.required":         "Zip code must be 3-10 characters",
	"Zip.min":              "Zip code must be 3-10 characters",
	"Zip.max":              "Zip code must be 3-10 characters",
	"Description.required": "Description must be at least 10 characters",
	"Description.min":      "Description must be at least 10 characters",
	"Description.max":      "Description must be 500 characters or less",
	"Priorities.max":       "Priorities must be 500 characters or less",
	"Height.numeric":       "Height must be a number",
	"HeightUnit.oneof":     "Height unit must be cm or in",
	"Photos.required":      "Please upload at least one photo",
	"Photos.min":           "Please upload at least one photo",
	"Photos.max":           "Please upload at most 10 photos",
	"Type.required":        "Photos must be images",
	"Type.startswith":      "Photos must be images",
	"Data.required":        "Photo data is missing",
	"SubmissionID.required": "Submission ID required",
	"SubmissionID.max":      "Submission ID is too long",
}

// Validate checks the struct's validate tags and returns one message per
// failing field, or nil when the payload is valid.
func (va *Validator) Validate(s any) []string {
	err := va.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{"Invalid input data"}
	}

	details := make([]string, 0, len(verrs))
	seen := make(map[string]struct{}, len(verrs))
	for _, fe := range verrs {
		msg := messageFor(fe)
		if _, dup := seen[msg]; dup {
			continue
		}
		seen[msg] = struct{}{}
		details = append(details, msg)
	}
	return details
}

func messageFor(fe validator.FieldError) string {
	if msg, ok := messages[fe.StructField()+"."+fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
