// Package validator provides struct validation utilities with custom
// validators for dataset manifests.
package validator

import (
	stderrors "errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// cweIDRegex validates CWE references as they appear in manifests:
// either "CWE-89" or a bare number.
var cweIDRegex = regexp.MustCompile(`^(?i:CWE-)?\d+$`)

// commitHashRegex validates full or abbreviated Git commit hashes.
var commitHashRegex = regexp.MustCompile(`^[0-9a-f]{7,64}$`)

// Validator wraps the go-playground validator with custom validations.
type Validator struct {
	validate *validator.Validate
}

// ValidationError represents a single field validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, e := range v {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return sb.String()
}

// New creates a new Validator with custom validators registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("cwe_id", validateCWEID)
	_ = v.RegisterValidation("commit_hash", validateCommitHash)

	return &Validator{validate: v}
}

// Struct validates a struct and returns ValidationErrors on failure.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if stderrors.As(err, &invalid) {
		return fmt.Errorf("invalid validation target: %w", err)
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return err
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: messageFor(fe),
		})
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "cwe_id":
		return "must be a CWE identifier like CWE-89"
	case "commit_hash":
		return "must be a hexadecimal commit hash"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func validateCWEID(fl validator.FieldLevel) bool {
	return cweIDRegex.MatchString(fl.Field().String())
}

func validateCommitHash(fl validator.FieldLevel) bool {
	return commitHashRegex.MatchString(strings.ToLower(fl.Field().String()))
}
