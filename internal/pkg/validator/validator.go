// Package validator wraps go-playground/validator with the project's custom
// tags and a uniform error format.
//
// Besides the library's built-in tags it registers:
//
//   - runname: letters, digits, '-' and '_' only, at most 64 characters.
//     Run names become part of storage keys.
package validator

import (
	"errors"
	"fmt"
	"regexp"

	gvalidator "github.com/go-playground/validator/v10"
)

// ErrValidationFailed is returned as the first error in a multi-error chain when validation fails.
var ErrValidationFailed = errors.New("struct validation failed")

// validator is a singleton instance of the go-playground validator,
// initialized automatically on package load.
var validator *gvalidator.Validate

// errStringFormat defines the template used to describe individual validation errors.
//
// Example: "'Name': value 'a b' does not meet the requirements for the 'runname' validation"
const errStringFormat = "'%s': value '%v' does not meet the requirements for the '%s' validation"

// runNamePattern is the accepted shape of a run name.
var runNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func init() {
	validator = gvalidator.New(gvalidator.WithRequiredStructEnabled())
	if err := validator.RegisterValidation("runname", isRunName); err != nil {
		panic(err)
	}
}

// isRunName implements the runname tag.
func isRunName(fl gvalidator.FieldLevel) bool {
	return runNamePattern.MatchString(fl.Field().String())
}

// formatError transforms a raw validator error into a multi-error chain rooted at
// ErrValidationFailed with one message per field. Other errors are returned unchanged.
func formatError(err error) error {
	var validationErrors gvalidator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	errs := []error{ErrValidationFailed}
	for _, validationErr := range validationErrors {
		errs = append(errs, fmt.Errorf(errStringFormat,
			validationErr.Field(),
			validationErr.Value(),
			validationErr.Tag(),
		))
	}

	return errors.Join(errs...)
}

// Validate checks if the given struct satisfies its validation tags.
//
// Example usage:
//
//	type Request struct {
//	    Name string `validate:"required,runname"`
//	}
//
//	if err := validator.Validate(req); errors.Is(err, validator.ErrValidationFailed) {
//	    // Handle validation failure
//	}
func Validate(v any) error {
	if err := validator.Struct(v); err != nil {
		return formatError(err)
	}

	return nil
}
