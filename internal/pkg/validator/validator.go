// Package validator provides a thin wrapper around the go-playground/validator library,
// enabling declarative struct validation with standardized error formatting.
//
// Besides the built-in tags it registers:
//
//   - wsurl: the value must be an absolute ws:// or wss:// URL.
//
// Field names in error messages follow the `yaml` tag of the field when present, so
// failures point at the key an operator wrote in the settings file.
package validator

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	gvalidator "github.com/go-playground/validator/v10"
)

// ErrValidationFailed is returned as the first error in a multi-error chain when validation fails.
var ErrValidationFailed = errors.New("struct validation failed")

// validator is a singleton instance of the go-playground validator,
// initialized automatically on package load.
var validator *gvalidator.Validate

// errStringFormat defines the template used to describe individual validation errors.
//
// Example: "'networks[0].apiUrl': value 'http://x' does not meet the requirements for the 'wsurl' validation"
const errStringFormat = "'%s': value '%v' does not meet the requirements for the '%s' validation"

func init() {
	validator = gvalidator.New(gvalidator.WithRequiredStructEnabled())
	validator.RegisterTagNameFunc(yamlTagName)

	if err := validator.RegisterValidation("wsurl", isWebsocketURL); err != nil {
		panic(err)
	}
}

// yamlTagName reports the yaml key of a struct field, falling back to the Go name.
func yamlTagName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return field.Name
	}
	return name
}

// isWebsocketURL validates that a string field holds an absolute ws/wss URL.
func isWebsocketURL(fl gvalidator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil || u.Host == "" {
		return false
	}

	return u.Scheme == "ws" || u.Scheme == "wss"
}

// fieldPath strips the root struct name from a namespace ("Settings.networks[0].name"
// becomes "networks[0].name").
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

// formatError transforms a raw validator error into a structured, human-readable multi-error chain.
func formatError(err error) error {
	var validationErrors gvalidator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	errs := []error{ErrValidationFailed}
	for _, validationErr := range validationErrors {
		err := fmt.Errorf(errStringFormat,
			fieldPath(validationErr.Namespace()),
			validationErr.Value(),
			validationErr.Tag(),
		)

		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Validate checks if the given struct satisfies its validation tags.
//
// It returns nil if all fields pass validation. Otherwise, it returns a combined error that includes
// ErrValidationFailed and one formatted message for each field that failed validation.
func Validate(v any) error {
	if err := validator.Struct(v); err != nil {
		return formatError(err)
	}

	return nil
}
