// Package validation holds the shared struct validator used for configuration
// and calendar definition files.
package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/teranos/chrono/errors"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("era_label", validateEraLabel); err != nil {
		panic(fmt.Sprintf("failed to register era_label validator: %v", err))
	}
	if err := Validate.RegisterValidation("comment_marker", validateCommentMarker); err != nil {
		panic(fmt.Sprintf("failed to register comment_marker validator: %v", err))
	}
}

// validateEraLabel accepts the empty label or a label that cannot be mistaken
// for part of a date: not whitespace-only and not ending in a digit.
func validateEraLabel(fl validator.FieldLevel) bool {
	return EraLabelOK(fl.Field().String())
}

// EraLabelOK reports whether label can terminate a date string unambiguously.
func EraLabelOK(label string) bool {
	if label == "" {
		return true
	}
	if strings.TrimSpace(label) == "" {
		return false
	}
	last := rune(label[len(label)-1])
	return !unicode.IsDigit(last)
}

// validateCommentMarker rejects markers that would swallow data lines.
func validateCommentMarker(fl validator.FieldLevel) bool {
	marker := fl.Field().String()
	return strings.TrimSpace(marker) != "" && !strings.HasPrefix(marker, "{")
}

// Struct validates s and converts the first failure into a configuration
// error naming the offending field.
func Struct(s interface{}) error {
	err := Validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return errors.NewConfigurationError("field %s failed %q validation (value %q)",
			fe.Namespace(), fe.Tag(), fmt.Sprint(fe.Value()))
	}
	return errors.Mark(err, errors.ErrConfiguration)
}
