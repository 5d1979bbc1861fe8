package validation

import (
	"errors"
	"sort"

	ozzo "github.com/go-ozzo/ozzo-validation"
)

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// fieldErrors flattens an ozzo-validation result into a stable, field-sorted list.
func fieldErrors(err error) []FieldError {
	if err == nil {
		return nil
	}

	var verrs ozzo.Errors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "", Message: err.Error()}}
	}

	fields := make([]string, 0, len(verrs))
	for f := range verrs {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	errs := make([]FieldError, 0, len(fields))
	for _, f := range fields {
		errs = append(errs, FieldError{Field: f, Message: verrs[f].Error()})
	}
	return errs
}
