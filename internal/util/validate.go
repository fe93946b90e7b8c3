package util

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a field validation failure.
type ValidationError struct {
	Field   string
	Message string
}

// ValidateRange checks that an integer is within bounds.
func ValidateRange(field string, value, minVal, maxVal int) *ValidationError {
	if value < minVal || value > maxVal {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("%s must be between %d and %d, got %d", field, minVal, maxVal, value),
		}
	}
	return nil
}

// ValidateRangeFloat checks that a float64 is within bounds.
func ValidateRangeFloat(field string, value, minVal, maxVal float64) *ValidationError {
	if value < minVal || value > maxVal {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("%s must be between %g and %g, got %g", field, minVal, maxVal, value),
		}
	}
	return nil
}

// ValidatePort checks that a port number is valid (1-65535).
func ValidatePort(field string, port int) *ValidationError {
	return ValidateRange(field, port, 1, 65535)
}

// IsConfigured returns true if all provided values are non-empty.
func IsConfigured(values ...string) bool {
	for _, v := range values {
		if v == "" {
			return false
		}
	}
	return true
}

// ValidateOneOf checks that value is one of the allowed options.
func ValidateOneOf(field, value string, allowed ...string) *ValidationError {
	if slices.Contains(allowed, value) {
		return nil
	}
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("%s must be one of %s, got %q", field, strings.Join(allowed, ", "), value),
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}
