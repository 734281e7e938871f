package validation

import (
	"math"

	htberrors "github.com/vnykmshr/htb/pkg/common/errors"
)

// ValidateNonNegative validates that a numeric value is non-negative (>= 0).
// Returns a ValidationError if the value is negative.
func ValidateNonNegative(module, field string, value float64) error {
	if value < 0 {
		return htberrors.NewValidationError(module, field, value, "cannot be negative").
			WithHint("use 0 or a positive value")
	}
	return nil
}

// ValidateFinite rejects NaN and infinite values.
func ValidateFinite(module, field string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return htberrors.NewValidationError(module, field, value, "must be finite").
			WithHint("use a concrete number of tokens per second")
	}
	return nil
}

// ValidateNotEmpty validates that a string value is not empty.
// Returns a ValidationError if the string is empty.
func ValidateNotEmpty(module, field string, value string) error {
	if value == "" {
		return htberrors.NewValidationError(module, field, value, "cannot be empty").
			WithHint("provide a non-empty " + field)
	}
	return nil
}

// ValidateRate applies the checks every bucket rate must pass.
func ValidateRate(module string, rate float64) error {
	if err := ValidateFinite(module, "rate", rate); err != nil {
		return err
	}
	return ValidateNonNegative(module, "rate", rate)
}
