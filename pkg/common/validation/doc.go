// Package validation provides common validation utilities for configuration
// parameters across the htb module.
//
// The helpers return *errors.ValidationError values so that constructors
// report rejected parameters with consistent wording and hints.
package validation
