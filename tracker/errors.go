/*
errors.go - Centralized error types for the tracker core

PURPOSE:
  All error types in one place for consistency and discoverability.
  The api and cli packages map these onto HTTP statuses and exit messages.

ERROR CATEGORIES:
  1. Configuration errors - a user without a usable ProfileTarget
  2. Validation errors - malformed submissions, rejected before any write
  3. Authorization errors - a user touching another user's rows
  4. Lookup errors - missing rows

USAGE:
  if errors.Is(err, tracker.ErrForbidden) {
      // reject without mutating state
  }

SEE ALSO:
  - types.go: Validate methods returning ValidationError
  - target.go: ErrInvalidShiftHours
  - api/handlers.go: HTTP status mapping
*/
package tracker

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrProfileNotFound is returned when a user has no ProfileTarget.
	// Account creation always writes one, so this signals broken data.
	ErrProfileNotFound = errors.New("profile target not found")

	// ErrInvalidShiftHours is returned when the shift length is zero or negative.
	ErrInvalidShiftHours = errors.New("shift hours must be greater than zero")

	// ErrNegativeValue is returned for negative credits, hours or targets.
	ErrNegativeValue = errors.New("value must not be negative")

	// ErrInvalidWeekday is returned for a weekday outside Mon..Sun.
	ErrInvalidWeekday = errors.New("invalid weekday")

	// ErrInvalidDate is returned for a missing or unparseable date.
	ErrInvalidDate = errors.New("invalid date")

	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced row doesn't exist.
	ErrNotFound = errors.New("record not found")

	// ErrJobTypeNotFound is returned when a submission names an unknown job type.
	ErrJobTypeNotFound = errors.New("job type not found")

	// ErrForbidden is returned when a user edits or deletes a row owned by someone else.
	ErrForbidden = errors.New("record belongs to another user")

	// ErrUnauthorized is returned for missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already taken")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConfigurationError reports a user whose settings make aggregation impossible.
type ConfigurationError struct {
	UserID UserID
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error for user %d: %v", e.UserID, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ValidationError describes a rejected field of a submission.
type ValidationError struct {
	Field   string
	Message string
	Err     error // optional, more specific sentinel
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidWeekday) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrJobTypeNotFound)
}

// IsNotFound returns true if the error indicates a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConfigurationError returns true if the error came from unusable user settings.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
