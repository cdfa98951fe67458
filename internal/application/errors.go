package application

import (
	"errors"
	"fmt"
)

// Error taxonomy for profile mutations. Validation-class failures are
// returned to the immediate caller; storage errors propagate unchanged
// since there is no retry mechanism at this layer.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrEntryNotFound      = errors.New("entry not found")
	ErrDuplicateReview    = errors.New("profile already reviewed by this user")
	ErrDuplicateRating    = errors.New("achievement already rated by this user")
	ErrInvalidMediaKind   = errors.New("invalid media kind")
	ErrValidation         = errors.New("validation failed")
)

// validationf wraps ErrValidation with a human readable reason.
func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// ErrorKind maps a service error onto the wire-level error taxonomy.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrEntryNotFound):
		return "NotFound"
	case errors.Is(err, ErrDuplicateReview), errors.Is(err, ErrDuplicateRating):
		return "DuplicateReview"
	case errors.Is(err, ErrInvalidMediaKind):
		return "InvalidMediaKind"
	case errors.Is(err, ErrValidation):
		return "ValidationError"
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrEmailTaken):
		return "ValidationError"
	default:
		return "StorageError"
	}
}
