package domain

import "errors"

// Validation errors
var (
	ErrInvalidEmail     = errors.New("email must be a valid address")
	ErrInvalidUsername  = errors.New("username must be between 3 and 20 characters")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrNameRequired     = errors.New("name is required")
	ErrInvalidQuantity  = errors.New("quantity must be positive")
)

// IsValidationError reports whether err is one of the input validation errors.
func IsValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidEmail),
		errors.Is(err, ErrInvalidUsername),
		errors.Is(err, ErrPasswordTooShort),
		errors.Is(err, ErrNameRequired),
		errors.Is(err, ErrInvalidQuantity):
		return true
	}
	return false
}
