package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateIdentity  = errors.New("identity already exists")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUserNotFound       = errors.New("user not found")
	ErrListNotFound       = errors.New("shopping list not found")
	ErrItemNotFound       = errors.New("item not found")
)

// DuplicateIdentityError names the registration field that collided.
type DuplicateIdentityError struct {
	Field string
}

func (e *DuplicateIdentityError) Error() string {
	return e.Field + " already exists"
}

func (e *DuplicateIdentityError) Is(target error) bool {
	return target == ErrDuplicateIdentity
}
