package domain

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 20
	MinPasswordLength = 6
)

type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	IsActive     bool      `json:"isActive" gorm:"not null;default:true"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserSession is the single live refresh token of a user. ID doubles as the
// public selector embedded in the opaque token; only the secret half is
// hashed. A new session for the same user replaces the old one.
type UserSession struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	UserID           uuid.UUID `json:"userId" gorm:"type:uuid;not null;uniqueIndex"`
	RefreshTokenHash string    `json:"-" gorm:"not null"`
	ExpiresAt        time.Time `json:"expiresAt" gorm:"not null"`
	CreatedAt        time.Time `json:"createdAt"`
}

func (s *UserSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// ValidateRegistration checks the shape of registration input.
func ValidateRegistration(email, username, password string) error {
	if _, err := mail.ParseAddress(email); err != nil || strings.ContainsAny(email, "<> ") {
		return ErrInvalidEmail
	}
	if n := len([]rune(username)); n < MinUsernameLength || n > MaxUsernameLength {
		return ErrInvalidUsername
	}
	return ValidatePassword(password)
}

func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}
