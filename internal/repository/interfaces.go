package repository

import (
	"context"
	"errors"

	"github.com/dom/shared-lists/internal/domain"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique constraint rejects a write.
	ErrConflict = errors.New("record conflicts with an existing one")
	// ErrStaleSession is returned by Rotate when the session being
	// replaced no longer exists.
	ErrStaleSession = errors.New("session was rotated or revoked")
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	// GetByIdentifier matches either the email or the username.
	GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

type SessionRepository interface {
	// Upsert stores the session, replacing any existing session of the user.
	Upsert(ctx context.Context, session *domain.UserSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.UserSession, error)
	// Rotate atomically deletes the session identified by oldID and stores
	// next in its place. It fails with ErrStaleSession if oldID is gone.
	Rotate(ctx context.Context, oldID uuid.UUID, next *domain.UserSession) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

type ListRepository interface {
	Create(ctx context.Context, list *domain.ShoppingList) error
	GetByID(ctx context.Context, id uint) (*domain.ShoppingList, error)
	GetAll(ctx context.Context) ([]*domain.ShoppingList, error)
	Update(ctx context.Context, list *domain.ShoppingList) error
	Delete(ctx context.Context, id uint) error
	Exists(ctx context.Context, id uint) (bool, error)
}

type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	GetByID(ctx context.Context, id uint) (*domain.Item, error)
	Update(ctx context.Context, item *domain.Item) error
	Delete(ctx context.Context, id uint) error
	// SearchNames returns distinct item names containing query,
	// case-insensitively.
	SearchNames(ctx context.Context, query string, limit int) ([]string, error)
}

type Repositories struct {
	User    UserRepository
	Session SessionRepository
	List    ListRepository
	Item    ItemRepository
}
