package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dom/shared-lists/internal/config"
	"github.com/dom/shared-lists/internal/domain"
	"github.com/dom/shared-lists/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	tokens      *TokenIssuer
	bcryptCost  int
	// dummyHash is compared against when the identity is unknown so a
	// failed login costs the same with or without a matching account.
	dummyHash []byte
	logger    *zap.Logger
	now       func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, cfg *config.Config, logger *zap.Logger) *AuthService {
	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), cfg.BcryptCost)
	if err != nil {
		// Only reachable with an invalid cost, which config.Validate rejects.
		panic(fmt.Sprintf("auth: generate dummy hash: %v", err))
	}

	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		tokens:      NewTokenIssuer(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL),
		bcryptCost:  cfg.BcryptCost,
		dummyHash:   dummy,
		logger:      logger.With(zap.String("component", "auth")),
		now:         time.Now,
	}
}

type RegisterInput struct {
	Email    string
	Username string
	Password string
}

type LoginInput struct {
	UsernameOrEmail string
	Password        string
}

type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
}

type AuthResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	email := strings.TrimSpace(input.Email)
	username := strings.TrimSpace(input.Username)
	if err := domain.ValidateRegistration(email, username, input.Password); err != nil {
		return nil, err
	}

	if field, err := s.collidingField(ctx, email, username); err != nil {
		return nil, err
	} else if field != "" {
		return nil, &DuplicateIdentityError{Field: field}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Username:     username,
		PasswordHash: string(hashedPassword),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// Lost a race with a concurrent registration.
			field, lookupErr := s.collidingField(ctx, email, username)
			if lookupErr == nil && field != "" {
				return nil, &DuplicateIdentityError{Field: field}
			}
			return nil, &DuplicateIdentityError{Field: "username"}
		}
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID.String()))
	return user, nil
}

// collidingField reports which of email or username is already taken,
// checking email first.
func (s *AuthService) collidingField(ctx context.Context, email, username string) (string, error) {
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return "email", nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}

	if _, err := s.userRepo.GetByUsername(ctx, username); err == nil {
		return "username", nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}

	return "", nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.userRepo.GetByIdentifier(ctx, strings.TrimSpace(input.UsernameOrEmail))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(input.Password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	result, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID.String()))
	return result, nil
}

// issueTokens mints an access token and a refresh token, replacing any
// refresh token the user held before.
func (s *AuthService) issueTokens(ctx context.Context, user *domain.User) (*AuthResult, error) {
	accessToken, refresh, session, err := s.mint(user)
	if err != nil {
		return nil, err
	}

	if err := s.sessionRepo.Upsert(ctx, session); err != nil {
		return nil, err
	}

	return &AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refresh.Raw,
	}, nil
}

func (s *AuthService) mint(user *domain.User) (string, *RefreshToken, *domain.UserSession, error) {
	accessToken, err := s.tokens.IssueAccess(user)
	if err != nil {
		return "", nil, nil, err
	}

	refresh, err := s.tokens.NewRefresh()
	if err != nil {
		return "", nil, nil, err
	}

	hashedSecret, err := bcrypt.GenerateFromPassword([]byte(refresh.Secret), s.bcryptCost)
	if err != nil {
		return "", nil, nil, fmt.Errorf("hash refresh token: %w", err)
	}

	session := &domain.UserSession{
		ID:               refresh.Selector,
		UserID:           user.ID,
		RefreshTokenHash: string(hashedSecret),
		ExpiresAt:        refresh.ExpiresAt,
		CreatedAt:        s.now(),
	}

	return accessToken, refresh, session, nil
}

// ValidateToken checks an access token's signature and expiry. It never
// touches the store.
func (s *AuthService) ValidateToken(tokenString string) (*AccessClaims, error) {
	return s.tokens.ParseAccess(tokenString)
}

// RefreshTokens exchanges a refresh token for a new token pair. The
// presented token is consumed: a second exchange of the same token fails,
// including when both exchanges race.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*AuthResult, error) {
	selector, secret, ok := splitRefresh(refreshToken)
	if !ok {
		return nil, ErrInvalidToken
	}

	session, err := s.sessionRepo.GetByID(ctx, selector)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(session.RefreshTokenHash), []byte(secret)); err != nil {
		return nil, ErrInvalidToken
	}
	if session.Expired(s.now()) {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidToken
	}

	accessToken, refresh, next, err := s.mint(user)
	if err != nil {
		return nil, err
	}

	if err := s.sessionRepo.Rotate(ctx, session.ID, next); err != nil {
		if errors.Is(err, repository.ErrStaleSession) {
			s.logger.Warn("refresh token reused", zap.String("user_id", user.ID.String()))
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return &AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refresh.Raw,
	}, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Logout revokes the user's refresh token.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("refresh token revoked", zap.String("user_id", userID.String()))
	return nil
}

// ChangePassword replaces the password hash after re-checking the current
// password, and revokes the refresh token so other devices must log in
// again.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, input ChangePasswordInput) error {
	if err := domain.ValidatePassword(input.NewPassword); err != nil {
		return err
	}

	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.CurrentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, string(hashed)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	return s.sessionRepo.DeleteByUserID(ctx, userID)
}
