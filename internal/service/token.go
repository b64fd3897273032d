package service

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/dom/shared-lists/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const refreshSecretBytes = 32

// AccessClaims is the payload of a signed access token.
type AccessClaims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func (c *AccessClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// TokenIssuer signs and parses access tokens and mints opaque refresh
// tokens of the form "<selector>.<secret>".
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (t *TokenIssuer) IssueAccess(user *domain.User) (string, error) {
	now := t.now()
	claims := AccessClaims{
		Email:    user.Email,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.accessTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// ParseAccess verifies signature and expiry only. Every failure is reported
// as ErrInvalidToken.
func (t *TokenIssuer) ParseAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// RefreshToken is a freshly minted refresh token. Raw goes to the client,
// Selector and Secret are what the server stores (the secret only hashed).
type RefreshToken struct {
	Raw       string
	Selector  uuid.UUID
	Secret    string
	ExpiresAt time.Time
}

func (t *TokenIssuer) NewRefresh() (*RefreshToken, error) {
	buf := make([]byte, refreshSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate refresh secret: %w", err)
	}
	selector := uuid.New()
	secret := base64.RawURLEncoding.EncodeToString(buf)
	return &RefreshToken{
		Raw:       selector.String() + "." + secret,
		Selector:  selector,
		Secret:    secret,
		ExpiresAt: t.now().Add(t.refreshTTL),
	}, nil
}

// splitRefresh parses "<selector>.<secret>".
func splitRefresh(raw string) (uuid.UUID, string, bool) {
	selectorPart, secret, ok := strings.Cut(strings.TrimSpace(raw), ".")
	if !ok || secret == "" {
		return uuid.Nil, "", false
	}
	selector, err := uuid.Parse(selectorPart)
	if err != nil {
		return uuid.Nil, "", false
	}
	return selector, secret, true
}
