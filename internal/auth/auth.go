// Package auth issues and verifies the bearer tokens that carry user
// identity. Identity flows through context explicitly; nothing in the
// system relies on ambient caller state.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ErrUnauthenticated is returned when no valid identity is attached to a call.
var ErrUnauthenticated = errors.New("unauthenticated")

const defaultTokenTTL = 24 * time.Hour

// Service issues and verifies signed user tokens.
type Service struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// Config holds token service configuration.
type Config struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// NewService creates a token service. The secret must be non-empty.
func NewService(cfg Config) (*Service, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "lectern"
	}
	if cfg.TTL == 0 {
		cfg.TTL = defaultTokenTTL
	}
	return &Service{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
	}, nil
}

type userClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// GenerateToken issues a signed token for the given user id.
func (s *Service) GenerateToken(userID string) (string, error) {
	now := time.Now()
	claims := userClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates a token and returns the user id it carries.
// Any failure (bad signature, expiry, malformed claims) maps to
// ErrUnauthenticated - callers do not distinguish kinds.
func (s *Service) VerifyToken(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &userClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	claims, ok := token.Claims.(*userClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", ErrUnauthenticated
	}
	return claims.UserID, nil
}
