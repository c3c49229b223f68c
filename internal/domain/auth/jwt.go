// Package auth issues and validates the bearer tokens that protect the
// HTTP API. There is no user database; operators share an HS256 secret
// and mint tokens through the CLI.
package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pv2447407/bulkqr/internal/core/appctx"
	"github.com/pv2447407/bulkqr/internal/core/apperror"
)

// TokenConfig holds token signing configuration.
type TokenConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// DefaultTokenConfig returns default token configuration. The TTL covers
// a full printing shift.
func DefaultTokenConfig(secret string) TokenConfig {
	return TokenConfig{
		Secret: secret,
		Issuer: "bulkqr",
		TTL:    12 * time.Hour,
	}
}

// Claims represents the token payload.
type Claims struct {
	jwt.RegisteredClaims
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// TokenService signs and validates operator tokens.
type TokenService struct {
	config TokenConfig
	now    func() time.Time
}

// NewTokenService creates a token service. The secret must not be empty.
func NewTokenService(config TokenConfig) (*TokenService, error) {
	if strings.TrimSpace(config.Secret) == "" {
		return nil, fmt.Errorf("token secret is required")
	}
	if config.Issuer == "" {
		config.Issuer = "bulkqr"
	}
	if config.TTL <= 0 {
		config.TTL = 12 * time.Hour
	}
	return &TokenService{config: config, now: time.Now}, nil
}

// Generate signs a new token for the subject.
func (s *TokenService) Generate(subject, name string, roles []string) (string, time.Time, error) {
	if strings.TrimSpace(subject) == "" {
		return "", time.Time{}, apperror.NewValidation("token subject is required")
	}

	now := s.now()
	expiresAt := now.Add(s.config.TTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Name:  name,
		Roles: roles,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// Validate parses the token and returns the caller it identifies.
func (s *TokenService) Validate(tokenString string) (*appctx.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, apperror.NewUnauthorized("Invalid or expired token").WithCause(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperror.NewUnauthorized("Invalid token claims")
	}

	return &appctx.Principal{
		Subject: claims.Subject,
		Name:    claims.Name,
		Roles:   claims.Roles,
	}, nil
}
