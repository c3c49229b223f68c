package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pv2447407/bulkqr/internal/core/apperror"
)

func newTestService(t *testing.T, secret string) *TokenService {
	t.Helper()
	svc, err := NewTokenService(DefaultTokenConfig(secret))
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return svc
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestService(t, "test-secret")

	token, expiresAt, err := svc.Generate("operator-1", "Print Operator", []string{"operator", "admin"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()), "expiry must be in the future")

	principal, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	assert.Equal(t, "operator-1", principal.Subject)
	assert.Equal(t, "Print Operator", principal.Name)
	assert.Equal(t, []string{"operator", "admin"}, principal.Roles)
}

func TestGenerateRequiresSubject(t *testing.T) {
	svc := newTestService(t, "test-secret")

	_, _, err := svc.Generate("  ", "", nil)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation), "got %v", err)
}

func TestValidateRejectsBadTokens(t *testing.T) {
	svc := newTestService(t, "test-secret")
	other := newTestService(t, "other-secret")

	valid, _, err := svc.Generate("operator-1", "", nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"empty", ""},
		{"tampered", valid + "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Validate(tt.token)
			assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized), "got %v", err)
		})
	}

	t.Run("wrong secret", func(t *testing.T) {
		_, err := other.Validate(valid)
		assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized), "got %v", err)
	})
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	svc := newTestService(t, "test-secret")

	issued := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }
	token, _, err := svc.Generate("operator-1", "", nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	svc.now = func() time.Time { return issued.Add(13 * time.Hour) }
	_, err = svc.Validate(token)
	assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized), "got %v", err)
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	_, err := NewTokenService(TokenConfig{})
	assert.Error(t, err)

	svc, err := NewTokenService(TokenConfig{Secret: "s"})
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	assert.Equal(t, "bulkqr", svc.config.Issuer)
	assert.Equal(t, 12*time.Hour, svc.config.TTL)

	var appErr *apperror.AppError
	_, verr := svc.Validate("bad")
	assert.True(t, errors.As(verr, &appErr), "expected AppError, got %v", verr)
}
