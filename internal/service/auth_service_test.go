package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/ticket-tracker/internal/config"
	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/repository"
)

func newAuthService() (*AuthService, *repository.MemoryUserRepository, *repository.MemoryRevokedTokenStore) {
	users := repository.NewMemoryUserRepository()
	revoked := repository.NewMemoryRevokedTokenStore()
	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 60,
			BcryptCost:            bcrypt.MinCost,
		},
	}
	svc := NewAuthService(cfg, AuthDependencies{UserRepo: users, RevokedStore: revoked})
	return svc, users, revoked
}

func TestRegisterDefaultsToEmployee(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()

	user, token, exp, err := svc.Register(ctx, "Uma", "uma@example.com", "password1", "")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEmployee, user.Role)
	assert.NotEmpty(t, user.ID)
	assert.NotEmpty(t, token)
	assert.False(t, exp.IsZero())
	assert.NotEqual(t, "password1", user.PasswordHash)

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.SubjectID)
	assert.Equal(t, domain.RoleEmployee, claims.Role)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()

	_, _, _, err := svc.Register(ctx, "Uma", "uma@example.com", "password1", domain.RoleAdmin)
	require.NoError(t, err)

	_, _, _, err = svc.Register(ctx, "Impostor", "uma@example.com", "password2", "")
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc, _, _ := newAuthService()

	_, _, _, err := svc.Register(context.Background(), "Uma", "uma@example.com", "password1", "superuser")
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))
}

func TestLogin(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()

	registered, _, _, err := svc.Register(ctx, "Uma", "uma@example.com", "password1", domain.RoleAdmin)
	require.NoError(t, err)

	user, token, _, err := svc.Login(ctx, "uma@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, token)

	_, _, _, err = svc.Login(ctx, "uma@example.com", "wrong")
	assert.Equal(t, "UNAUTHORIZED", errCode(t, err))

	_, _, _, err = svc.Login(ctx, "nobody@example.com", "password1")
	assert.Equal(t, "UNAUTHORIZED", errCode(t, err))
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, _, revoked := newAuthService()
	ctx := context.Background()

	_, token, _, err := svc.Register(ctx, "Uma", "uma@example.com", "password1", "")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, token))

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	isRevoked, err := revoked.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, isRevoked)
}

func TestLogoutRejectsInvalidToken(t *testing.T) {
	svc, _, _ := newAuthService()

	err := svc.Logout(context.Background(), "garbage")
	assert.Equal(t, "UNAUTHORIZED", errCode(t, err))
}
