package services

import (
	"context"
	"testing"

	"github.com/goalpool/prediction-pools/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates player account with hashed password", func(t *testing.T) {
		userRepo := newMemUserRepo()
		service := NewAuthService(userRepo)

		user, err := service.Register(ctx, RegisterInput{
			FullName: "Jordan Doe",
			Email:    "  Jordan@Example.COM ",
			Password: "correct horse",
		})
		require.NoError(t, err)
		assert.NotZero(t, user.ID)
		assert.Equal(t, "jordan@example.com", user.Email)
		assert.Equal(t, models.RolePlayer, user.Role)
		assert.Equal(t, models.ProviderLocal, user.Provider)
		assert.Empty(t, user.PasswordHash)

		stored, err := userRepo.GetByEmail(ctx, "jordan@example.com")
		require.NoError(t, err)
		assert.NotEmpty(t, stored.PasswordHash)
		assert.NotEqual(t, "correct horse", stored.PasswordHash)
	})

	t.Run("short password is rejected", func(t *testing.T) {
		service := NewAuthService(newMemUserRepo())

		_, err := service.Register(ctx, RegisterInput{
			FullName: "Jordan Doe",
			Email:    "jordan@example.com",
			Password: "short",
		})
		assert.ErrorIs(t, err, ErrPasswordTooShort)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		service := NewAuthService(newMemUserRepo())

		input := RegisterInput{FullName: "Jordan Doe", Email: "jordan@example.com", Password: "correct horse"}
		_, err := service.Register(ctx, input)
		require.NoError(t, err)

		_, err = service.Register(ctx, input)
		assert.ErrorIs(t, err, ErrUserEmailConflict)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	userRepo := newMemUserRepo()
	service := NewAuthService(userRepo)

	_, err := service.Register(ctx, RegisterInput{
		FullName: "Jordan Doe",
		Email:    "jordan@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		user, err := service.Login(ctx, LoginInput{Email: "Jordan@Example.com", Password: "correct horse"})
		require.NoError(t, err)
		assert.Equal(t, "jordan@example.com", user.Email)
		assert.Empty(t, user.PasswordHash)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := service.Login(ctx, LoginInput{Email: "jordan@example.com", Password: "wrong horse"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := service.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "correct horse"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}
