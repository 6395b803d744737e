package server

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jonathan/slideshow-studio/internal/config"
	"github.com/jonathan/slideshow-studio/internal/db"
	"github.com/jonathan/slideshow-studio/internal/types"
)

func testPasswords() *config.PasswordConfig {
	return &config.PasswordConfig{BcryptCost: bcrypt.MinCost, Pepper: "pepper"}
}

func TestToAPIUser(t *testing.T) {
	t.Run("valid user", func(t *testing.T) {
		now := time.Now()
		dbUser := &db.User{
			ID:           uuid.New(),
			Name:         "Ada",
			Email:        "ada@example.com",
			PasswordHash: "hashed-password",
			PasswordSet:  true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		u := toAPIUser(dbUser)
		require.NotNil(t, u)
		assert.Equal(t, dbUser.ID, u.ID)
		assert.Equal(t, dbUser.Name, u.Name)
		assert.Equal(t, dbUser.Email, u.Email)
		assert.Equal(t, now, u.CreatedAt)
	})

	t.Run("nil user", func(t *testing.T) {
		assert.Nil(t, toAPIUser(nil))
	})
}

func TestUserService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewUserService(store, testPasswords())

	user, err := svc.Register(ctx, &types.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)

	stored, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "password123", stored.PasswordHash)

	_, err = svc.Register(ctx, &types.RegisterRequest{Name: "Other", Email: "ada@example.com", Password: "password123"})
	var exists *ErrEmailAlreadyExists
	assert.ErrorAs(t, err, &exists)

	got, err := svc.Login(ctx, &types.LoginRequest{Email: "ada@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	var badCreds *ErrInvalidCredentials
	_, err = svc.Login(ctx, &types.LoginRequest{Email: "ada@example.com", Password: "wrong-password"})
	assert.ErrorAs(t, err, &badCreds)
	_, err = svc.Login(ctx, &types.LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorAs(t, err, &badCreds)
}

func TestUserService_UpdatePassword(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewUserService(store, testPasswords())
	user, err := svc.Register(ctx, &types.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "password123"})
	require.NoError(t, err)

	var mismatch *ErrPasswordMismatch
	err = svc.UpdatePassword(ctx, user.ID, "wrong-password", "new-password-1")
	assert.ErrorAs(t, err, &mismatch)

	require.NoError(t, svc.UpdatePassword(ctx, user.ID, "password123", "new-password-1"))
	_, err = svc.Login(ctx, &types.LoginRequest{Email: "ada@example.com", Password: "new-password-1"})
	assert.NoError(t, err)

	var noUser *ErrUserNotFound
	err = svc.UpdatePassword(ctx, uuid.New(), "x", "new-password-1")
	assert.ErrorAs(t, err, &noUser)
}

func TestUserService_Me(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newMemStore(), testPasswords())
	user, err := svc.Register(ctx, &types.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "password123"})
	require.NoError(t, err)

	me, err := svc.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, me.Email)

	_, err = svc.Me(ctx, uuid.New())
	var noUser *ErrUserNotFound
	assert.ErrorAs(t, err, &noUser)
}
