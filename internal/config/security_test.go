package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTConfig(t *testing.T) {
	cfg, err := jwtConfigFrom(envMap(map[string]string{"JWT_SECRET": "0123456789abcdef0123"}))
	require.NoError(t, err)
	assert.Equal(t, 24, cfg.ExpirationHours)
	assert.Equal(t, 24*time.Hour, cfg.Expiration())
	assert.Equal(t, "slideshow-studio", cfg.Issuer)

	cfg, err = jwtConfigFrom(envMap(map[string]string{
		"JWT_SECRET":           "0123456789abcdef0123",
		"JWT_EXPIRATION_HOURS": "2",
		"JWT_ISSUER":           "tests",
	}))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, cfg.Expiration())
	assert.Equal(t, "tests", cfg.Issuer)
}

func TestJWTConfig_Errors(t *testing.T) {
	tests := map[string]map[string]string{
		"JWT_SECRET is required":       {},
		"at least 16 characters":       {"JWT_SECRET": "short"},
		"invalid JWT_EXPIRATION_HOURS": {"JWT_SECRET": "0123456789abcdef", "JWT_EXPIRATION_HOURS": "x"},
		"at least 1 hour":              {"JWT_SECRET": "0123456789abcdef", "JWT_EXPIRATION_HOURS": "0"},
	}
	for want, env := range tests {
		_, err := jwtConfigFrom(envMap(env))
		assert.ErrorContains(t, err, want)
	}
}

func TestNewJWTConfig_FromEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "environment-secret-value")
	t.Setenv("JWT_EXPIRATION_HOURS", "")
	cfg, err := NewJWTConfig()
	require.NoError(t, err)
	assert.Equal(t, "environment-secret-value", cfg.Secret)
}

func TestPasswordConfig(t *testing.T) {
	cfg, err := passwordConfigFrom(envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.BcryptCost)

	_, err = passwordConfigFrom(envMap(map[string]string{"BCRYPT_COST": "20"}))
	assert.ErrorContains(t, err, "out of range")
	_, err = passwordConfigFrom(envMap(map[string]string{"BCRYPT_COST": "high"}))
	assert.ErrorContains(t, err, "invalid BCRYPT_COST")
}

func TestPasswordConfig_HashAndVerify(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: 4, Pepper: "pepper"}
	hash, err := cfg.HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$04$"))

	assert.True(t, cfg.VerifyPassword("correct horse", hash))
	assert.False(t, cfg.VerifyPassword("wrong horse", hash))

	noPepper := &PasswordConfig{BcryptCost: 4}
	assert.False(t, noPepper.VerifyPassword("correct horse", hash), "pepper is part of the hash")
}

func TestPasswordConfig_TooLong(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: 4}
	_, err := cfg.HashPassword(strings.Repeat("a", 80))
	assert.ErrorContains(t, err, "failed to hash password")
}
