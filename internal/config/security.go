package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// JWTConfig holds the signing secret and token lifetime
type JWTConfig struct {
	Secret          string
	ExpirationHours int
	Issuer          string
}

// Expiration returns the token lifetime
func (c *JWTConfig) Expiration() time.Duration {
	return time.Duration(c.ExpirationHours) * time.Hour
}

// NewJWTConfig reads JWT_SECRET (required), JWT_EXPIRATION_HOURS (default 24)
// and JWT_ISSUER (default "slideshow-studio").
func NewJWTConfig() (*JWTConfig, error) {
	return jwtConfigFrom(os.LookupEnv)
}

func jwtConfigFrom(lookup LookupFunc) (*JWTConfig, error) {
	secret, _ := lookup("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}
	hours, err := intFrom(lookup, "JWT_EXPIRATION_HOURS", 24)
	if err != nil {
		return nil, err
	}
	issuer, _ := lookup("JWT_ISSUER")
	if issuer == "" {
		issuer = "slideshow-studio"
	}

	cfg := &JWTConfig{Secret: secret, ExpirationHours: hours, Issuer: issuer}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the secret and lifetime
func (c *JWTConfig) Validate() error {
	if c.Secret == "" {
		return fmt.Errorf("JWT_SECRET cannot be empty")
	}
	if len(c.Secret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	return nil
}

// PasswordConfig controls password hashing
type PasswordConfig struct {
	BcryptCost int
	Pepper     string // optional global secret appended before hashing
}

// NewPasswordConfig reads BCRYPT_COST (default 12) and PASSWORD_PEPPER
func NewPasswordConfig() (*PasswordConfig, error) {
	return passwordConfigFrom(os.LookupEnv)
}

func passwordConfigFrom(lookup LookupFunc) (*PasswordConfig, error) {
	cost, err := intFrom(lookup, "BCRYPT_COST", 12)
	if err != nil {
		return nil, err
	}
	pepper, _ := lookup("PASSWORD_PEPPER")

	cfg := &PasswordConfig{BcryptCost: cost, Pepper: pepper}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the bcrypt cost range
func (c *PasswordConfig) Validate() error {
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > 14 {
		return fmt.Errorf("bcrypt cost out of range: %d (must be %d-14)", c.BcryptCost, bcrypt.MinCost)
	}
	return nil
}

// HashPassword hashes pw with bcrypt
func (c *PasswordConfig) HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw+c.Pepper), c.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether pw matches storedHash
func (c *PasswordConfig) VerifyPassword(pw, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(pw+c.Pepper)) == nil
}

func intFrom(lookup LookupFunc, key string, def int) (int, error) {
	raw, _ := lookup(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
