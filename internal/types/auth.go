//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var requestValidator = validator.New()

// RegisterRequest creates an account with password authentication.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest represents the login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// User is the API view of an account. Password material never leaves the db package.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LoginResponse is returned by register and login.
type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// UpdatePasswordRequest changes the caller's password.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// CreateSlideshowRequest creates an empty slideshow.
type CreateSlideshowRequest struct {
	Title    string              `json:"title" validate:"max=200"`
	Settings *GenerationSettings `json:"settings,omitempty"`
}

// UpdateSlideshowRequest renames a slideshow or replaces its settings. Nil fields are left alone.
type UpdateSlideshowRequest struct {
	Title    *string             `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Settings *GenerationSettings `json:"settings,omitempty"`
}

// Validate validates the RegisterRequest.
func (r *RegisterRequest) Validate() error {
	return requestValidator.Struct(r)
}

// Validate validates the LoginRequest.
func (r *LoginRequest) Validate() error {
	return requestValidator.Struct(r)
}

// Validate validates the UpdatePasswordRequest.
func (r *UpdatePasswordRequest) Validate() error {
	return requestValidator.Struct(r)
}

// Validate validates the CreateSlideshowRequest.
func (r *CreateSlideshowRequest) Validate() error {
	if err := requestValidator.Struct(r); err != nil {
		return err
	}
	if r.Settings != nil {
		return r.Settings.WithDefaults().Validate()
	}
	return nil
}

// Validate validates the UpdateSlideshowRequest.
func (r *UpdateSlideshowRequest) Validate() error {
	if err := requestValidator.Struct(r); err != nil {
		return err
	}
	if r.Settings != nil {
		return r.Settings.WithDefaults().Validate()
	}
	return nil
}
