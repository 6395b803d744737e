package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/slideshow-studio/internal/db"
	"github.com/jonathan/slideshow-studio/internal/editor"
	"github.com/jonathan/slideshow-studio/internal/generation"
	"github.com/jonathan/slideshow-studio/internal/ingestion"
	"github.com/jonathan/slideshow-studio/internal/persist"
	"github.com/jonathan/slideshow-studio/internal/server/middleware"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrUserNotFound indicates user was not found
type ErrUserNotFound struct {
	UserID uuid.UUID
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
}

// ErrPasswordMismatch indicates current password is incorrect
type ErrPasswordMismatch struct{}

func (e *ErrPasswordMismatch) Error() string {
	return "current password is incorrect"
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
	Cause   error
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

func (e *ErrValidation) Unwrap() error {
	return e.Cause
}

// ErrNotFound is a missing or foreign resource. Slideshows owned by another
// user are reported the same way as missing ones.
type ErrNotFound struct {
	Resource string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// HTTPStatus returns the HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		emailExists *ErrEmailAlreadyExists
		badCreds    *ErrInvalidCredentials
		mismatch    *ErrPasswordMismatch
		noUser      *ErrUserNotFound
		invalid     *ErrValidation
		notFound    *ErrNotFound
		genInvalid  *generation.ValidationError
		apiErr      *generation.APICallError
		parseErr    *generation.ParseError
		fetchErr    *ingestion.FetchError
		fieldErrs   validator.ValidationErrors
		flushErr    *persist.FlushError
	)
	switch {
	case errors.As(err, &emailExists):
		return http.StatusConflict
	case errors.As(err, &badCreds), errors.As(err, &mismatch), errors.Is(err, middleware.ErrNoUser):
		return http.StatusUnauthorized
	case errors.As(err, &noUser), errors.As(err, &notFound):
		return http.StatusNotFound
	// checked before ValidationError, which wraps it
	case errors.Is(err, generation.ErrSourceExhausted):
		return http.StatusConflict
	case errors.As(err, &invalid), errors.As(err, &genInvalid), errors.As(err, &fieldErrs):
		return http.StatusBadRequest

	case errors.Is(err, db.ErrNotFound), errors.Is(err, editor.ErrSlideNotFound):
		return http.StatusNotFound
	case errors.Is(err, editor.ErrIndexOutOfRange), errors.Is(err, generation.ErrEmptySource),
		errors.Is(err, db.ErrNotAdjacent), errors.Is(err, db.ErrDuplicateSlideID):
		return http.StatusBadRequest
	case errors.Is(err, editor.ErrGenerationInProgress),
		errors.Is(err, editor.ErrNoActiveSlide):
		return http.StatusConflict
	case errors.Is(err, ingestion.ErrEmptyContent):
		return http.StatusUnprocessableEntity

	case errors.As(err, &fetchErr):
		if fetchErr.Message == "invalid URL" {
			return http.StatusBadRequest
		}
		return http.StatusBadGateway
	case errors.As(err, &apiErr), errors.As(err, &parseErr):
		return http.StatusBadGateway
	case errors.As(err, &flushErr):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// errorCode is the machine readable kind of an error response
func errorCode(err error) string {
	var (
		apiErr   *generation.APICallError
		parseErr *generation.ParseError
	)
	switch {
	case errors.As(err, &apiErr):
		return "generation_failed"
	case errors.As(err, &parseErr):
		return "invalid_model_response"
	case errors.Is(err, editor.ErrGenerationInProgress):
		return "generation_in_progress"
	case errors.Is(err, generation.ErrSourceExhausted):
		return "source_exhausted"
	case errors.Is(err, generation.ErrEmptySource):
		return "empty_source"
	}
	switch HTTPStatus(err) {
	case http.StatusBadRequest:
		return "invalid_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "empty_content"
	case http.StatusBadGateway:
		return "upstream_error"
	case http.StatusServiceUnavailable:
		return "save_failed"
	case http.StatusGatewayTimeout:
		return "timeout"
	default:
		return "internal_error"
	}
}
