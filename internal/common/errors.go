// Package common defines shared constants and sentinel errors used across
// the FudBi server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Store-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")
	ErrConditionFailed = errors.New("condition failed")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// Lifecycle errors.
	ErrPostNotAvailable  = errors.New("post not available")
	ErrPostExpired       = errors.New("post has expired")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrPickupMismatch    = errors.New("pickup does not belong to post")
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")

	// Session errors.
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrSessionRevoked = errors.New("session revoked")
)
