// Package identity verifies who a user is: sign-up with a password policy,
// email confirmation codes and password authentication.
package identity

import (
	"context"
	"errors"
)

var (
	ErrUsernameExists   = errors.New("user already exists")
	ErrInvalidPassword  = errors.New("password must be at least 8 characters with uppercase, lowercase, and numbers")
	ErrCodeMismatch     = errors.New("invalid verification code")
	ErrExpiredCode      = errors.New("verification code has expired")
	ErrNotAuthorized    = errors.New("invalid email or password")
	ErrUserNotConfirmed = errors.New("please verify your email first")
)

// SignUpResult carries the new identity's user id and the plain confirmation
// code to deliver to the user. Only a hash of the code is stored.
type SignUpResult struct {
	UserID string
	Code   string
}

type Provider interface {
	SignUp(ctx context.Context, email, password string) (*SignUpResult, error)
	Confirm(ctx context.Context, email, code string) (userID string, err error)
	Authenticate(ctx context.Context, email, password string) (userID string, err error)
	// Remove drops the identity of email. Removing a missing identity succeeds.
	Remove(ctx context.Context, email string) error
}
