package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fudbi/fudbi/internal/common"
	"github.com/fudbi/fudbi/internal/server/auth"
	"github.com/fudbi/fudbi/internal/server/models"
	"github.com/fudbi/fudbi/internal/server/repositories/sessions"
)

// SessionStore issues and resolves the opaque token carried in the session
// cookie.
type SessionStore interface {
	Create(ctx context.Context, u *models.User) (string, error)
	// Lookup fails with common.ErrorUnauthorized for missing, invalid,
	// expired or revoked tokens.
	Lookup(ctx context.Context, token string) (*models.UserContext, error)
	Revoke(ctx context.Context, token string) error
}

// JWTSessionStore signs sessions as JWTs and remembers only revocations.
type JWTSessionStore struct {
	revoked  sessions.Repository
	secret   []byte
	validity time.Duration
}

func NewJWTSessionStore(revoked sessions.Repository, secret string, validity time.Duration) *JWTSessionStore {
	return &JWTSessionStore{revoked: revoked, secret: []byte(secret), validity: validity}
}

func (s *JWTSessionStore) Create(ctx context.Context, u *models.User) (string, error) {
	token, err := auth.GenerateToken(uuid.NewString(), u, s.secret, s.validity)
	if err != nil {
		return "", fmt.Errorf("error signing session: %w", err)
	}
	return token, nil
}

func (s *JWTSessionStore) Lookup(ctx context.Context, token string) (*models.UserContext, error) {
	if token == "" {
		return nil, common.ErrorUnauthorized
	}
	claims, err := auth.ParseToken(token, s.secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorUnauthorized, err)
	}
	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("error checking session: %w", err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: %v", common.ErrorUnauthorized, common.ErrSessionRevoked)
	}
	return claims.UserContext(), nil
}

// Revoke is a no-op for tokens that no longer verify.
func (s *JWTSessionStore) Revoke(ctx context.Context, token string) error {
	claims, err := auth.ParseToken(token, s.secret)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) || errors.Is(err, common.ErrInvalidToken) {
			return nil
		}
		return err
	}
	rs := &models.RevokedSession{ID: claims.ID, UserID: claims.UserID}
	if claims.ExpiresAt != nil {
		rs.ExpiresAt = claims.ExpiresAt.Time
	}
	if err := s.revoked.Revoke(ctx, rs); err != nil {
		return fmt.Errorf("error revoking session: %w", err)
	}
	return nil
}
