// Package auth signs and parses the session tokens carried in the session
// cookie.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fudbi/fudbi/internal/common"
	"github.com/fudbi/fudbi/internal/server/models"
)

// Claims carries the session id in jti plus enough profile to serve a request
// without a store read.
type Claims struct {
	jwt.RegisteredClaims
	UserID string      `json:"uid"`
	Email  string      `json:"email"`
	Name   string      `json:"name"`
	Phone  string      `json:"phone,omitempty"`
	City   string      `json:"city"`
	Role   models.Role `json:"role"`
}

func GenerateToken(sessionID string, u *models.User, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Phone:  u.Phone,
		City:   u.City,
		Role:   u.Role,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the signature and expiry of tokenString.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.ID == "" || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

func (c *Claims) UserContext() *models.UserContext {
	uc := &models.UserContext{
		SessionID: c.ID,
		UserID:    c.UserID,
		Email:     c.Email,
		Name:      c.Name,
		Phone:     c.Phone,
		City:      c.City,
		Role:      c.Role,
	}
	if c.ExpiresAt != nil {
		uc.ExpiresAt = c.ExpiresAt.Time
	}
	return uc
}
